package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orchd-ai/orchd/internal/cmd"
	"github.com/orchd-ai/orchd/internal/flags"
)

// RootCmd should be used to represent the root 'orchd' command.
type RootCmd struct {
	*cmd.BaseCmd
}

func Execute() {
	rootCmd, err := NewRootCmd(&RootCmd{BaseCmd: &cmd.BaseCmd{}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating root command: %s\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd(c *RootCmd) (*cobra.Command, error) {
	if c == nil || c.BaseCmd == nil {
		return nil, fmt.Errorf("root command requires a base command")
	}

	rootCmd := &cobra.Command{
		Use:   "orchd <command> [args]",
		Short: "'orchd' manages on-demand activation of capability servers.",
		Long: `The 'orchd' CLI runs the capability server orchestration daemon and its MCP
stdio surface. It discovers available servers, activates them on demand and
routes tool calls to whichever active server owns the tool.`,
		SilenceUsage: true,
		Version:      cmd.Version(),
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	daemonCmd, err := NewDaemonCmd(c.BaseCmd)
	if err != nil {
		return nil, err
	}
	rootCmd.AddCommand(daemonCmd)

	mcpCmd, err := NewMCPCmd(c.BaseCmd)
	if err != nil {
		return nil, err
	}
	rootCmd.AddCommand(mcpCmd)

	return rootCmd, nil
}
