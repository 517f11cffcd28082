package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orchd-ai/orchd/internal/cmd"
	"github.com/orchd-ai/orchd/internal/daemon"
	"github.com/orchd-ai/orchd/internal/mcpserver"
)

// MCPCmd should be used to represent the 'mcp' command.
type MCPCmd struct {
	*cmd.BaseCmd
}

// NewMCPCmd creates a newly configured (Cobra) command.
func NewMCPCmd(baseCmd *cmd.BaseCmd) (*cobra.Command, error) {
	c := &MCPCmd{
		BaseCmd: baseCmd,
	}

	cobraCommand := &cobra.Command{
		Use:   "mcp",
		Short: "Serves the orchestration operations as MCP tools over stdio",
		Long: "Serves the orchestration operations as MCP tools over stdio, " +
			"so AI assistants can activate capability servers and route tool calls through orchd",
		RunE: c.run,
	}

	return cobraCommand, nil
}

// run is configured (via NewMCPCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *MCPCmd) run(_ *cobra.Command, _ []string) error {
	logger := c.Logger()

	cfg, err := c.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading orchd configuration: %w", err)
	}

	coordinator, err := daemon.BuildCoordinator(logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to create orchestration coordinator: %w", err)
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	// Discovery failures should not prevent serving; tools surface them per call.
	if err := coordinator.Init(ctx); err != nil {
		logger.Warn("Initial discovery failed, continuing with empty registry", "error", err)
	}

	return mcpserver.NewServer(logger, coordinator).Start(ctx)
}
