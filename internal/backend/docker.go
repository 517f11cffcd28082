package backend

import (
	"bytes"
	"context"
	stdErrors "errors"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/orchd-ai/orchd/internal/errors"
)

// DefaultCommandTimeout bounds a single CLI invocation when the caller's context
// carries no earlier deadline.
const DefaultCommandTimeout = 30 * time.Second

// runFunc executes a command and returns stdout, stderr and an execution error.
// It is swappable for tests.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

// DockerCLI talks to the Docker MCP Toolkit through its CLI (`docker mcp ...`).
// NewDockerCLI should be used to create instances of DockerCLI.
type DockerCLI struct {
	logger  hclog.Logger
	timeout time.Duration
	run     runFunc
}

var _ ControlPlane = (*DockerCLI)(nil)

// NewDockerCLI creates a control-plane driver backed by the `docker mcp` CLI.
// A non-positive timeout falls back to DefaultCommandTimeout.
func NewDockerCLI(logger hclog.Logger, timeout time.Duration) *DockerCLI {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &DockerCLI{
		logger:  logger.Named("backend"),
		timeout: timeout,
		run:     runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// command runs `docker mcp <args...>` and classifies failures into the domain taxonomy.
func (d *DockerCLI) command(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	full := append([]string{"mcp"}, args...)
	d.logger.Debug("Executing backend command", "args", strings.Join(full, " "))

	stdout, stderr, err := d.run(ctx, "docker", full...)
	if err != nil {
		if stdErrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: docker mcp %s", errors.ErrTimeout, strings.Join(args, " "))
		}
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = strings.TrimSpace(string(stdout))
		}
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: docker mcp %s: %s", errors.ErrCommandFailed, strings.Join(args, " "), msg)
	}

	return stdout, nil
}

// ListInventory returns all servers known to the backend, enabled or not.
func (d *DockerCLI) ListInventory(ctx context.Context) ([]string, error) {
	out, err := d.command(ctx, "server", "ls", "--json")
	if err != nil {
		return nil, err
	}
	return parseServerList(out)
}

// ActiveServers returns the currently enabled servers.
func (d *DockerCLI) ActiveServers(ctx context.Context) ([]string, error) {
	out, err := d.command(ctx, "server", "ls", "--json", "--enabled")
	if err != nil {
		return nil, err
	}
	return parseServerList(out)
}

// Enable starts the named servers. Enabling nothing is a no-op.
func (d *DockerCLI) Enable(ctx context.Context, servers ...string) error {
	if len(servers) == 0 {
		return nil
	}
	_, err := d.command(ctx, append([]string{"server", "enable"}, servers...)...)
	return err
}

// Disable stops the named servers. Disabling nothing is a no-op.
func (d *DockerCLI) Disable(ctx context.Context, servers ...string) error {
	if len(servers) == 0 {
		return nil
	}
	_, err := d.command(ctx, append([]string{"server", "disable"}, servers...)...)
	return err
}

// ListTools returns the tool descriptors for a single server.
func (d *DockerCLI) ListTools(ctx context.Context, server string) ([]ToolDescriptor, error) {
	out, err := d.command(ctx, "tools", "list", "--server", server, "--format=json")
	if err != nil {
		return nil, err
	}
	return parseToolList(out)
}

// CallTool invokes a tool with the given arguments.
func (d *DockerCLI) CallTool(ctx context.Context, tool string, args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode arguments for tool '%s': %w", errors.ErrBadRequest, tool, err)
	}

	out, err := d.command(ctx, "tools", "call", tool, "--arguments", string(encoded))
	if err != nil {
		if isNotFoundMessage(err.Error()) {
			return nil, fmt.Errorf("%w: %s", errors.ErrToolNotFound, tool)
		}
		return nil, err
	}

	return parseToolResult(tool, out)
}

// Inspect returns best-effort metadata for a server.
// Command failures and unparseable output degrade to an empty map: inspect data is
// advisory and its absence must never fail a caller.
func (d *DockerCLI) Inspect(ctx context.Context, server string) (map[string]any, error) {
	out, err := d.command(ctx, "server", "inspect", server)
	if err != nil {
		d.logger.Debug("Inspect unavailable", "server", server, "error", err)
		return map[string]any{}, nil
	}

	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		// Non-JSON inspect output still carries a usable description.
		text := strings.TrimSpace(string(out))
		if len(text) > 200 {
			text = text[:200]
		}
		if text == "" {
			return map[string]any{}, nil
		}
		return map[string]any{"description": text}, nil
	}
	return data, nil
}

// ConfigRead reads the backend configuration uninterpreted.
func (d *DockerCLI) ConfigRead(ctx context.Context) (map[string]any, error) {
	out, err := d.command(ctx, "config", "read")
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("%w: config read output: %w", errors.ErrParseFailed, err)
	}
	return data, nil
}

// ConfigWrite writes the backend configuration uninterpreted.
func (d *DockerCLI) ConfigWrite(ctx context.Context, cfg map[string]any) error {
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: failed to encode config: %w", errors.ErrBadRequest, err)
	}
	_, err = d.command(ctx, "config", "write", string(encoded))
	return err
}

// SecretSet stores a secret in the backend secret store.
func (d *DockerCLI) SecretSet(ctx context.Context, key, value string) error {
	_, err := d.command(ctx, "secret", "set", fmt.Sprintf("%s=%s", key, value))
	return err
}

// SecretList returns the keys held in the backend secret store.
func (d *DockerCLI) SecretList(ctx context.Context) ([]string, error) {
	out, err := d.command(ctx, "secret", "ls", "--json")
	if err != nil {
		return nil, err
	}
	return parseServerList(out)
}

// SecretRemove deletes a secret from the backend secret store.
func (d *DockerCLI) SecretRemove(ctx context.Context, key string) error {
	_, err := d.command(ctx, "secret", "rm", key)
	return err
}

func isNotFoundMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "not found") || strings.Contains(m, "unknown tool")
}
