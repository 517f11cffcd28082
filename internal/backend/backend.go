// Package backend defines the control-plane contract the orchestration core depends on,
// and provides the Docker MCP Toolkit CLI implementation of it.
//
// All calls carry a context deadline. Implementations must keep the error taxonomy
// distinguishable: a command failure (ErrCommandFailed), an unparseable response
// (ErrParseFailed), a missing entity (ErrServerNotFound/ErrToolNotFound) and a
// deadline expiry (ErrTimeout) are different conditions to callers.
package backend

import (
	"context"
	"encoding/json"
)

// ToolDescriptor describes a single callable tool exposed by a capability server.
// InputSchema is opaque to the orchestrator: it is carried through to callers and
// validated by the backend, never interpreted here.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ControlPlane is the external collaborator that actually starts and stops capability
// servers and executes remote calls. The orchestration core never talks to servers
// except through this contract.
type ControlPlane interface {
	// ListInventory returns the names of all servers known to the backend,
	// enabled or not.
	ListInventory(ctx context.Context) ([]string, error)

	// ActiveServers returns the names of currently enabled servers.
	ActiveServers(ctx context.Context) ([]string, error)

	// Enable starts the named servers.
	Enable(ctx context.Context, servers ...string) error

	// Disable stops the named servers.
	Disable(ctx context.Context, servers ...string) error

	// ListTools returns the tool descriptors for a single server.
	ListTools(ctx context.Context, server string) ([]ToolDescriptor, error)

	// CallTool invokes a tool with the given arguments and returns the raw result.
	CallTool(ctx context.Context, tool string, args map[string]any) (map[string]any, error)

	// Inspect returns best-effort metadata for a server. Absence of inspect data is
	// tolerated: implementations return an empty map rather than an error when the
	// backend has nothing to say.
	Inspect(ctx context.Context, server string) (map[string]any, error)

	// ConfigRead and ConfigWrite pass backend configuration through uninterpreted.
	ConfigRead(ctx context.Context) (map[string]any, error)
	ConfigWrite(ctx context.Context, cfg map[string]any) error

	// Secret management passthrough, uninterpreted by the core.
	SecretSet(ctx context.Context, key, value string) error
	SecretList(ctx context.Context) ([]string, error)
	SecretRemove(ctx context.Context, key string) error
}
