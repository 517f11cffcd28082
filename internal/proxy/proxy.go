// Package proxy routes tool calls to the server that registered each tool and
// keeps the tool index consistent as servers come and go.
package proxy

import (
	"context"
	goerrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/orchd-ai/orchd/internal/backend"
	"github.com/orchd-ai/orchd/internal/errors"
	"github.com/orchd-ai/orchd/internal/pool"
)

// ToolCaller is the slice of the control plane the router dispatches through.
type ToolCaller interface {
	CallTool(ctx context.Context, tool string, args map[string]any) (map[string]any, error)
}

// Router owns the tool-to-server index and dispatches tool calls.
//
// Tool names are a flat namespace: when two servers expose the same tool name,
// the most recent registration wins. Unregistering a server removes exactly the
// tools it currently owns, never entries another server claimed since.
// NewRouter should be used to create instances of Router.
type Router struct {
	caller ToolCaller
	status *pool.StatusCache
	logger hclog.Logger

	mu          sync.Mutex
	toolOwner   map[string]string
	serverTools map[string][]backend.ToolDescriptor
}

// NewRouter creates a tool router dispatching through the given caller and
// consulting the status cache before and after each dispatch.
func NewRouter(logger hclog.Logger, caller ToolCaller, status *pool.StatusCache) *Router {
	return &Router{
		caller:      caller,
		status:      status,
		logger:      logger.Named("proxy"),
		toolOwner:   make(map[string]string),
		serverTools: make(map[string][]backend.ToolDescriptor),
	}
}

// Register records the tools a server exposes, claiming ownership of each tool
// name. Registering a server again replaces its previous tool set.
func (r *Router) Register(server string, tools []backend.ToolDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeOwnedLocked(server)
	r.serverTools[server] = tools
	for _, tool := range tools {
		if prev, ok := r.toolOwner[tool.Name]; ok && prev != server {
			r.logger.Warn("Tool name collision, reassigning owner", "tool", tool.Name, "from", prev, "to", server)
		}
		r.toolOwner[tool.Name] = server
	}

	r.logger.Debug("Registered server tools", "server", server, "tools", len(tools))
}

// Unregister removes a server and the tools it owns from the index, and expires
// its cached status so the next routed call re-verifies. Unknown servers are a
// no-op.
func (r *Router) Unregister(server string) {
	r.mu.Lock()
	r.removeOwnedLocked(server)
	delete(r.serverTools, server)
	r.mu.Unlock()

	r.status.Invalidate(server)
	r.logger.Debug("Unregistered server", "server", server)
}

// removeOwnedLocked deletes the index entries the server currently owns.
// Tools reassigned to another server by a later registration are left intact.
func (r *Router) removeOwnedLocked(server string) {
	for _, tool := range r.serverTools[server] {
		if r.toolOwner[tool.Name] == server {
			delete(r.toolOwner, tool.Name)
		}
	}
}

// Owner returns the server currently owning the given tool name.
func (r *Router) Owner(tool string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	server, ok := r.toolOwner[tool]
	return server, ok
}

// Tools returns the registered tool descriptors for one server.
func (r *Router) Tools(server string) []backend.ToolDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.serverTools[server]
}

// Servers returns the registered server names, sorted.
func (r *Router) Servers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.serverTools))
	for server := range r.serverTools {
		out = append(out, server)
	}
	sort.Strings(out)
	return out
}

// ToolCount returns the number of distinct tool names in the index.
func (r *Router) ToolCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.toolOwner)
}

// Call routes a tool call to its owning server.
//
// The owning server's cached status is verified before dispatch. When the
// dispatch itself fails, the cached status is invalidated and re-checked once:
// if the server turned out inactive the failure is reported as a connection
// error, otherwise the backend error is returned as-is. There is no retry.
func (r *Router) Call(ctx context.Context, tool string, args map[string]any) (map[string]any, error) {
	server, ok := r.Owner(tool)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrToolNotFound, tool)
	}

	active, err := r.status.Status(ctx, server)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, fmt.Errorf("%w: server '%s' for tool '%s' is not active", errors.ErrConnectionFailed, server, tool)
	}

	result, err := r.caller.CallTool(ctx, tool, args)
	if err == nil {
		return result, nil
	}
	if goerrors.Is(err, errors.ErrToolNotFound) || goerrors.Is(err, errors.ErrTimeout) {
		return nil, err
	}

	// One fresh status check to distinguish a dead server from a bad call.
	r.status.Invalidate(server)
	if active, statusErr := r.status.Status(ctx, server); statusErr == nil && !active {
		return nil, fmt.Errorf("%w: server '%s' went inactive: %v", errors.ErrConnectionFailed, server, err)
	}
	return nil, err
}
