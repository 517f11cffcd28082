// Package contracts defines the interfaces the serving surfaces (HTTP API, MCP
// server) consume, decoupling them from the concrete coordinator.
package contracts

import (
	"context"

	"github.com/orchd-ai/orchd/internal/discover"
	"github.com/orchd-ai/orchd/internal/orchestrator"
	"github.com/orchd-ai/orchd/internal/telemetry"
)

// ServerCatalog exposes read access to the discovered server registry.
type ServerCatalog interface {
	// ListServers returns discovered servers, optionally filtered by category.
	ListServers(ctx context.Context, category string, includeInactive, forceRefresh bool) ([]discover.ServerMetadata, error)

	// ServerInfo returns detailed metadata for one server.
	ServerInfo(ctx context.Context, name string) (orchestrator.ServerInfo, error)
}

// Activator mutates which servers are active.
type Activator interface {
	// Activate enables servers and registers their tools, recording the
	// caller's reason on the activation events.
	Activate(ctx context.Context, servers []string, includeRelated bool, reason string) (orchestrator.ActivationResult, error)

	// ActivateProfile activates every server in a named profile.
	ActivateProfile(ctx context.Context, name string) (orchestrator.ActivationResult, error)

	// ActivateForTask analyzes a task and activates what it needs.
	ActivateForTask(ctx context.Context, task string) (orchestrator.TaskActivation, error)

	// Deactivate disables servers; an empty list means all tracked servers.
	Deactivate(ctx context.Context, servers []string) (orchestrator.DeactivationResult, error)
}

// TaskAdvisor analyzes task descriptions without changing state.
type TaskAdvisor interface {
	// Suggest reports which servers a task needs.
	Suggest(ctx context.Context, task string) (orchestrator.Suggestion, error)
}

// ToolRouter dispatches tool calls to their owning servers.
type ToolRouter interface {
	// CallTool routes a tool call and tracks its usage.
	CallTool(ctx context.Context, tool string, args map[string]any) (map[string]any, error)
}

// StateReporter exposes orchestration state and housekeeping operations.
type StateReporter interface {
	// Status summarizes the current orchestration state.
	Status(ctx context.Context) (orchestrator.StatusReport, error)

	// Monitor reports usage stats and deactivation recommendations.
	Monitor(ctx context.Context) (orchestrator.MonitorReport, error)

	// Sync reconciles local bookkeeping against the backend.
	Sync(ctx context.Context) (orchestrator.SyncResult, error)

	// Optimize deactivates idle servers, keeping the given ones.
	Optimize(ctx context.Context, keep []string) (orchestrator.OptimizeResult, error)

	// Events returns recent orchestration events, newest first.
	Events(limit int) []telemetry.Event

	// Telemetry returns the aggregate event summary.
	Telemetry() telemetry.Summary
}

// Orchestrator is the full surface the daemon wires into its serving layers.
type Orchestrator interface {
	ServerCatalog
	Activator
	TaskAdvisor
	ToolRouter
	StateReporter
}

var _ Orchestrator = (*orchestrator.Coordinator)(nil)
