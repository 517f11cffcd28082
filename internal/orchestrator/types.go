package orchestrator

import (
	"time"

	"github.com/orchd-ai/orchd/internal/analyzer"
	"github.com/orchd-ai/orchd/internal/backend"
	"github.com/orchd-ai/orchd/internal/capability"
	"github.com/orchd-ai/orchd/internal/discover"
	"github.com/orchd-ai/orchd/internal/usage"
)

// ActivationResult reports the outcome of an activation batch. A server that
// fails never blocks the rest of the batch; its error text lands in Failed.
type ActivationResult struct {
	Activated     []string          `json:"activated"`
	AlreadyActive []string          `json:"already_active,omitempty"`
	Failed        map[string]string `json:"failed,omitempty"`
	ToolCount     int               `json:"tool_count"`
}

// DeactivationResult reports the outcome of a deactivation batch.
type DeactivationResult struct {
	Deactivated []string          `json:"deactivated"`
	Failed      map[string]string `json:"failed,omitempty"`
}

// Suggestion is the non-mutating answer to "what do I need for this task".
type Suggestion struct {
	Analysis      analyzer.Analysis `json:"analysis"`
	Profile       string            `json:"profile,omitempty"`
	AlreadyActive []string          `json:"already_active,omitempty"`
}

// TaskActivation is the outcome of activating servers for a task description.
// Activation is nil when confidence stayed below the auto-activation threshold.
type TaskActivation struct {
	Suggestion Suggestion        `json:"suggestion"`
	Activation *ActivationResult `json:"activation,omitempty"`
}

// ServerInfo is the detailed view of one server.
type ServerInfo struct {
	Metadata   discover.ServerMetadata  `json:"metadata"`
	Capability *capability.Capability   `json:"capability,omitempty"`
	Tools      []backend.ToolDescriptor `json:"tools,omitempty"`
	Active     bool                     `json:"active"`
}

// StatusReport summarizes the current orchestration state.
type StatusReport struct {
	ActiveServers   []string    `json:"active_servers"`
	ToolCount       int         `json:"tool_count"`
	EstimatedTokens int         `json:"estimated_tokens"`
	Usage           usage.Stats `json:"usage"`
	LastDiscovery   time.Time   `json:"last_discovery"`
}

// MonitorReport pairs usage stats with deactivation recommendations.
type MonitorReport struct {
	Usage                  usage.Stats `json:"usage"`
	RecommendDeactivation  []string    `json:"recommend_deactivation"`
	EstimatedTokensSavable int         `json:"estimated_tokens_savable"`
}

// SyncResult reports how the tool index was reconciled against the backend.
type SyncResult struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Active  []string `json:"active"`
}

// OptimizeResult reports which idle servers were shut down.
type OptimizeResult struct {
	Deactivated []string `json:"deactivated"`
	Kept        []string `json:"kept,omitempty"`
	TokensSaved int      `json:"tokens_saved"`
}
