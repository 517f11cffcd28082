// Package usage tracks per-server activity so idle servers can be flagged for
// deactivation and context-window cost can be estimated.
package usage

import (
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultIdleTimeout is how long a server may go unused before it is
// recommended for deactivation.
const DefaultIdleTimeout = 10 * time.Minute

// TokensPerServer is the rough context-window cost of keeping one server's
// tool schemas loaded.
const TokensPerServer = 1000

// ServerUsage is the tracked activity for one server. Records survive
// deactivation with Active set to false, so call history only resets on
// daemon restart.
type ServerUsage struct {
	Server      string         `json:"server"`
	ActivatedAt time.Time      `json:"activated_at"`
	LastUsed    time.Time      `json:"last_used"`
	ToolCalls   int            `json:"tool_calls"`
	ToolUsage   map[string]int `json:"tool_usage,omitempty"`
	Active      bool           `json:"active"`
	IdleFor     string         `json:"idle_for,omitempty"`
}

// Stats is the aggregate usage view across all tracked servers.
type Stats struct {
	Servers            []ServerUsage `json:"servers"`
	ActiveCount        int           `json:"active_count"`
	TotalToolCalls     int           `json:"total_tool_calls"`
	EstimatedTokenCost int           `json:"estimated_token_cost"`
}

// Monitor tracks activation and tool-use timestamps per server.
// NewMonitor should be used to create instances of Monitor.
type Monitor struct {
	logger      hclog.Logger
	idleTimeout time.Duration

	mu      sync.Mutex
	servers map[string]*record

	// now is swappable for tests.
	now func() time.Time
}

type record struct {
	activatedAt time.Time
	lastUsed    time.Time
	accessCount int
	toolCalls   map[string]int
	active      bool
}

// NewMonitor creates a usage monitor. A negative idle timeout falls back to
// DefaultIdleTimeout; zero means every tracked server is immediately eligible
// for deactivation.
func NewMonitor(logger hclog.Logger, idleTimeout time.Duration) *Monitor {
	if idleTimeout < 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Monitor{
		logger:      logger.Named("usage"),
		idleTimeout: idleTimeout,
		servers:     make(map[string]*record),
		now:         time.Now,
	}
}

// TrackActivation starts or resumes tracking a server. Activation counts as
// use, so a freshly activated server is never immediately idle. A server with
// an existing record keeps its accumulated call counts.
func (m *Monitor) TrackActivation(server string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if rec, ok := m.servers[server]; ok {
		rec.lastUsed = now
		rec.active = true
		return
	}
	m.servers[server] = &record{
		activatedAt: now,
		lastUsed:    now,
		toolCalls:   make(map[string]int),
		active:      true,
	}
}

// TrackDeactivation marks a server inactive. Its record and call counts stay
// behind so the history survives deactivation cycles.
func (m *Monitor) TrackDeactivation(server string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.servers[server]; ok {
		rec.active = false
	}
}

// TrackToolUse records one call of a named tool against a server. Calls for
// untracked servers start tracking them, covering servers enabled out of band.
func (m *Monitor) TrackToolUse(server, tool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.servers[server]
	if !ok {
		rec = &record{
			activatedAt: m.now(),
			toolCalls:   make(map[string]int),
		}
		m.servers[server] = rec
	}
	rec.lastUsed = m.now()
	rec.active = true
	rec.accessCount++
	if tool != "" {
		rec.toolCalls[tool]++
	}
}

// Tracked reports whether the server is currently tracked as active.
func (m *Monitor) Tracked(server string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.servers[server]
	return ok && rec.active
}

// Usage returns the aggregate usage stats, servers sorted by name. Inactive
// servers contribute their history but not to the active count or token cost.
func (m *Monitor) Usage() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stats := Stats{
		Servers: make([]ServerUsage, 0, len(m.servers)),
	}
	for server, rec := range m.servers {
		usage := ServerUsage{
			Server:      server,
			ActivatedAt: rec.activatedAt,
			LastUsed:    rec.lastUsed,
			ToolCalls:   rec.accessCount,
			Active:      rec.active,
		}
		if len(rec.toolCalls) > 0 {
			usage.ToolUsage = make(map[string]int, len(rec.toolCalls))
			for tool, count := range rec.toolCalls {
				usage.ToolUsage[tool] = count
			}
		}
		if idle := now.Sub(rec.lastUsed); idle > 0 {
			usage.IdleFor = idle.Round(time.Second).String()
		}
		stats.Servers = append(stats.Servers, usage)
		stats.TotalToolCalls += rec.accessCount
		if rec.active {
			stats.ActiveCount++
		}
	}
	stats.EstimatedTokenCost = stats.ActiveCount * TokensPerServer
	sort.Slice(stats.Servers, func(i, j int) bool { return stats.Servers[i].Server < stats.Servers[j].Server })
	return stats
}

// RecommendDeactivation returns the active servers idle for at least the idle
// timeout, sorted by name. A zero-use server's idle time runs from activation.
func (m *Monitor) RecommendDeactivation() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make([]string, 0)
	for server, rec := range m.servers {
		if rec.active && now.Sub(rec.lastUsed) >= m.idleTimeout {
			out = append(out, server)
		}
	}
	sort.Strings(out)
	return out
}

// SetClock replaces the time source. It exists for tests.
func (m *Monitor) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}
