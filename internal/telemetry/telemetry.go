// Package telemetry records orchestration events in a bounded in-memory history
// and aggregates them into summary stats.
package telemetry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// DefaultHistoryLimit bounds the in-memory event history; the oldest events are
// evicted once the limit is reached.
const DefaultHistoryLimit = 1000

// EventType classifies what an event records.
type EventType string

const (
	EventActivate   EventType = "activate"
	EventDeactivate EventType = "deactivate"
	EventToolCall   EventType = "tool_call"
	EventSync       EventType = "sync"
	EventDiscovery  EventType = "discovery"
)

// Event is one recorded orchestration action. Reason carries the caller's
// stated motive for activations, Detail carries error text on failures.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Server    string    `json:"server,omitempty"`
	Success   bool      `json:"success"`
	LatencyMS int64     `json:"latency_ms"`
	Reason    string    `json:"reason,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TypeStats aggregates the events of one type.
type TypeStats struct {
	Count        int   `json:"count"`
	Failures     int   `json:"failures"`
	AvgLatencyMS int64 `json:"avg_latency_ms"`
}

// Summary is the aggregate view over the recorded history.
type Summary struct {
	TotalEvents int                     `json:"total_events"`
	ByType      map[EventType]TypeStats `json:"by_type"`
}

// Recorder keeps a bounded, newest-first queryable event history.
// NewRecorder should be used to create instances of Recorder.
type Recorder struct {
	logger hclog.Logger
	limit  int

	mu     sync.Mutex
	events []Event
}

// NewRecorder creates a recorder. A non-positive limit falls back to
// DefaultHistoryLimit.
func NewRecorder(logger hclog.Logger, limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Recorder{
		logger: logger.Named("telemetry"),
		limit:  limit,
		events: make([]Event, 0, limit),
	}
}

// Record stores an event, assigning its ID and timestamp, and returns it.
// When the history is full the oldest event is dropped.
func (r *Recorder) Record(eventType EventType, server string, success bool, latency time.Duration, reason, detail string) Event {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Server:    server,
		Success:   success,
		LatencyMS: latency.Milliseconds(),
		Reason:    reason,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}

	r.mu.Lock()
	if len(r.events) >= r.limit {
		r.events = r.events[1:]
	}
	r.events = append(r.events, event)
	r.mu.Unlock()

	r.logger.Debug("Recorded event", "type", eventType, "server", server, "success", success)
	return event
}

// Events returns up to limit events, newest first. A non-positive limit
// returns the full history.
func (r *Recorder) Events(limit int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.events[i])
	}
	return out
}

// EventsByType returns the recorded events of one type, newest first.
func (r *Recorder) EventsByType(eventType EventType) []Event {
	out := make([]Event, 0)
	for _, event := range r.Events(0) {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// Stats aggregates the recorded history per event type.
func (r *Recorder) Stats() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := Summary{
		TotalEvents: len(r.events),
		ByType:      make(map[EventType]TypeStats),
	}
	latencies := make(map[EventType]int64)
	for _, event := range r.events {
		stats := summary.ByType[event.Type]
		stats.Count++
		if !event.Success {
			stats.Failures++
		}
		latencies[event.Type] += event.LatencyMS
		summary.ByType[event.Type] = stats
	}
	for eventType, stats := range summary.ByType {
		stats.AvgLatencyMS = latencies[eventType] / int64(stats.Count)
		summary.ByType[eventType] = stats
	}
	return summary
}

// Types returns the event types present in the history, sorted.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[EventType]struct{})
	for _, event := range r.events {
		seen[event.Type] = struct{}{}
	}
	out := make([]EventType, 0, len(seen))
	for eventType := range seen {
		out = append(out, eventType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
