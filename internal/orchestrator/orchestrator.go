// Package orchestrator coordinates discovery, activation, routing and usage
// tracking into the operations the API and MCP surfaces expose.
package orchestrator

import (
	"context"
	goerrors "errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/orchd-ai/orchd/internal/analyzer"
	"github.com/orchd-ai/orchd/internal/backend"
	"github.com/orchd-ai/orchd/internal/capability"
	"github.com/orchd-ai/orchd/internal/discover"
	"github.com/orchd-ai/orchd/internal/errors"
	"github.com/orchd-ai/orchd/internal/pool"
	"github.com/orchd-ai/orchd/internal/profile"
	"github.com/orchd-ai/orchd/internal/proxy"
	"github.com/orchd-ai/orchd/internal/registry"
	"github.com/orchd-ai/orchd/internal/telemetry"
	"github.com/orchd-ai/orchd/internal/usage"
)

// Coordinator wires the orchestration components together and serializes
// activation state changes. Reads (status, suggestions, events) do not take
// the activation lock.
// NewCoordinator should be used to create instances of Coordinator.
type Coordinator struct {
	logger   hclog.Logger
	backend  backend.ControlPlane
	registry *registry.Registry
	status   *pool.StatusCache
	router   *proxy.Router
	catalog  *capability.Catalog
	analyzer *analyzer.Analyzer
	profiles *profile.Manager
	monitor  *usage.Monitor
	recorder *telemetry.Recorder

	// mu serializes activation, deactivation and sync.
	mu sync.Mutex
}

// Options carries the dependencies for NewCoordinator.
type Options struct {
	Backend  backend.ControlPlane
	Registry *registry.Registry
	Status   *pool.StatusCache
	Router   *proxy.Router
	Catalog  *capability.Catalog
	Analyzer *analyzer.Analyzer
	Profiles *profile.Manager
	Monitor  *usage.Monitor
	Recorder *telemetry.Recorder
}

// Validate ensures all required dependencies are present.
func (o Options) Validate() error {
	switch {
	case o.Backend == nil:
		return fmt.Errorf("backend control plane is required")
	case o.Registry == nil:
		return fmt.Errorf("registry is required")
	case o.Status == nil:
		return fmt.Errorf("status cache is required")
	case o.Router == nil:
		return fmt.Errorf("tool router is required")
	case o.Catalog == nil:
		return fmt.Errorf("capability catalog is required")
	case o.Analyzer == nil:
		return fmt.Errorf("task analyzer is required")
	case o.Profiles == nil:
		return fmt.Errorf("profile manager is required")
	case o.Monitor == nil:
		return fmt.Errorf("usage monitor is required")
	case o.Recorder == nil:
		return fmt.Errorf("telemetry recorder is required")
	}
	return nil
}

// NewCoordinator creates a coordinator from the given dependencies.
func NewCoordinator(logger hclog.Logger, opts Options) (*Coordinator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Coordinator{
		logger:   logger.Named("orchestrator"),
		backend:  opts.Backend,
		registry: opts.Registry,
		status:   opts.Status,
		router:   opts.Router,
		catalog:  opts.Catalog,
		analyzer: opts.Analyzer,
		profiles: opts.Profiles,
		monitor:  opts.Monitor,
		recorder: opts.Recorder,
	}, nil
}

// Init primes the registry and registers the tools of servers that are already
// active on the backend, so a restarted daemon picks up where it left off.
func (c *Coordinator) Init(ctx context.Context) error {
	if _, err := c.registry.Refresh(ctx, false); err != nil {
		return fmt.Errorf("initial discovery failed: %w", err)
	}

	active, err := c.backend.ActiveServers(ctx)
	if err != nil {
		c.logger.Warn("Could not list active servers at startup", "error", err)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, server := range active {
		c.adoptLocked(ctx, server)
	}
	c.logger.Info("Initialized", "active_servers", len(active))
	return nil
}

// adoptLocked registers an already-running server's tools without enabling it.
func (c *Coordinator) adoptLocked(ctx context.Context, server string) {
	c.status.MarkActive(server, true)
	tools, err := c.backend.ListTools(ctx, server)
	if err != nil {
		c.logger.Warn("Could not list tools for active server", "server", server, "error", err)
	}
	c.router.Register(server, tools)
	if !c.monitor.Tracked(server) {
		c.monitor.TrackActivation(server)
	}
}

// ListServers returns the discovered server catalog, optionally filtered by
// category. forceRefresh bypasses the discovery debounce.
func (c *Coordinator) ListServers(ctx context.Context, category string, includeInactive, forceRefresh bool) ([]discover.ServerMetadata, error) {
	if _, err := c.registry.Refresh(ctx, forceRefresh); err != nil {
		return nil, err
	}
	return c.registry.Catalog(category, includeInactive), nil
}

// ServerInfo returns detailed metadata for one server: discovery data, catalog
// capability, and the registered tools when it is active.
func (c *Coordinator) ServerInfo(ctx context.Context, name string) (ServerInfo, error) {
	if _, err := c.registry.Refresh(ctx, false); err != nil {
		return ServerInfo{}, err
	}
	meta, ok := c.registry.Get(name)
	if !ok {
		return ServerInfo{}, fmt.Errorf("%w: %s", errors.ErrServerNotFound, name)
	}

	info := ServerInfo{Metadata: meta}
	if capa, ok := c.catalog.Get(name); ok {
		info.Capability = &capa
	}
	if active, err := c.status.Status(ctx, name); err == nil && active {
		info.Active = true
		info.Tools = c.router.Tools(name)
	}
	return info, nil
}

// Suggest analyzes a task and reports which servers it needs, without changing
// any state.
func (c *Coordinator) Suggest(ctx context.Context, task string) (Suggestion, error) {
	if task == "" {
		return Suggestion{}, fmt.Errorf("%w: task description is required", errors.ErrBadRequest)
	}
	if _, err := c.registry.Refresh(ctx, false); err != nil {
		c.logger.Warn("Suggesting without fresh discovery data", "error", err)
	}

	suggestion := Suggestion{Analysis: c.analyzer.Analyze(task)}
	if p, ok := c.profiles.Detect(task); ok {
		suggestion.Profile = p.Name
	}

	activeNow := c.router.Servers()
	for _, server := range suggestion.Analysis.RequiredServers {
		if slices.Contains(activeNow, server) {
			suggestion.AlreadyActive = append(suggestion.AlreadyActive, server)
		}
	}
	return suggestion, nil
}

// Activate enables the given servers and registers their tools. Servers that
// are already active are reported as such and not re-enabled. includeRelated
// expands each server's catalog companions into the batch; callers opt out
// explicitly. The reason is recorded on every activation event.
func (c *Coordinator) Activate(ctx context.Context, servers []string, includeRelated bool, reason string) (ActivationResult, error) {
	if len(servers) == 0 {
		return ActivationResult{}, fmt.Errorf("%w: at least one server is required", errors.ErrBadRequest)
	}
	targets := c.expandRelated(servers, includeRelated)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activateLocked(ctx, targets, reason), nil
}

// expandRelated resolves the activation set, keeping request order and
// appending catalog companions once each.
func (c *Coordinator) expandRelated(servers []string, includeRelated bool) []string {
	seen := make(map[string]struct{})
	targets := make([]string, 0, len(servers))
	add := func(server string) {
		if _, ok := seen[server]; !ok {
			seen[server] = struct{}{}
			targets = append(targets, server)
		}
	}
	for _, server := range servers {
		add(server)
		if !includeRelated {
			continue
		}
		if capa, ok := c.catalog.Get(server); ok {
			for _, related := range capa.RelatedServers {
				add(related)
			}
		}
	}
	return targets
}

func (c *Coordinator) activateLocked(ctx context.Context, servers []string, reason string) ActivationResult {
	result := ActivationResult{
		Activated: make([]string, 0, len(servers)),
		Failed:    make(map[string]string),
	}

	for _, server := range servers {
		started := time.Now()

		active, err := c.status.Status(ctx, server)
		if err != nil {
			result.Failed[server] = err.Error()
			c.recorder.Record(telemetry.EventActivate, server, false, time.Since(started), reason, err.Error())
			continue
		}
		if active && len(c.router.Tools(server)) > 0 {
			result.AlreadyActive = append(result.AlreadyActive, server)
			continue
		}

		if !active {
			if err := c.backend.Enable(ctx, server); err != nil {
				result.Failed[server] = err.Error()
				c.recorder.Record(telemetry.EventActivate, server, false, time.Since(started), reason, err.Error())
				continue
			}
			c.status.MarkActive(server, true)
		}

		tools, err := c.backend.ListTools(ctx, server)
		if err != nil {
			c.logger.Warn("Activated server but could not list tools", "server", server, "error", err)
		}
		c.router.Register(server, tools)
		c.monitor.TrackActivation(server)

		result.Activated = append(result.Activated, server)
		result.ToolCount += len(tools)
		c.recorder.Record(telemetry.EventActivate, server, true, time.Since(started), reason, "")
		c.logger.Info("Activated server", "server", server, "reason", reason, "tools", len(tools))
	}

	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result
}

// ActivateProfile activates every server in a named profile, along with the
// catalog companions those servers declare.
func (c *Coordinator) ActivateProfile(ctx context.Context, name string) (ActivationResult, error) {
	p, err := c.profiles.Get(name)
	if err != nil {
		return ActivationResult{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activateLocked(ctx, c.expandRelated(p.Servers, true), "profile: "+name), nil
}

// ActivateForTask analyzes a task and activates the servers it needs.
//
// A detected auto-activatable profile takes the fast path and skips scoring.
// Otherwise the analysis' activation order is walked, dependencies first, but
// only when confidence reaches the auto-activation threshold; below it the
// caller gets the suggestion back with no state change.
func (c *Coordinator) ActivateForTask(ctx context.Context, task string) (TaskActivation, error) {
	suggestion, err := c.Suggest(ctx, task)
	if err != nil {
		return TaskActivation{}, err
	}
	out := TaskActivation{Suggestion: suggestion}

	reason := "task: " + task
	if suggestion.Profile != "" {
		if p, err := c.profiles.Get(suggestion.Profile); err == nil && p.AutoActivate {
			c.mu.Lock()
			result := c.activateLocked(ctx, c.expandRelated(p.Servers, true), reason)
			c.mu.Unlock()
			out.Activation = &result
			return out, nil
		}
	}

	if len(suggestion.Analysis.RequiredServers) == 0 ||
		suggestion.Analysis.Confidence < analyzer.AutoActivateThreshold {
		return out, nil
	}

	c.mu.Lock()
	result := c.activateLocked(ctx, c.expandRelated(suggestion.Analysis.ActivationOrder, true), reason)
	c.mu.Unlock()
	out.Activation = &result
	return out, nil
}

// Deactivate disables the given servers and removes their tools from the
// index. An empty list deactivates every server the coordinator is tracking.
func (c *Coordinator) Deactivate(ctx context.Context, servers []string) (DeactivationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(servers) == 0 {
		servers = c.router.Servers()
	}

	result := DeactivationResult{
		Deactivated: make([]string, 0, len(servers)),
		Failed:      make(map[string]string),
	}
	for _, server := range servers {
		started := time.Now()
		if err := c.backend.Disable(ctx, server); err != nil {
			result.Failed[server] = err.Error()
			c.recorder.Record(telemetry.EventDeactivate, server, false, time.Since(started), "", err.Error())
			continue
		}
		c.router.Unregister(server)
		c.status.MarkActive(server, false)
		c.monitor.TrackDeactivation(server)
		result.Deactivated = append(result.Deactivated, server)
		c.recorder.Record(telemetry.EventDeactivate, server, true, time.Since(started), "", "")
		c.logger.Info("Deactivated server", "server", server)
	}

	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result, nil
}

// CallTool routes a tool call to its owning server and tracks the usage.
func (c *Coordinator) CallTool(ctx context.Context, tool string, args map[string]any) (map[string]any, error) {
	started := time.Now()
	server, _ := c.router.Owner(tool)

	result, err := c.router.Call(ctx, tool, args)
	if err != nil {
		c.recorder.Record(telemetry.EventToolCall, server, false, time.Since(started), "", err.Error())
		return nil, err
	}

	c.monitor.TrackToolUse(server, tool)
	c.recorder.Record(telemetry.EventToolCall, server, true, time.Since(started), "", "")
	return result, nil
}

// Status summarizes the current orchestration state from local bookkeeping,
// without a backend round trip.
func (c *Coordinator) Status(_ context.Context) (StatusReport, error) {
	stats := c.monitor.Usage()
	return StatusReport{
		ActiveServers:   c.router.Servers(),
		ToolCount:       c.router.ToolCount(),
		EstimatedTokens: stats.EstimatedTokenCost,
		Usage:           stats,
		LastDiscovery:   c.registry.LastRefreshed(),
	}, nil
}

// Monitor reports usage stats plus which servers are idle enough to deactivate.
func (c *Coordinator) Monitor(_ context.Context) (MonitorReport, error) {
	recommendations := c.monitor.RecommendDeactivation()
	return MonitorReport{
		Usage:                  c.monitor.Usage(),
		RecommendDeactivation:  recommendations,
		EstimatedTokensSavable: len(recommendations) * usage.TokensPerServer,
	}, nil
}

// Sync reconciles local bookkeeping against the backend's actual state. The
// backend is authoritative: servers it reports active are adopted, servers it
// no longer reports are dropped from the tool index.
func (c *Coordinator) Sync(ctx context.Context) (SyncResult, error) {
	started := time.Now()

	if _, err := c.registry.Refresh(ctx, true); err != nil {
		c.recorder.Record(telemetry.EventSync, "", false, time.Since(started), "", err.Error())
		return SyncResult{}, err
	}
	active, err := c.backend.ActiveServers(ctx)
	if err != nil {
		c.recorder.Record(telemetry.EventSync, "", false, time.Since(started), "", err.Error())
		return SyncResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.InvalidateAll()
	result := SyncResult{
		Added:   make([]string, 0),
		Removed: make([]string, 0),
		Active:  active,
	}
	sort.Strings(result.Active)

	tracked := c.router.Servers()
	for _, server := range active {
		if !slices.Contains(tracked, server) {
			c.adoptLocked(ctx, server)
			result.Added = append(result.Added, server)
		} else {
			c.status.MarkActive(server, true)
		}
	}
	for _, server := range tracked {
		if !slices.Contains(active, server) {
			c.router.Unregister(server)
			c.status.MarkActive(server, false)
			c.monitor.TrackDeactivation(server)
			result.Removed = append(result.Removed, server)
		}
	}

	c.recorder.Record(telemetry.EventSync, "", true, time.Since(started), "", "")
	c.logger.Info("Synced with backend", "active", len(active), "added", len(result.Added), "removed", len(result.Removed))
	return result, nil
}

// Optimize deactivates the idle servers the monitor recommends, minus any the
// caller wants to keep.
func (c *Coordinator) Optimize(ctx context.Context, keep []string) (OptimizeResult, error) {
	candidates := make([]string, 0)
	for _, server := range c.monitor.RecommendDeactivation() {
		if slices.Contains(keep, server) {
			continue
		}
		candidates = append(candidates, server)
	}

	result := OptimizeResult{
		Deactivated: make([]string, 0, len(candidates)),
		Kept:        keep,
	}
	if len(candidates) == 0 {
		return result, nil
	}

	deactivation, err := c.Deactivate(ctx, candidates)
	if err != nil {
		return OptimizeResult{}, err
	}
	result.Deactivated = deactivation.Deactivated
	result.TokensSaved = len(deactivation.Deactivated) * usage.TokensPerServer
	return result, nil
}

// Events returns recent orchestration events, newest first.
func (c *Coordinator) Events(limit int) []telemetry.Event {
	return c.recorder.Events(limit)
}

// Telemetry returns the aggregate event summary.
func (c *Coordinator) Telemetry() telemetry.Summary {
	return c.recorder.Stats()
}

// IsNotFound reports whether the error maps to a missing resource.
func IsNotFound(err error) bool {
	return goerrors.Is(err, errors.ErrServerNotFound) ||
		goerrors.Is(err, errors.ErrToolNotFound) ||
		goerrors.Is(err, errors.ErrProfileNotFound)
}
