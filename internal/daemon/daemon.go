package daemon

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/orchd-ai/orchd/internal/analyzer"
	"github.com/orchd-ai/orchd/internal/backend"
	"github.com/orchd-ai/orchd/internal/capability"
	"github.com/orchd-ai/orchd/internal/config"
	"github.com/orchd-ai/orchd/internal/discover"
	"github.com/orchd-ai/orchd/internal/orchestrator"
	"github.com/orchd-ai/orchd/internal/pool"
	"github.com/orchd-ai/orchd/internal/profile"
	"github.com/orchd-ai/orchd/internal/proxy"
	"github.com/orchd-ai/orchd/internal/registry"
	"github.com/orchd-ai/orchd/internal/telemetry"
	"github.com/orchd-ai/orchd/internal/usage"
)

// Daemon runs the orchestration coordinator behind the HTTP API and keeps the
// registry reconciled with the backend in the background.
// NewDaemon should be used to create instances of Daemon.
type Daemon struct {
	logger       hclog.Logger
	coordinator  *orchestrator.Coordinator
	apiServer    *APIServer
	syncInterval time.Duration
}

// NewDaemon assembles the full daemon from configuration.
func NewDaemon(logger hclog.Logger, cfg config.Config) (*Daemon, error) {
	if logger == nil || reflect.ValueOf(logger).IsNil() {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	coordinator, err := BuildCoordinator(logger, cfg)
	if err != nil {
		return nil, err
	}

	deps, err := NewAPIDependencies(logger, coordinator, cfg.API.Addr)
	if err != nil {
		return nil, err
	}
	apiServer, err := NewAPIServer(
		deps,
		WithCORSEnabled(cfg.API.CORS.Enabled),
		WithCORSAllowOrigins(cfg.API.CORS.AllowOrigins),
		corsMethodsOption(cfg.API.CORS.AllowMethods),
		WithCORSAllowCredentials(cfg.API.CORS.AllowCredentials),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon API server: %w", err)
	}

	return &Daemon{
		logger:       logger.Named("daemon"),
		coordinator:  coordinator,
		apiServer:    apiServer,
		syncInterval: cfg.Registry.RefreshInterval.Duration,
	}, nil
}

// corsMethodsOption preserves the option defaults when no methods are configured.
func corsMethodsOption(methods []string) APIOption {
	if len(methods) == 0 {
		return nil
	}
	return WithCORSAllowMethods(methods)
}

// BuildCoordinator constructs the orchestration coordinator and its component
// stack from configuration. It is shared by the HTTP daemon and the MCP server.
func BuildCoordinator(logger hclog.Logger, cfg config.Config) (*orchestrator.Coordinator, error) {
	cp := backend.NewDockerCLI(logger, cfg.Backend.CommandTimeout.Duration)
	catalog := capability.NewCatalog(logger, cfg.Catalog.Path)
	status := pool.NewStatusCache(logger, cp, cfg.Status.TTL.Duration)

	overrides := make(map[string]registry.Override, len(cfg.Registry.Servers))
	for name, o := range cfg.Registry.Servers {
		overrides[name] = registry.Override{Category: o.Category, Description: o.Description}
	}

	profiles := profile.NewManager(logger)
	// Sorted registration keeps first-match detection order stable across runs.
	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := cfg.Profiles[name]
		profiles.Register(profile.Profile{
			Name:            name,
			Description:     p.Description,
			Servers:         p.Servers,
			Keywords:        p.Keywords,
			AutoActivate:    p.AutoActivate,
			EstimatedTokens: p.EstimatedTokens,
		})
	}

	return orchestrator.NewCoordinator(logger, orchestrator.Options{
		Backend:  cp,
		Registry: registry.NewRegistry(logger, discover.NewService(logger, cp), overrides, cfg.Registry.RefreshInterval.Duration),
		Status:   status,
		Router:   proxy.NewRouter(logger, cp, status),
		Catalog:  catalog,
		Analyzer: analyzer.NewAnalyzer(logger, catalog, nil),
		Profiles: profiles,
		Monitor:  usage.NewMonitor(logger, cfg.Usage.IdleTimeout.Duration),
		Recorder: telemetry.NewRecorder(logger, cfg.Telemetry.HistoryLimit),
	})
}

// StartAndManage starts the API server and the background sync loop, blocking
// until the context is canceled or a component fails.
func (d *Daemon) StartAndManage(ctx context.Context) error {
	if err := d.coordinator.Init(ctx); err != nil {
		return fmt.Errorf("daemon initialization failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.apiServer.Start(gctx)
	})
	g.Go(func() error {
		d.syncLoop(gctx)
		return nil
	})
	return g.Wait()
}

// syncLoop periodically reconciles local state against the backend so servers
// enabled or disabled out of band are picked up.
func (d *Daemon) syncLoop(ctx context.Context) {
	if d.syncInterval <= 0 {
		d.syncInterval = registry.DefaultRefreshInterval
	}
	ticker := time.NewTicker(d.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Stopping background sync")
			return
		case <-ticker.C:
			if _, err := d.coordinator.Sync(ctx); err != nil {
				d.logger.Warn("Background sync failed", "error", err)
			}
		}
	}
}
