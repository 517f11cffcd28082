//go:build docsgen_api
// +build docsgen_api

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/orchd-ai/orchd/internal/api"
	internalcmd "github.com/orchd-ai/orchd/internal/cmd"
	"github.com/orchd-ai/orchd/internal/discover"
	"github.com/orchd-ai/orchd/internal/orchestrator"
	"github.com/orchd-ai/orchd/internal/telemetry"
)

// stubOrchestrator provides a stub implementation for documentation generation.
type stubOrchestrator struct{}

func (s *stubOrchestrator) ListServers(context.Context, string, bool, bool) ([]discover.ServerMetadata, error) {
	return nil, nil
}

func (s *stubOrchestrator) ServerInfo(context.Context, string) (orchestrator.ServerInfo, error) {
	return orchestrator.ServerInfo{}, nil
}

func (s *stubOrchestrator) Activate(context.Context, []string, bool, string) (orchestrator.ActivationResult, error) {
	return orchestrator.ActivationResult{}, nil
}

func (s *stubOrchestrator) ActivateProfile(context.Context, string) (orchestrator.ActivationResult, error) {
	return orchestrator.ActivationResult{}, nil
}

func (s *stubOrchestrator) ActivateForTask(context.Context, string) (orchestrator.TaskActivation, error) {
	return orchestrator.TaskActivation{}, nil
}

func (s *stubOrchestrator) Deactivate(context.Context, []string) (orchestrator.DeactivationResult, error) {
	return orchestrator.DeactivationResult{}, nil
}

func (s *stubOrchestrator) Suggest(context.Context, string) (orchestrator.Suggestion, error) {
	return orchestrator.Suggestion{}, nil
}

func (s *stubOrchestrator) CallTool(context.Context, string, map[string]any) (map[string]any, error) {
	return nil, nil
}

func (s *stubOrchestrator) Status(context.Context) (orchestrator.StatusReport, error) {
	return orchestrator.StatusReport{}, nil
}

func (s *stubOrchestrator) Monitor(context.Context) (orchestrator.MonitorReport, error) {
	return orchestrator.MonitorReport{}, nil
}

func (s *stubOrchestrator) Sync(context.Context) (orchestrator.SyncResult, error) {
	return orchestrator.SyncResult{}, nil
}

func (s *stubOrchestrator) Optimize(context.Context, []string) (orchestrator.OptimizeResult, error) {
	return orchestrator.OptimizeResult{}, nil
}

func (s *stubOrchestrator) Events(int) []telemetry.Event { return nil }

func (s *stubOrchestrator) Telemetry() telemetry.Summary { return telemetry.Summary{} }

// main generates the OpenAPI specification for the orchd API.
// It assumes it is run from the repository root.
func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "orchd.docsgen.api",
		Level:  hclog.Info,
		Output: os.Stderr,
	})

	// Output path for the OpenAPI spec, relative to the repository root.
	outputPath := "./docs/api/openapi.yaml"

	// Create a chi router (same as the daemon).
	mux := chi.NewMux()
	mux.Use(middleware.StripSlashes)

	// Create Huma config and router (same as the daemon).
	config := huma.DefaultConfig("orchd docs", internalcmd.Version())
	router := humachi.New(mux, config)

	// Register routes using a stub orchestrator.
	// The OpenAPI spec generation only needs the route definitions, not the actual handlers.
	stub := &stubOrchestrator{}
	v1 := huma.NewGroup(router, "/api/v1")
	api.RegisterHealthRoutes(v1, stub, "/health")
	api.RegisterServerRoutes(v1, stub, stub, "/servers")
	api.RegisterActivationRoutes(v1, stub, "/servers")
	api.RegisterTaskRoutes(v1, stub, stub, "/tasks")
	api.RegisterToolRoutes(v1, stub, "/tools")
	api.RegisterStatusRoutes(v1, stub, "")

	logger.Info("Routes registered", "prefix", "/api/v1")

	// Get the OpenAPI spec as YAML.
	yamlBytes, err := router.OpenAPI().YAML()
	if err != nil {
		logger.Error("failed to generate OpenAPI YAML", "error", err)
		os.Exit(1)
	}

	// Ensure the docs directory exists.
	docsDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		logger.Error("failed to create docs directory", "path", docsDir, "error", err)
		os.Exit(1)
	}

	// Write the YAML to the output file.
	if err := os.WriteFile(outputPath, yamlBytes, 0o644); err != nil {
		logger.Error("failed to write OpenAPI spec", "path", outputPath, "error", err)
		os.Exit(1)
	}

	logger.Info("OpenAPI spec generated", "path", outputPath, "size", fmt.Sprintf("%d bytes", len(yamlBytes)))
}
