package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/orchd-ai/orchd/internal/contracts"
	"github.com/orchd-ai/orchd/internal/orchestrator"
	"github.com/orchd-ai/orchd/internal/telemetry"
)

// StatusResponse represents the wrapped API response for the status report.
type StatusResponse struct {
	Body orchestrator.StatusReport
}

// MonitorResponse represents the wrapped API response for the usage monitor.
type MonitorResponse struct {
	Body orchestrator.MonitorReport
}

// OptimizeRequest represents the incoming API request to deactivate idle servers.
type OptimizeRequest struct {
	Body struct {
		Keep []string `doc:"Servers to keep active even when idle" example:"redis" json:"keep,omitempty"`
	}
}

// OptimizeResponse represents the wrapped API response for an optimize run.
type OptimizeResponse struct {
	Body orchestrator.OptimizeResult
}

// EventsRequest represents the incoming API request for recent events.
type EventsRequest struct {
	Limit int `doc:"Maximum number of events to return, 0 for all" example:"50" query:"limit" required:"false"`
}

// EventsResponse represents the wrapped API response for recent events.
type EventsResponse struct {
	Body []telemetry.Event
}

// TelemetryResponse represents the wrapped API response for the event summary.
type TelemetryResponse struct {
	Body telemetry.Summary
}

// RegisterStatusRoutes sets up the status and housekeeping API endpoints.
func RegisterStatusRoutes(routerAPI huma.API, reporter contracts.StateReporter, apiPathPrefix string) {
	statusAPI := routerAPI
	if apiPathPrefix != "" {
		statusAPI = huma.NewGroup(routerAPI, apiPathPrefix)
	}
	tags := []string{"Status"}

	huma.Register(
		statusAPI,
		huma.Operation{
			OperationID: "getStatus",
			Method:      http.MethodGet,
			Path:        "/status",
			Summary:     "Get orchestration status",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*StatusResponse, error) {
			report, err := reporter.Status(ctx)
			if err != nil {
				return nil, err
			}
			return &StatusResponse{Body: report}, nil
		},
	)

	huma.Register(
		statusAPI,
		huma.Operation{
			OperationID: "getMonitor",
			Method:      http.MethodGet,
			Path:        "/monitor",
			Summary:     "Get usage stats and idle recommendations",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*MonitorResponse, error) {
			report, err := reporter.Monitor(ctx)
			if err != nil {
				return nil, err
			}
			return &MonitorResponse{Body: report}, nil
		},
	)

	huma.Register(
		statusAPI,
		huma.Operation{
			OperationID: "optimize",
			Method:      http.MethodPost,
			Path:        "/optimize",
			Summary:     "Deactivate idle servers",
			Tags:        tags,
		},
		func(ctx context.Context, input *OptimizeRequest) (*OptimizeResponse, error) {
			result, err := reporter.Optimize(ctx, input.Body.Keep)
			if err != nil {
				return nil, err
			}
			return &OptimizeResponse{Body: result}, nil
		},
	)

	huma.Register(
		statusAPI,
		huma.Operation{
			OperationID: "getEvents",
			Method:      http.MethodGet,
			Path:        "/events",
			Summary:     "Get recent orchestration events",
			Tags:        tags,
		},
		func(_ context.Context, input *EventsRequest) (*EventsResponse, error) {
			return &EventsResponse{Body: reporter.Events(input.Limit)}, nil
		},
	)

	huma.Register(
		statusAPI,
		huma.Operation{
			OperationID: "getTelemetry",
			Method:      http.MethodGet,
			Path:        "/telemetry",
			Summary:     "Get aggregate event stats",
			Tags:        tags,
		},
		func(_ context.Context, _ *struct{}) (*TelemetryResponse, error) {
			return &TelemetryResponse{Body: reporter.Telemetry()}, nil
		},
	)
}
