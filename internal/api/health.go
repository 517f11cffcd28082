package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/orchd-ai/orchd/internal/contracts"
)

// HealthResponse represents the wrapped API response for the health endpoint.
type HealthResponse struct {
	Body struct {
		Status        string `doc:"Daemon health"            example:"ok" json:"status"`
		ActiveServers int    `doc:"Number of active servers" example:"2"  json:"active_servers"`
		ToolCount     int    `doc:"Number of indexed tools"  example:"7"  json:"tool_count"`
	}
}

// RegisterHealthRoutes sets up the health API endpoint.
func RegisterHealthRoutes(routerAPI huma.API, reporter contracts.StateReporter, apiPathPrefix string) {
	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "getHealth",
			Method:      http.MethodGet,
			Path:        apiPathPrefix,
			Summary:     "Daemon health check",
			Tags:        []string{"Health"},
		},
		func(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
			report, err := reporter.Status(ctx)
			if err != nil {
				return nil, err
			}

			resp := &HealthResponse{}
			resp.Body.Status = "ok"
			resp.Body.ActiveServers = len(report.ActiveServers)
			resp.Body.ToolCount = report.ToolCount
			return resp, nil
		},
	)
}
