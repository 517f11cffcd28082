package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/orchd-ai/orchd/internal/contracts"
)

// ToolCallRequest represents the incoming API request to call a tool.
type ToolCallRequest struct {
	Tool string         `doc:"Name of the tool to call" example:"redis_get" path:"tool"`
	Body map[string]any `doc:"Arguments for the tool"`
}

// ToolCallResponse represents the wrapped API response for a tool call.
type ToolCallResponse struct {
	Body map[string]any
}

// RegisterToolRoutes sets up the tool routing API endpoints.
func RegisterToolRoutes(routerAPI huma.API, router contracts.ToolRouter, apiPathPrefix string) {
	toolsAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Tools"}

	huma.Register(
		toolsAPI,
		huma.Operation{
			OperationID: "callTool",
			Method:      http.MethodPost,
			Path:        "/{tool}",
			Summary:     "Call a tool on its owning server",
			Tags:        tags,
		},
		func(ctx context.Context, input *ToolCallRequest) (*ToolCallResponse, error) {
			result, err := router.CallTool(ctx, input.Tool, input.Body)
			if err != nil {
				return nil, err
			}
			return &ToolCallResponse{Body: result}, nil
		},
	)
}
