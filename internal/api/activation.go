package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/orchd-ai/orchd/internal/contracts"
	"github.com/orchd-ai/orchd/internal/orchestrator"
)

// ActivateRequest represents the incoming API request to activate servers.
// Related catalog companions are included unless the caller opts out.
type ActivateRequest struct {
	Body struct {
		Servers        []string `doc:"Servers to activate" example:"redis,postgres" json:"servers"`
		IncludeRelated bool     `default:"true" doc:"Also activate related catalog companions" json:"include_related"`
		Reason         string   `doc:"Why the servers are being activated" example:"debugging session" json:"reason,omitempty"`
	}
}

// ActivateResponse represents the wrapped API response for an activation batch.
type ActivateResponse struct {
	Body orchestrator.ActivationResult
}

// DeactivateRequest represents the incoming API request to deactivate servers.
type DeactivateRequest struct {
	Body struct {
		Servers []string `doc:"Servers to deactivate, empty for all" example:"redis" json:"servers,omitempty"`
	}
}

// DeactivateResponse represents the wrapped API response for a deactivation batch.
type DeactivateResponse struct {
	Body orchestrator.DeactivationResult
}

// ActivateProfileRequest represents the incoming API request to activate a profile.
type ActivateProfileRequest struct {
	Name string `doc:"Name of the profile to activate" example:"web-development" path:"name"`
}

// RegisterActivationRoutes sets up the activation API endpoints.
func RegisterActivationRoutes(routerAPI huma.API, activator contracts.Activator, apiPathPrefix string) {
	activationAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Activation"}

	huma.Register(
		activationAPI,
		huma.Operation{
			OperationID: "activateServers",
			Method:      http.MethodPost,
			Path:        "/activate",
			Summary:     "Activate servers",
			Tags:        tags,
		},
		func(ctx context.Context, input *ActivateRequest) (*ActivateResponse, error) {
			result, err := activator.Activate(ctx, input.Body.Servers, input.Body.IncludeRelated, input.Body.Reason)
			if err != nil {
				return nil, err
			}
			return &ActivateResponse{Body: result}, nil
		},
	)

	huma.Register(
		activationAPI,
		huma.Operation{
			OperationID: "deactivateServers",
			Method:      http.MethodPost,
			Path:        "/deactivate",
			Summary:     "Deactivate servers",
			Tags:        tags,
		},
		func(ctx context.Context, input *DeactivateRequest) (*DeactivateResponse, error) {
			result, err := activator.Deactivate(ctx, input.Body.Servers)
			if err != nil {
				return nil, err
			}
			return &DeactivateResponse{Body: result}, nil
		},
	)

	huma.Register(
		activationAPI,
		huma.Operation{
			OperationID: "activateProfile",
			Method:      http.MethodPost,
			Path:        "/profiles/{name}/activate",
			Summary:     "Activate a server profile",
			Tags:        tags,
		},
		func(ctx context.Context, input *ActivateProfileRequest) (*ActivateResponse, error) {
			result, err := activator.ActivateProfile(ctx, input.Name)
			if err != nil {
				return nil, err
			}
			return &ActivateResponse{Body: result}, nil
		},
	)
}
