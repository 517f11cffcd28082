package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/orchd-ai/orchd/internal/contracts"
	"github.com/orchd-ai/orchd/internal/discover"
	"github.com/orchd-ai/orchd/internal/orchestrator"
)

// ServersRequest represents the incoming API request for listing servers.
type ServersRequest struct {
	Category        string `doc:"Only return servers in this category" example:"database" query:"category"         required:"false"`
	IncludeInactive bool   `doc:"Include servers that are not active"  example:"true"     query:"include_inactive" required:"false"`
	Refresh         bool   `doc:"Bypass the discovery cache"           example:"false"    query:"refresh"          required:"false"`
}

// ServersResponse represents the wrapped API response for a list of servers.
type ServersResponse struct {
	Body []discover.ServerMetadata
}

// ServerInfoRequest represents the incoming API request for one server's details.
type ServerInfoRequest struct {
	Name string `doc:"Name of the server to look up" example:"redis" path:"name"`
}

// ServerInfoResponse represents the wrapped API response for one server's details.
type ServerInfoResponse struct {
	Body orchestrator.ServerInfo
}

// SyncResponse represents the wrapped API response for a sync operation.
type SyncResponse struct {
	Body orchestrator.SyncResult
}

// RegisterServerRoutes sets up the server catalog API endpoints.
func RegisterServerRoutes(routerAPI huma.API, catalog contracts.ServerCatalog, reporter contracts.StateReporter, apiPathPrefix string) {
	serversAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Servers"}

	// The list route lives at the root of the group, outside it.
	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "listServers",
			Method:      http.MethodGet,
			Path:        apiPathPrefix,
			Summary:     "List discovered servers",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServersRequest) (*ServersResponse, error) {
			servers, err := catalog.ListServers(ctx, input.Category, input.IncludeInactive, input.Refresh)
			if err != nil {
				return nil, err
			}
			return &ServersResponse{Body: servers}, nil
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "serverInfo",
			Method:      http.MethodGet,
			Path:        "/{name}",
			Summary:     "Get server details",
			Tags:        tags,
		},
		func(ctx context.Context, input *ServerInfoRequest) (*ServerInfoResponse, error) {
			info, err := catalog.ServerInfo(ctx, input.Name)
			if err != nil {
				return nil, err
			}
			return &ServerInfoResponse{Body: info}, nil
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "syncServers",
			Method:      http.MethodPost,
			Path:        "/sync",
			Summary:     "Reconcile state with the backend",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*SyncResponse, error) {
			result, err := reporter.Sync(ctx)
			if err != nil {
				return nil, err
			}
			return &SyncResponse{Body: result}, nil
		},
	)
}
