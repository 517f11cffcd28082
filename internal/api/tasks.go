package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/orchd-ai/orchd/internal/contracts"
	"github.com/orchd-ai/orchd/internal/orchestrator"
)

// TaskRequest represents the incoming API request carrying a task description.
type TaskRequest struct {
	Body struct {
		Task string `doc:"Free-form description of the task" example:"build a react frontend" json:"task"`
	}
}

// SuggestResponse represents the wrapped API response for a task suggestion.
type SuggestResponse struct {
	Body orchestrator.Suggestion
}

// TaskActivationResponse represents the wrapped API response for task-driven activation.
type TaskActivationResponse struct {
	Body orchestrator.TaskActivation
}

// RegisterTaskRoutes sets up the task analysis API endpoints.
func RegisterTaskRoutes(routerAPI huma.API, advisor contracts.TaskAdvisor, activator contracts.Activator, apiPathPrefix string) {
	tasksAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Tasks"}

	huma.Register(
		tasksAPI,
		huma.Operation{
			OperationID: "suggestServers",
			Method:      http.MethodPost,
			Path:        "/suggest",
			Summary:     "Suggest servers for a task",
			Tags:        tags,
		},
		func(ctx context.Context, input *TaskRequest) (*SuggestResponse, error) {
			suggestion, err := advisor.Suggest(ctx, input.Body.Task)
			if err != nil {
				return nil, err
			}
			return &SuggestResponse{Body: suggestion}, nil
		},
	)

	huma.Register(
		tasksAPI,
		huma.Operation{
			OperationID: "activateForTask",
			Method:      http.MethodPost,
			Path:        "/activate",
			Summary:     "Activate the servers a task needs",
			Tags:        tags,
		},
		func(ctx context.Context, input *TaskRequest) (*TaskActivationResponse, error) {
			result, err := activator.ActivateForTask(ctx, input.Body.Task)
			if err != nil {
				return nil, err
			}
			return &TaskActivationResponse{Body: result}, nil
		},
	)
}
