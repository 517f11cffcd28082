package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/orchd-ai/orchd/internal/discover"
	"github.com/orchd-ai/orchd/internal/orchestrator"
	"github.com/orchd-ai/orchd/internal/telemetry"
)

// fakeOrchestrator records the arguments handlers pass through.
type fakeOrchestrator struct {
	lastServers        []string
	lastIncludeRelated bool
	lastReason         string
	lastTool           string
	lastArgs           map[string]any
	lastKeep           []string
	lastLimit          int
}

func (f *fakeOrchestrator) ListServers(_ context.Context, category string, includeInactive, _ bool) ([]discover.ServerMetadata, error) {
	if category == "database" {
		return []discover.ServerMetadata{{Name: "redis", Category: "database"}}, nil
	}
	if !includeInactive {
		return nil, nil
	}
	return []discover.ServerMetadata{
		{Name: "fetch", Category: "networking"},
		{Name: "redis", Category: "database"},
	}, nil
}

func (f *fakeOrchestrator) ServerInfo(_ context.Context, name string) (orchestrator.ServerInfo, error) {
	return orchestrator.ServerInfo{Metadata: discover.ServerMetadata{Name: name}}, nil
}

func (f *fakeOrchestrator) Activate(_ context.Context, servers []string, includeRelated bool, reason string) (orchestrator.ActivationResult, error) {
	f.lastServers = servers
	f.lastIncludeRelated = includeRelated
	f.lastReason = reason
	return orchestrator.ActivationResult{Activated: servers}, nil
}

func (f *fakeOrchestrator) ActivateProfile(_ context.Context, name string) (orchestrator.ActivationResult, error) {
	return orchestrator.ActivationResult{Activated: []string{name}}, nil
}

func (f *fakeOrchestrator) ActivateForTask(_ context.Context, task string) (orchestrator.TaskActivation, error) {
	return orchestrator.TaskActivation{}, nil
}

func (f *fakeOrchestrator) Deactivate(_ context.Context, servers []string) (orchestrator.DeactivationResult, error) {
	f.lastServers = servers
	return orchestrator.DeactivationResult{Deactivated: servers}, nil
}

func (f *fakeOrchestrator) Suggest(_ context.Context, task string) (orchestrator.Suggestion, error) {
	return orchestrator.Suggestion{}, nil
}

func (f *fakeOrchestrator) CallTool(_ context.Context, tool string, args map[string]any) (map[string]any, error) {
	f.lastTool = tool
	f.lastArgs = args
	return map[string]any{"result": "ok"}, nil
}

func (f *fakeOrchestrator) Status(_ context.Context) (orchestrator.StatusReport, error) {
	return orchestrator.StatusReport{ActiveServers: []string{"redis"}}, nil
}

func (f *fakeOrchestrator) Monitor(_ context.Context) (orchestrator.MonitorReport, error) {
	return orchestrator.MonitorReport{}, nil
}

func (f *fakeOrchestrator) Sync(_ context.Context) (orchestrator.SyncResult, error) {
	return orchestrator.SyncResult{}, nil
}

func (f *fakeOrchestrator) Optimize(_ context.Context, keep []string) (orchestrator.OptimizeResult, error) {
	f.lastKeep = keep
	return orchestrator.OptimizeResult{}, nil
}

func (f *fakeOrchestrator) Events(limit int) []telemetry.Event {
	f.lastLimit = limit
	return []telemetry.Event{{ID: "abc", Type: telemetry.EventActivate}}
}

func (f *fakeOrchestrator) Telemetry() telemetry.Summary {
	return telemetry.Summary{}
}

func newRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func newTestServer(t *testing.T) (*Server, *fakeOrchestrator) {
	t.Helper()
	fake := &fakeOrchestrator{}
	return NewServer(hclog.NewNullLogger(), fake), fake
}

func TestHandleListServers(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	result, err := s.handleListServers(context.Background(), newRequest(map[string]any{"category": "database"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var servers []discover.ServerMetadata
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &servers))
	require.Len(t, servers, 1)
	require.Equal(t, "redis", servers[0].Name)
}

func TestHandleServerInfo_RequiresServer(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	result, err := s.handleServerInfo(context.Background(), newRequest(nil))
	require.NoError(t, err)
	require.True(t, result.IsError)

	result, err = s.handleServerInfo(context.Background(), newRequest(map[string]any{"server": "redis"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
}

func TestHandleActivate(t *testing.T) {
	t.Parallel()

	s, fake := newTestServer(t)

	result, err := s.handleActivate(context.Background(), newRequest(map[string]any{
		"servers": []any{"redis", "postgres"},
		"reason":  "debugging session",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, []string{"redis", "postgres"}, fake.lastServers)
	// Related companions come along unless the caller opts out.
	require.True(t, fake.lastIncludeRelated)
	require.Equal(t, "debugging session", fake.lastReason)

	_, err = s.handleActivate(context.Background(), newRequest(map[string]any{
		"servers":         []any{"redis"},
		"include_related": false,
	}))
	require.NoError(t, err)
	require.False(t, fake.lastIncludeRelated)
}

func TestHandleActivate_RequiresServers(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	result, err := s.handleActivate(context.Background(), newRequest(nil))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestHandleDeactivate_EmptyIsAllowed(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	result, err := s.handleDeactivate(context.Background(), newRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)
}

func TestHandleCallTool(t *testing.T) {
	t.Parallel()

	s, fake := newTestServer(t)

	result, err := s.handleCallTool(context.Background(), newRequest(map[string]any{
		"tool":      "redis_get",
		"arguments": map[string]any{"key": "session"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, "redis_get", fake.lastTool)
	require.Equal(t, "session", fake.lastArgs["key"])

	result, err = s.handleCallTool(context.Background(), newRequest(map[string]any{
		"tool":      "redis_get",
		"arguments": "not-an-object",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestHandleOptimizeAndEvents(t *testing.T) {
	t.Parallel()

	s, fake := newTestServer(t)

	_, err := s.handleOptimize(context.Background(), newRequest(map[string]any{"keep": []any{"redis"}}))
	require.NoError(t, err)
	require.Equal(t, []string{"redis"}, fake.lastKeep)

	result, err := s.handleEvents(context.Background(), newRequest(map[string]any{"limit": float64(5)}))
	require.NoError(t, err)
	require.Equal(t, 5, fake.lastLimit)

	var events []telemetry.Event
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &events))
	require.Len(t, events, 1)
}
