package discover

import (
	"context"
	"fmt"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/orchd-ai/orchd/internal/backend"
	"github.com/orchd-ai/orchd/internal/errors"
)

// fakeBackend implements the subset of backend.ControlPlane that discovery uses.
// Unimplemented methods panic via the embedded interface.
type fakeBackend struct {
	backend.ControlPlane

	inventory    []string
	inventoryErr error
	active       []string
	activeErr    error
	inspect      map[string]map[string]any
	inspectErr   map[string]error
	tools        map[string][]backend.ToolDescriptor
	toolsErr     map[string]error
}

func (f *fakeBackend) ListInventory(_ context.Context) ([]string, error) {
	return f.inventory, f.inventoryErr
}

func (f *fakeBackend) ActiveServers(_ context.Context) ([]string, error) {
	return f.active, f.activeErr
}

func (f *fakeBackend) Inspect(_ context.Context, server string) (map[string]any, error) {
	if err, ok := f.inspectErr[server]; ok {
		return nil, err
	}
	if data, ok := f.inspect[server]; ok {
		return data, nil
	}
	return map[string]any{}, nil
}

func (f *fakeBackend) ListTools(_ context.Context, server string) ([]backend.ToolDescriptor, error) {
	if err, ok := f.toolsErr[server]; ok {
		return nil, err
	}
	return f.tools[server], nil
}

func TestService_DiscoverAll(t *testing.T) {
	t.Parallel()

	fake := &fakeBackend{
		inventory: []string{"redis", "github"},
		active:    []string{"redis"},
		inspect: map[string]map[string]any{
			"redis": {"description": "Redis key-value store"},
		},
		tools: map[string][]backend.ToolDescriptor{
			"redis":  {{Name: "redis_get"}, {Name: "redis_set"}},
			"github": {{Name: "create_issue"}},
		},
	}

	s := NewService(hclog.NewNullLogger(), fake)
	result, err := s.DiscoverAll(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)

	redis := result["redis"]
	require.Equal(t, StatusEnabled, redis.Status)
	require.Equal(t, "database", redis.Category)
	require.Equal(t, 2, redis.ToolCount)
	require.Equal(t, "Redis key-value store", redis.Description)
	require.False(t, redis.RequiresAuth)
	require.False(t, redis.LastDiscovered.IsZero())

	github := result["github"]
	require.Equal(t, StatusDisabled, github.Status)
	require.Equal(t, "version_control", github.Category)
	require.True(t, github.RequiresAuth)
	require.Equal(t, "oauth", github.AuthType)
}

func TestService_DiscoverAll_InventoryFailureAborts(t *testing.T) {
	t.Parallel()

	fake := &fakeBackend{
		inventoryErr: fmt.Errorf("%w: backend down", errors.ErrCommandFailed),
	}

	s := NewService(hclog.NewNullLogger(), fake)
	_, err := s.DiscoverAll(context.Background())
	require.ErrorIs(t, err, errors.ErrCommandFailed)
}

func TestService_DiscoverAll_PerServerFailureDegrades(t *testing.T) {
	t.Parallel()

	fake := &fakeBackend{
		inventory: []string{"redis", "broken"},
		active:    []string{"redis"},
		inspectErr: map[string]error{
			"broken": fmt.Errorf("%w: inspect exploded", errors.ErrCommandFailed),
		},
		tools: map[string][]backend.ToolDescriptor{
			"redis": {{Name: "redis_get"}},
		},
	}

	s := NewService(hclog.NewNullLogger(), fake)
	result, err := s.DiscoverAll(context.Background())
	require.NoError(t, err)

	// The failed server stays in the result with minimal metadata.
	broken, ok := result["broken"]
	require.True(t, ok)
	require.Equal(t, StatusUnknown, broken.Status)
	require.Equal(t, "other", broken.Category)
	require.Zero(t, broken.ToolCount)

	require.Equal(t, StatusEnabled, result["redis"].Status)
}

func TestService_DiscoverAll_ActiveListFailureMakesStatusUnknown(t *testing.T) {
	t.Parallel()

	fake := &fakeBackend{
		inventory: []string{"fetch"},
		activeErr: fmt.Errorf("%w: no daemon", errors.ErrCommandFailed),
	}

	s := NewService(hclog.NewNullLogger(), fake)
	result, err := s.DiscoverAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusUnknown, result["fetch"].Status)
}

func TestDetectCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		server      string
		description string
		want        string
	}{
		{name: "database by name", server: "postgres", want: "database"},
		{name: "database by description", server: "pg", description: "PostgreSQL db access", want: "database"},
		{name: "browser", server: "playwright", want: "browser"},
		{name: "documentation", server: "context7", want: "documentation"},
		{name: "version control", server: "github", want: "version_control"},
		{name: "networking", server: "fetch", want: "networking"},
		{name: "system", server: "desktop-commander", want: "system"},
		{name: "reasoning", server: "sequential-thinking", want: "reasoning"},
		{name: "first rule wins", server: "redis-browser", want: "database"},
		{name: "no match", server: "mysterious", want: "other"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, DetectCategory(tc.server, tc.description))
		})
	}
}

func TestDetectAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		server      string
		inspectData map[string]any
		wantAuth    bool
		wantType    string
	}{
		{
			name:        "auth object with type",
			server:      "custom",
			inspectData: map[string]any{"auth": map[string]any{"type": "api-key"}},
			wantAuth:    true,
			wantType:    "api-key",
		},
		{
			name:        "authentication object with method",
			server:      "custom",
			inspectData: map[string]any{"authentication": map[string]any{"method": "basic"}},
			wantAuth:    true,
			wantType:    "basic",
		},
		{
			name:        "auth present without type defaults to oauth",
			server:      "custom",
			inspectData: map[string]any{"auth": true},
			wantAuth:    true,
			wantType:    "oauth",
		},
		{
			name:        "known auth server fallback",
			server:      "gitlab",
			inspectData: map[string]any{},
			wantAuth:    true,
			wantType:    "oauth",
		},
		{
			name:        "no auth",
			server:      "fetch",
			inspectData: map[string]any{},
			wantAuth:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gotAuth, gotType := detectAuth(tc.server, tc.inspectData)
			require.Equal(t, tc.wantAuth, gotAuth)
			require.Equal(t, tc.wantType, gotType)
		})
	}
}
