package registry

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/orchd-ai/orchd/internal/discover"
	"github.com/orchd-ai/orchd/internal/errors"
)

type fakeDiscoverer struct {
	calls  atomic.Int64
	result map[string]discover.ServerMetadata
	err    error
}

func (f *fakeDiscoverer) DiscoverAll(_ context.Context) (map[string]discover.ServerMetadata, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}

	// Copy so the registry's override mutation never leaks back into the fixture.
	out := make(map[string]discover.ServerMetadata, len(f.result))
	for k, v := range f.result {
		out[k] = v
	}
	return out, nil
}

func testMetadata() map[string]discover.ServerMetadata {
	return map[string]discover.ServerMetadata{
		"redis": {
			Name:     "redis",
			Category: "database",
			Status:   discover.StatusEnabled,
		},
		"postgres": {
			Name:     "postgres",
			Category: "database",
			Status:   discover.StatusDisabled,
		},
		"playwright": {
			Name:     "playwright",
			Category: "browser",
			Status:   discover.StatusEnabled,
		},
	}
}

func TestRegistry_Refresh_Debounce(t *testing.T) {
	t.Parallel()

	fake := &fakeDiscoverer{result: testMetadata()}
	r := NewRegistry(hclog.NewNullLogger(), fake, nil, time.Hour)

	first, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.EqualValues(t, 1, fake.calls.Load())

	// A second refresh inside the interval serves the snapshot without a
	// discovery round trip.
	second, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, fake.calls.Load())
}

func TestRegistry_Refresh_ForceBypassesDebounce(t *testing.T) {
	t.Parallel()

	fake := &fakeDiscoverer{result: testMetadata()}
	r := NewRegistry(hclog.NewNullLogger(), fake, nil, time.Hour)

	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	_, err = r.Refresh(context.Background(), true)
	require.NoError(t, err)
	require.EqualValues(t, 2, fake.calls.Load())
}

func TestRegistry_Refresh_ExpiredSnapshotRediscovers(t *testing.T) {
	t.Parallel()

	fake := &fakeDiscoverer{result: testMetadata()}
	r := NewRegistry(hclog.NewNullLogger(), fake, nil, time.Millisecond)

	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = r.Refresh(context.Background(), false)
	require.NoError(t, err)
	require.EqualValues(t, 2, fake.calls.Load())
}

func TestRegistry_Refresh_DiscoveryFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	fake := &fakeDiscoverer{result: testMetadata()}
	r := NewRegistry(hclog.NewNullLogger(), fake, nil, time.Hour)

	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	fake.err = fmt.Errorf("%w: backend down", errors.ErrCommandFailed)
	_, err = r.Refresh(context.Background(), true)
	require.ErrorIs(t, err, errors.ErrCommandFailed)

	// The last good snapshot survives the failed refresh.
	require.Len(t, r.Servers(), 3)
}

func TestRegistry_Refresh_AppliesOverrides(t *testing.T) {
	t.Parallel()

	fake := &fakeDiscoverer{result: testMetadata()}
	overrides := map[string]Override{
		"redis":   {Category: "caching", Description: "shared cache"},
		"missing": {Category: "ghost"},
	}
	r := NewRegistry(hclog.NewNullLogger(), fake, overrides, time.Hour)

	result, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	redis := result["redis"]
	require.Equal(t, "caching", redis.Category)
	require.Equal(t, "shared cache", redis.Description)
	require.NotNil(t, redis.ConfigOverride)

	// Overrides for unknown servers are ignored.
	require.NotContains(t, result, "missing")
	// Servers without overrides are untouched.
	require.Equal(t, "database", result["postgres"].Category)
}

func TestRegistry_Catalog(t *testing.T) {
	t.Parallel()

	fake := &fakeDiscoverer{result: testMetadata()}
	r := NewRegistry(hclog.NewNullLogger(), fake, nil, time.Hour)
	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	t.Run("active only sorted by category then name", func(t *testing.T) {
		t.Parallel()

		got := r.Catalog("", false)
		require.Len(t, got, 2)
		require.Equal(t, "playwright", got[0].Name)
		require.Equal(t, "redis", got[1].Name)
	})

	t.Run("include inactive", func(t *testing.T) {
		t.Parallel()

		got := r.Catalog("", true)
		require.Len(t, got, 3)
		require.Equal(t, "playwright", got[0].Name)
		require.Equal(t, "postgres", got[1].Name)
		require.Equal(t, "redis", got[2].Name)
	})

	t.Run("category filter", func(t *testing.T) {
		t.Parallel()

		got := r.Catalog("database", true)
		require.Len(t, got, 2)
		require.Equal(t, "postgres", got[0].Name)
		require.Equal(t, "redis", got[1].Name)
	})

	t.Run("unknown category empty", func(t *testing.T) {
		t.Parallel()

		require.Empty(t, r.Catalog("quantum", true))
	})
}

func TestRegistry_Accessors(t *testing.T) {
	t.Parallel()

	fake := &fakeDiscoverer{result: testMetadata()}
	r := NewRegistry(hclog.NewNullLogger(), fake, nil, time.Hour)

	require.True(t, r.LastRefreshed().IsZero())
	_, ok := r.Get("redis")
	require.False(t, ok)

	_, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)

	require.False(t, r.LastRefreshed().IsZero())
	meta, ok := r.Get("redis")
	require.True(t, ok)
	require.Equal(t, "redis", meta.Name)

	require.Equal(t, []string{"browser", "database"}, r.Categories())
}
