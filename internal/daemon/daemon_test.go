package daemon

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/orchd-ai/orchd/internal/config"
	"github.com/orchd-ai/orchd/internal/errors"
)

func TestNewDaemon(t *testing.T) {
	t.Parallel()

	t.Run("nil logger rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewDaemon(nil, config.DefaultConfig())
		require.ErrorContains(t, err, "logger cannot be nil")
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.API.Addr = ""
		_, err := NewDaemon(hclog.NewNullLogger(), cfg)
		require.ErrorContains(t, err, "invalid configuration")
	})

	t.Run("defaults build", func(t *testing.T) {
		t.Parallel()

		d, err := NewDaemon(hclog.NewNullLogger(), config.DefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, d)
	})
}

func TestBuildCoordinator_WiresConfiguredProfiles(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Profiles = map[string]config.ProfileConfig{
		"timeseries": {Servers: []string{"timescale"}, Keywords: []string{"timeseries"}},
	}

	coordinator, err := BuildCoordinator(hclog.NewNullLogger(), cfg)
	require.NoError(t, err)

	// The configured profile resolves; activating it fails only at the
	// backend, not at profile lookup.
	_, err = coordinator.ActivateProfile(context.Background(), "timeseries")
	require.NoError(t, err)

	_, err = coordinator.ActivateProfile(context.Background(), "missing")
	require.ErrorIs(t, err, errors.ErrProfileNotFound)
}
