package profile

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/orchd-ai/orchd/internal/errors"
)

func TestManager_Get(t *testing.T) {
	t.Parallel()

	m := NewManager(hclog.NewNullLogger())

	p, err := m.Get("database")
	require.NoError(t, err)
	require.Equal(t, []string{"postgres", "redis", "context7"}, p.Servers)
	require.True(t, p.AutoActivate)
	require.Equal(t, 3000, p.EstimatedTokens)

	_, err = m.Get("nonexistent")
	require.ErrorIs(t, err, errors.ErrProfileNotFound)
}

func TestManager_All(t *testing.T) {
	t.Parallel()

	m := NewManager(hclog.NewNullLogger())

	all := m.All()
	require.Len(t, all, 6)
	// Sorted by name.
	require.Equal(t, "browser-automation", all[0].Name)
	require.Equal(t, "web-development", all[5].Name)
}

func TestManager_Register(t *testing.T) {
	t.Parallel()

	m := NewManager(hclog.NewNullLogger())
	m.Register(Profile{
		Name:     "timeseries",
		Servers:  []string{"timescale"},
		Keywords: []string{"timeseries", "metrics"},
	})

	p, err := m.Get("timeseries")
	require.NoError(t, err)
	require.Equal(t, []string{"timescale"}, p.Servers)
	require.Len(t, m.All(), 7)
}

func TestManager_Detect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		task    string
		want    string
		wantHit bool
	}{
		{
			name:    "web development",
			task:    "Build a React frontend with a typescript api",
			want:    "web-development",
			wantHit: true,
		},
		{
			name:    "sql work",
			task:    "Optimize this SQL query and its schema",
			want:    "data-science",
			wantHit: true,
		},
		{
			name:    "full stack",
			task:    "Set up the full stack with everything",
			want:    "full-stack",
			wantHit: true,
		},
		{
			name:    "browser automation",
			task:    "Scrape the pricing page and take a screenshot",
			want:    "browser-automation",
			wantHit: true,
		},
		{
			name:    "no match",
			task:    "Compose a haiku about mountains",
			wantHit: false,
		},
	}

	m := NewManager(hclog.NewNullLogger())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p, ok := m.Detect(tc.task)
			require.Equal(t, tc.wantHit, ok)
			if tc.wantHit {
				require.Equal(t, tc.want, p.Name)
			}
		})
	}

	t.Run("first registered profile wins", func(t *testing.T) {
		t.Parallel()

		// "redis" and "database" both belong to the database profile, but
		// data-science is declared earlier and its "data" keyword hits too.
		p, ok := m.Detect("inspect the redis database")
		require.True(t, ok)
		require.Equal(t, "data-science", p.Name)
	})

	t.Run("full stack profile is not auto activated", func(t *testing.T) {
		t.Parallel()

		p, ok := m.Detect("give me everything, the full stack")
		require.True(t, ok)
		require.Equal(t, "full-stack", p.Name)
		require.False(t, p.AutoActivate)
	})

	t.Run("registered profiles detect after the built-ins", func(t *testing.T) {
		t.Parallel()

		m := NewManager(hclog.NewNullLogger())
		m.Register(Profile{
			Name:     "observability",
			Servers:  []string{"prometheus"},
			Keywords: []string{"metrics", "browser"},
		})

		// The built-in web-development profile claims "browser" first.
		p, ok := m.Detect("chart the browser metrics")
		require.True(t, ok)
		require.Equal(t, "web-development", p.Name)

		p, ok = m.Detect("chart the metrics")
		require.True(t, ok)
		require.Equal(t, "observability", p.Name)
	})
}
