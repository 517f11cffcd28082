package capability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_DefaultsWhenPathEmpty(t *testing.T) {
	t.Parallel()

	c := NewCatalog(hclog.NewNullLogger(), "")

	capa, ok := c.Get("redis")
	require.True(t, ok)
	require.Equal(t, "redis", capa.Name)
	require.Contains(t, capa.Technologies, "caching")
	require.Equal(t, []string{"context7"}, capa.RelatedServers)
}

func TestNewCatalog_DefaultsWhenFileMissing(t *testing.T) {
	t.Parallel()

	c := NewCatalog(hclog.NewNullLogger(), filepath.Join(t.TempDir(), "nope.yaml"))

	_, ok := c.Get("postgres")
	require.True(t, ok)
}

func TestNewCatalog_DefaultsWhenFileMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "capabilities.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers: [not a map"), 0o644))

	c := NewCatalog(hclog.NewNullLogger(), path)

	// Parse failure is never fatal, it falls back to the built-in set.
	_, ok := c.Get("context7")
	require.True(t, ok)
}

func TestNewCatalog_LoadsYAML(t *testing.T) {
	t.Parallel()

	content := `
servers:
  timescale:
    purpose: Time-series database access
    technologies:
      - timescaledb
      - metrics
    when_to_use: Time-series ingestion and queries
    tools_preview:
      - ts_query
    related_servers:
      - context7
`
	path := filepath.Join(t.TempDir(), "capabilities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c := NewCatalog(hclog.NewNullLogger(), path)

	capa, ok := c.Get("timescale")
	require.True(t, ok)
	require.Equal(t, "timescale", capa.Name)
	require.Equal(t, "Time-series database access", capa.Purpose)
	require.Equal(t, []string{"timescaledb", "metrics"}, capa.Technologies)
	require.Equal(t, []string{"context7"}, capa.RelatedServers)

	// The file replaces the defaults entirely.
	_, ok = c.Get("redis")
	require.False(t, ok)
}

func TestCatalog_FindByTechnology(t *testing.T) {
	t.Parallel()

	c := NewCatalog(hclog.NewNullLogger(), "")

	tests := []struct {
		name       string
		technology string
		want       []string
	}{
		{
			name:       "exact match",
			technology: "caching",
			want:       []string{"redis"},
		},
		{
			name:       "case insensitive",
			technology: "SQL",
			want:       []string{"postgres"},
		},
		{
			name:       "shared technology",
			technology: "redis",
			want:       []string{"context7"},
		},
		{
			name:       "substring is not a match",
			technology: "cach",
			want:       []string{},
		},
		{
			name:       "unknown technology",
			technology: "fortran",
			want:       []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, c.FindByTechnology(tc.technology))
		})
	}
}

func TestCatalog_Related(t *testing.T) {
	t.Parallel()

	c := NewCatalog(hclog.NewNullLogger(), "")

	require.Equal(t, []string{"context7"}, c.Related("playwright"))
	require.Nil(t, c.Related("unknown-server"))
}

func TestCatalog_AllIsSorted(t *testing.T) {
	t.Parallel()

	c := NewCatalog(hclog.NewNullLogger(), "")

	all := c.All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Name, all[i].Name)
	}
}
