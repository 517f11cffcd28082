package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/orchd-ai/orchd/internal/capability"
	"github.com/orchd-ai/orchd/internal/usage"
)

func newCatalog(t *testing.T) *capability.Catalog {
	t.Helper()
	return capability.NewCatalog(hclog.NewNullLogger(), "")
}

// staticScorer returns a canned ranking regardless of the task.
type staticScorer struct {
	scored []Scored
}

func (s staticScorer) Match(string, int) []Scored { return s.scored }

func TestKeywordScorer_Match(t *testing.T) {
	t.Parallel()

	s := NewKeywordScorer(newCatalog(t))

	t.Run("technology hits", func(t *testing.T) {
		t.Parallel()

		scored := s.Match("set up caching and sessions", TopK)
		require.NotEmpty(t, scored)
		require.Equal(t, "redis", scored[0].Server)
		// Two technology hits cap at 1.0.
		require.InDelta(t, 1.0, scored[0].Score, 0.001)
	})

	t.Run("purpose word hits score lower", func(t *testing.T) {
		t.Parallel()

		scored := s.Match("automation work", TopK)
		require.Len(t, scored, 2)
		for _, hit := range scored {
			require.InDelta(t, 0.3, hit.Score, 0.001)
		}
	})

	t.Run("top k bound", func(t *testing.T) {
		t.Parallel()

		// Broad task text hits many catalog entries.
		scored := s.Match("redis postgres react browser github http file reasoning", 3)
		require.Len(t, scored, 3)
	})

	t.Run("no hits", func(t *testing.T) {
		t.Parallel()

		require.Empty(t, s.Match("compose a haiku", TopK))
	})
}

func TestAnalyzer_Analyze(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(hclog.NewNullLogger(), newCatalog(t), nil)

	t.Run("database and caching task", func(t *testing.T) {
		t.Parallel()

		analysis := a.Analyze("add caching with sessions backed by sql database queries")
		require.Contains(t, analysis.RequiredServers, "redis")
		require.Contains(t, analysis.RequiredServers, "postgres")
		require.GreaterOrEqual(t, analysis.Confidence, AutoActivateThreshold)

		require.Contains(t, analysis.DetectedTechnologies, "caching")
		require.Contains(t, analysis.DetectedTechnologies, "sql")

		// The documentation companion both databases depend on comes up first.
		require.Equal(t, []string{"context7", "postgres", "redis"}, analysis.ActivationOrder)
		require.Equal(t, len(analysis.ActivationOrder)*usage.TokensPerServer, analysis.EstimatedTokens)
	})

	t.Run("companions of required servers are recommended", func(t *testing.T) {
		t.Parallel()

		analysis := a.Analyze("build a react component")
		require.Equal(t, []string{"context7"}, analysis.RequiredServers)
		// context7 pairs with its companion servers.
		require.Contains(t, analysis.RecommendedServers, "redis")
		require.Contains(t, analysis.RecommendedServers, "playwright")
		// Required servers never appear in the recommendations.
		require.NotContains(t, analysis.RecommendedServers, "context7")
		require.Equal(t, "context7", analysis.ActivationOrder[0])
	})

	t.Run("semantic hits become required", func(t *testing.T) {
		t.Parallel()

		// No catalog technology is named; the scorer's hits alone carry the set.
		analysis := a.Analyze("automation work")
		require.Equal(t, []string{"desktop-commander", "playwright"}, analysis.RequiredServers)
		require.Equal(t, []string{"context7"}, analysis.RecommendedServers)
		require.InDelta(t, 0.3, analysis.Confidence, 0.001)
		require.Less(t, analysis.Confidence, AutoActivateThreshold)
		require.Equal(t, 3*usage.TokensPerServer, analysis.EstimatedTokens)
	})

	t.Run("no match yields empty analysis", func(t *testing.T) {
		t.Parallel()

		analysis := a.Analyze("compose a haiku")
		require.Empty(t, analysis.RequiredServers)
		require.Empty(t, analysis.RecommendedServers)
		require.Empty(t, analysis.ActivationOrder)
		require.Empty(t, analysis.DetectedTechnologies)
		require.Zero(t, analysis.Confidence)
		require.Zero(t, analysis.EstimatedTokens)
	})
}

func TestAnalyzer_Analyze_TechnologyMentionOverridesScore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "capabilities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
servers:
  alpha:
    purpose: Schema migrations
    technologies: [postgres]
  beta:
    purpose: Issue tracking
    technologies: [tickets]
`), 0o600))
	catalog := capability.NewCatalog(hclog.NewNullLogger(), path)

	// The scorer ranks alpha near the bottom, but the task names its
	// technology outright, so alpha must still land in the required set.
	scorer := staticScorer{scored: []Scored{
		{Server: "beta", Score: 0.9},
		{Server: "alpha", Score: 0.2},
	}}
	a := NewAnalyzer(hclog.NewNullLogger(), catalog, scorer)

	analysis := a.Analyze("migrate the postgres schema")
	require.Contains(t, analysis.RequiredServers, "alpha")
	require.Contains(t, analysis.RequiredServers, "beta")
	require.Equal(t, []string{"postgres"}, analysis.DetectedTechnologies)
	require.InDelta(t, 0.55, analysis.Confidence, 0.001)
}

func TestAnalyzer_Analyze_KeywordOnlyConfidence(t *testing.T) {
	t.Parallel()

	// A silent scorer leaves confidence to the keyword fallback.
	a := NewAnalyzer(hclog.NewNullLogger(), newCatalog(t), staticScorer{})

	analysis := a.Analyze("wire up caching")
	require.Equal(t, []string{"redis"}, analysis.RequiredServers)
	require.InDelta(t, keywordConfidence, analysis.Confidence, 0.001)
}

func TestEmbeddingScorer_Match(t *testing.T) {
	t.Parallel()

	vectors := map[string][]float64{
		"redis":    {1, 0, 0},
		"postgres": {0.5, 0.5, 0},
		"fetch":    {0, 0, 1},
	}

	t.Run("ranks by cosine similarity", func(t *testing.T) {
		t.Parallel()

		embed := func(string) ([]float64, error) { return []float64{1, 0.1, 0}, nil }
		s := NewEmbeddingScorer(hclog.NewNullLogger(), embed, vectors)

		scored := s.Match("cache things", TopK)
		require.Len(t, scored, 2)
		require.Equal(t, "redis", scored[0].Server)
		require.Equal(t, "postgres", scored[1].Server)
		require.Greater(t, scored[0].Score, scored[1].Score)
	})

	t.Run("embed failure degrades to no matches", func(t *testing.T) {
		t.Parallel()

		embed := func(string) ([]float64, error) { return nil, fmt.Errorf("model unavailable") }
		s := NewEmbeddingScorer(hclog.NewNullLogger(), embed, vectors)
		require.Empty(t, s.Match("anything", TopK))
	})
}

func TestCosine(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.0, cosine([]float64{1, 2}, []float64{2, 4}), 0.001)
	require.Zero(t, cosine([]float64{1, 0}, []float64{0, 1}))
	require.Zero(t, cosine([]float64{1}, []float64{1, 2}))
	require.Zero(t, cosine([]float64{0, 0}, []float64{1, 2}))
	require.Zero(t, cosine(nil, nil))
}
