package analyzer

import (
	"math"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// EmbedFunc produces an embedding vector for a piece of text.
type EmbedFunc func(text string) ([]float64, error)

// EmbeddingScorer ranks servers by cosine similarity between the task embedding
// and precomputed per-server vectors. Embedding failures degrade to no matches
// so callers can fall back to keyword results upstream.
// NewEmbeddingScorer should be used to create instances of EmbeddingScorer.
type EmbeddingScorer struct {
	logger  hclog.Logger
	embed   EmbedFunc
	vectors map[string][]float64
}

// NewEmbeddingScorer creates an embedding scorer from an embed function and
// per-server vectors built from catalog descriptions.
func NewEmbeddingScorer(logger hclog.Logger, embed EmbedFunc, vectors map[string][]float64) *EmbeddingScorer {
	return &EmbeddingScorer{
		logger:  logger.Named("embedding"),
		embed:   embed,
		vectors: vectors,
	}
}

// Match implements Scorer.
func (s *EmbeddingScorer) Match(task string, topK int) []Scored {
	taskVec, err := s.embed(task)
	if err != nil {
		s.logger.Warn("Failed to embed task, no semantic matches", "error", err)
		return nil
	}

	scored := make([]Scored, 0, len(s.vectors))
	for server, vec := range s.vectors {
		sim := cosine(taskVec, vec)
		if sim > 0 {
			scored = append(scored, Scored{Server: server, Score: sim})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Server < scored[j].Server
	})
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// cosine returns the cosine similarity of two vectors, zero when the lengths
// differ or either vector is all zeros.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
