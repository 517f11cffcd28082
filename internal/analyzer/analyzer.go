// Package analyzer maps free-form task descriptions to the capability servers
// they need. Scoring is pluggable: a keyword scorer works offline, an embedding
// scorer can be swapped in when vectors are available.
package analyzer

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/orchd-ai/orchd/internal/capability"
	"github.com/orchd-ai/orchd/internal/usage"
)

const (
	// TopK bounds how many scored servers an analysis considers.
	TopK = 5

	// AutoActivateThreshold is the minimum confidence at which callers may
	// activate the required servers without asking.
	AutoActivateThreshold = 0.7

	// keywordConfidence is the fallback confidence when only the keyword pass
	// contributed: a literal technology mention is a strong signal even when
	// the scorer stayed silent.
	keywordConfidence = 0.7
)

// Scored pairs a server with its relevance score for a task, in [0, 1].
type Scored struct {
	Server string  `json:"server"`
	Score  float64 `json:"score"`
}

// Scorer ranks servers by relevance to a task description.
type Scorer interface {
	Match(task string, topK int) []Scored
}

// Analysis is the outcome of analyzing one task description. ActivationOrder
// covers required and recommended servers, dependencies first, so activating
// straight down the list brings companions up before the servers that use them.
type Analysis struct {
	Task                 string   `json:"task"`
	RequiredServers      []string `json:"required_servers"`
	RecommendedServers   []string `json:"recommended_servers,omitempty"`
	ActivationOrder      []string `json:"activation_order"`
	DetectedTechnologies []string `json:"detected_technologies,omitempty"`
	Confidence           float64  `json:"confidence"`
	EstimatedTokens      int      `json:"estimated_tokens"`
}

// Analyzer turns task descriptions into server requirements.
// NewAnalyzer should be used to create instances of Analyzer.
type Analyzer struct {
	logger  hclog.Logger
	scorer  Scorer
	catalog *capability.Catalog
}

// NewAnalyzer creates an analyzer using the given scorer. A nil scorer falls
// back to keyword matching over the catalog.
func NewAnalyzer(logger hclog.Logger, catalog *capability.Catalog, scorer Scorer) *Analyzer {
	if scorer == nil {
		scorer = NewKeywordScorer(catalog)
	}
	return &Analyzer{
		logger:  logger.Named("analyzer"),
		scorer:  scorer,
		catalog: catalog,
	}
}

// Analyze runs two passes over the task and unions them into the required set.
//
// The keyword pass makes a server required whenever one of its catalog
// technologies is named in the task text; a literal mention is authoritative
// and is never demoted by a low score. The semantic pass adds the scorer's top
// hits on top of that. Companions of the required servers are recommended, and
// ActivationOrder lays out the combined set dependencies first. Confidence is
// the mean semantic score, falling back to keywordConfidence when only the
// keyword pass contributed and zero when nothing matched.
func (a *Analyzer) Analyze(task string) Analysis {
	analysis := Analysis{
		Task:               task,
		RequiredServers:    make([]string, 0),
		RecommendedServers: make([]string, 0),
	}
	lowered := strings.ToLower(task)

	required := make(map[string]struct{})
	addRequired := func(server string) {
		if _, ok := required[server]; !ok {
			required[server] = struct{}{}
			analysis.RequiredServers = append(analysis.RequiredServers, server)
		}
	}

	keywordHits := make(map[string]struct{})
	techSeen := make(map[string]struct{})
	for _, c := range a.catalog.All() {
		for _, tech := range c.Technologies {
			if !strings.Contains(lowered, strings.ToLower(tech)) {
				continue
			}
			keywordHits[c.Name] = struct{}{}
			if _, ok := techSeen[tech]; !ok {
				techSeen[tech] = struct{}{}
				analysis.DetectedTechnologies = append(analysis.DetectedTechnologies, tech)
			}
		}
		if _, ok := keywordHits[c.Name]; ok {
			addRequired(c.Name)
		}
	}
	sort.Strings(analysis.DetectedTechnologies)

	scored := a.scorer.Match(task, TopK)
	var scoreSum float64
	for _, hit := range scored {
		if hit.Score <= 0 {
			continue
		}
		addRequired(hit.Server)
		scoreSum += hit.Score
	}

	recommended := make(map[string]struct{})
	for _, server := range analysis.RequiredServers {
		c, ok := a.catalog.Get(server)
		if !ok {
			continue
		}
		// Documentation companions only follow a literal technology mention.
		if _, hit := keywordHits[server]; hit {
			for _, companion := range c.AutoActivateWith {
				recommended[companion] = struct{}{}
			}
		}
		for _, related := range c.RelatedServers {
			recommended[related] = struct{}{}
		}
	}
	for _, server := range analysis.RequiredServers {
		delete(recommended, server)
	}
	for server := range recommended {
		analysis.RecommendedServers = append(analysis.RecommendedServers, server)
	}
	sort.Strings(analysis.RecommendedServers)

	analysis.ActivationOrder = a.activationOrder(
		append(append([]string{}, analysis.RequiredServers...), analysis.RecommendedServers...),
	)

	switch {
	case len(scored) > 0:
		analysis.Confidence = min(scoreSum/float64(len(scored)), 1.0)
	case len(analysis.RequiredServers) > 0:
		analysis.Confidence = keywordConfidence
	}
	analysis.EstimatedTokens = len(analysis.ActivationOrder) * usage.TokensPerServer

	a.logger.Debug("Analyzed task",
		"required", len(analysis.RequiredServers),
		"recommended", len(analysis.RecommendedServers),
		"confidence", analysis.Confidence,
	)
	return analysis
}

// activationOrder sorts the combined server set so that servers others declare
// as dependencies come up first. Relative order is otherwise preserved.
func (a *Analyzer) activationOrder(servers []string) []string {
	inSet := make(map[string]struct{}, len(servers))
	for _, server := range servers {
		inSet[server] = struct{}{}
	}

	dependedOn := make(map[string]struct{})
	for _, server := range servers {
		for _, related := range a.catalog.Related(server) {
			if _, ok := inSet[related]; ok {
				dependedOn[related] = struct{}{}
			}
		}
	}

	order := make([]string, 0, len(servers))
	for _, server := range servers {
		if _, ok := dependedOn[server]; ok {
			order = append(order, server)
		}
	}
	for _, server := range servers {
		if _, ok := dependedOn[server]; !ok {
			order = append(order, server)
		}
	}
	return order
}

// KeywordScorer scores servers by matching catalog technologies and purpose
// words against the task text. Each matched technology contributes 0.5 and
// each matched purpose word 0.3; scores cap at 1.0.
// NewKeywordScorer should be used to create instances of KeywordScorer.
type KeywordScorer struct {
	catalog *capability.Catalog
}

// NewKeywordScorer creates a keyword scorer over the catalog.
func NewKeywordScorer(catalog *capability.Catalog) *KeywordScorer {
	return &KeywordScorer{catalog: catalog}
}

// Match implements Scorer.
func (s *KeywordScorer) Match(task string, topK int) []Scored {
	lowered := strings.ToLower(task)

	scored := make([]Scored, 0)
	for _, c := range s.catalog.All() {
		score := 0.0
		for _, tech := range c.Technologies {
			if strings.Contains(lowered, strings.ToLower(tech)) {
				score += 0.5
			}
		}
		for _, word := range strings.Fields(strings.ToLower(c.Purpose)) {
			if len(word) > 3 && strings.Contains(lowered, word) {
				score += 0.3
			}
		}
		if score > 1.0 {
			score = 1.0
		}
		if score > 0 {
			scored = append(scored, Scored{Server: c.Name, Score: score})
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
