// Package discover queries the backend control plane for the server inventory and
// builds per-server metadata: status, description, category, tool count and auth
// requirements. Per-server failures degrade to minimal metadata instead of failing
// the batch.
package discover

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/orchd-ai/orchd/internal/backend"
)

// Status classifies a server's enablement state as reported by the backend.
type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
	StatusUnknown  Status = "unknown"
)

// maxConcurrentFetches bounds the per-server metadata fan-out against the backend.
const maxConcurrentFetches = 8

// ServerMetadata is the discovery view of one capability server. Instances are
// created wholesale on each discovery pass and never partially mutated afterwards.
type ServerMetadata struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Category       string         `json:"category"`
	ToolCount      int            `json:"tool_count"`
	RequiresAuth   bool           `json:"requires_auth"`
	AuthType       string         `json:"auth_type,omitempty"`
	Status         Status         `json:"status"`
	LastDiscovered time.Time      `json:"last_discovered"`
	ConfigOverride map[string]any `json:"config_override,omitempty"`
}

// categoryRule pairs a category with the keywords that select it. Rules are
// evaluated in order against server name + description; first match wins.
type categoryRule struct {
	category string
	keywords []string
}

// categoryRules reflect common capability-server naming; servers that match none
// fall into "other". Misclassification is possible for unusually named servers
// and is accepted as a reasonable default.
var categoryRules = []categoryRule{
	{category: "database", keywords: []string{"redis", "postgres", "mysql", "mongodb", "sqlite", "db"}},
	{category: "browser", keywords: []string{"playwright", "puppeteer", "selenium", "browser"}},
	{category: "documentation", keywords: []string{"context7", "docs", "readme", "documentation"}},
	{category: "version_control", keywords: []string{"github", "gitlab", "bitbucket", "git"}},
	{category: "networking", keywords: []string{"fetch", "http", "curl", "requests", "api"}},
	{category: "system", keywords: []string{"desktop", "commander", "file", "shell", "command"}},
	{category: "reasoning", keywords: []string{"thinking", "sequential", "planning", "reason"}},
}

// knownAuthServers is the static allow-list consulted when inspect data carries no
// auth information.
var knownAuthServers = map[string]string{
	"github": "oauth",
	"gitlab": "oauth",
}

// Service discovers servers from the backend control plane.
// NewService should be used to create instances of Service.
type Service struct {
	backend backend.ControlPlane
	logger  hclog.Logger
}

// NewService creates a discovery service over the given control plane.
func NewService(logger hclog.Logger, cp backend.ControlPlane) *Service {
	return &Service{
		backend: cp,
		logger:  logger.Named("discover"),
	}
}

// DiscoverAll builds metadata for every server the backend knows about.
//
// Phase one lists the inventory and the active set; an inventory failure aborts
// discovery. Phase two fetches inspect data and tool counts per server
// concurrently; a failure there degrades that one server to minimal metadata
// with StatusUnknown rather than removing it from the result.
func (s *Service) DiscoverAll(ctx context.Context) (map[string]ServerMetadata, error) {
	names, err := s.backend.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	activeSet := make(map[string]struct{})
	statusKnown := true
	active, err := s.backend.ActiveServers(ctx)
	if err != nil {
		s.logger.Warn("Failed to list active servers, statuses will be unknown", "error", err)
		statusKnown = false
	}
	for _, name := range active {
		activeSet[name] = struct{}{}
	}

	var mu sync.Mutex
	result := make(map[string]ServerMetadata, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, name := range names {
		g.Go(func() error {
			meta := s.describe(gctx, name, activeSet, statusKnown)
			mu.Lock()
			result[name] = meta
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // Goroutines degrade failures themselves and never return errors.

	s.logger.Info("Discovery complete", "servers", len(result))
	return result, nil
}

// describe builds metadata for a single server, degrading on partial failure.
func (s *Service) describe(ctx context.Context, name string, activeSet map[string]struct{}, statusKnown bool) ServerMetadata {
	status := StatusUnknown
	if statusKnown {
		if _, ok := activeSet[name]; ok {
			status = StatusEnabled
		} else {
			status = StatusDisabled
		}
	}

	inspectData, err := s.backend.Inspect(ctx, name)
	if err != nil {
		s.logger.Warn("Failed to get metadata for server", "server", name, "error", err)
		return ServerMetadata{Name: name, Category: "other", Status: StatusUnknown}
	}

	description, _ := inspectData["description"].(string)

	toolCount := 0
	if tools, err := s.backend.ListTools(ctx, name); err != nil {
		s.logger.Debug("Failed to count tools for server", "server", name, "error", err)
	} else {
		toolCount = len(tools)
	}

	requiresAuth, authType := detectAuth(name, inspectData)

	return ServerMetadata{
		Name:           name,
		Description:    description,
		Category:       DetectCategory(name, description),
		ToolCount:      toolCount,
		RequiresAuth:   requiresAuth,
		AuthType:       authType,
		Status:         status,
		LastDiscovered: time.Now().UTC(),
	}
}

// DetectCategory classifies a server by testing the ordered keyword rules against
// its name and description. No match yields "other".
func DetectCategory(name, description string) string {
	combined := strings.ToLower(name) + " " + strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(combined, keyword) {
				return rule.category
			}
		}
	}
	return "other"
}

// Categories returns all known category names plus "other", sorted.
func Categories() []string {
	out := make([]string, 0, len(categoryRules)+1)
	for _, rule := range categoryRules {
		out = append(out, rule.category)
	}
	out = append(out, "other")
	sort.Strings(out)
	return out
}

// detectAuth derives auth requirements from inspect data when present, then from
// the known-auth allow-list, and otherwise assumes no auth.
func detectAuth(name string, inspectData map[string]any) (bool, string) {
	for _, key := range []string{"auth", "authentication"} {
		raw, ok := inspectData[key]
		if !ok {
			continue
		}
		if info, ok := raw.(map[string]any); ok {
			for _, typeKey := range []string{"type", "method"} {
				if authType, ok := info[typeKey].(string); ok && authType != "" {
					return true, authType
				}
			}
		}
		return true, "oauth"
	}

	if authType, ok := knownAuthServers[name]; ok {
		return true, authType
	}

	return false, ""
}
