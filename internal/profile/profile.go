// Package profile defines named server bundles for common workflows and detects
// which bundle a task description calls for.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/orchd-ai/orchd/internal/errors"
)

// Profile is a named bundle of servers activated together.
// AutoActivate gates whether task analysis may activate the bundle without an
// explicit request; large bundles opt out. EstimatedTokens is the rough
// context-window cost of bringing the whole bundle up.
type Profile struct {
	Name            string   `json:"name"             yaml:"name"`
	Description     string   `json:"description"      yaml:"description"`
	Servers         []string `json:"servers"          yaml:"servers"`
	Keywords        []string `json:"keywords"         yaml:"keywords"`
	AutoActivate    bool     `json:"auto_activate"    yaml:"auto_activate"`
	EstimatedTokens int      `json:"estimated_tokens" yaml:"estimated_tokens"`
}

// Manager holds the known profiles. Declaration order matters: Detect walks the
// profiles in the order they were registered and the first keyword hit wins.
// NewManager should be used to create instances of Manager.
type Manager struct {
	logger   hclog.Logger
	profiles map[string]Profile
	order    []string
}

// NewManager creates a manager preloaded with the built-in profiles.
func NewManager(logger hclog.Logger) *Manager {
	m := &Manager{
		logger:   logger.Named("profile"),
		profiles: make(map[string]Profile, len(builtinProfiles)),
		order:    make([]string, 0, len(builtinProfiles)),
	}
	for _, p := range builtinProfiles {
		m.Register(p)
	}
	return m
}

// Get returns the named profile, or errors.ErrProfileNotFound.
func (m *Manager) Get(name string) (Profile, error) {
	p, ok := m.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", errors.ErrProfileNotFound, name)
	}
	return p, nil
}

// All returns every known profile, sorted by name.
func (m *Manager) All() []Profile {
	out := make([]Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Register adds or replaces a profile, typically from configuration. New
// profiles detect after every previously registered one.
func (m *Manager) Register(p Profile) {
	if _, ok := m.profiles[p.Name]; !ok {
		m.order = append(m.order, p.Name)
	}
	m.profiles[p.Name] = p
	m.logger.Debug("Registered profile", "profile", p.Name)
}

// Detect returns the first profile, in registration order, with a keyword
// present in the task description, or false when none matches. First match
// wins even when a later profile would hit more keywords, keeping detection
// stable as profiles are added.
func (m *Manager) Detect(task string) (Profile, bool) {
	lowered := strings.ToLower(task)

	for _, name := range m.order {
		p := m.profiles[name]
		for _, keyword := range p.Keywords {
			if strings.Contains(lowered, keyword) {
				m.logger.Debug("Detected profile for task", "profile", p.Name, "keyword", keyword)
				return p, true
			}
		}
	}
	return Profile{}, false
}

// builtinProfiles cover the workflows that recur in practice, most specific
// first since detection stops at the first keyword hit. The full-stack bundle
// is deliberately not auto-activated: seven servers is too expensive to bring
// up on a keyword guess.
var builtinProfiles = []Profile{
	{
		Name:            "web-development",
		Description:     "Frontend and backend web development",
		Servers:         []string{"playwright", "github", "context7", "fetch"},
		Keywords:        []string{"web", "website", "browser", "frontend", "ui", "html", "css"},
		AutoActivate:    true,
		EstimatedTokens: 4000,
	},
	{
		Name:            "data-science",
		Description:     "Data analysis and database exploration",
		Servers:         []string{"postgres", "redis", "context7"},
		Keywords:        []string{"data", "analysis", "database", "sql", "query", "analytics"},
		AutoActivate:    true,
		EstimatedTokens: 3000,
	},
	{
		Name:            "documentation",
		Description:     "Library documentation lookup and writing docs",
		Servers:         []string{"context7"},
		Keywords:        []string{"documentation", "docs", "api", "reference", "library"},
		AutoActivate:    true,
		EstimatedTokens: 500,
	},
	{
		Name:            "full-stack",
		Description:     "Everything for full-stack application work",
		Servers:         []string{"playwright", "github", "postgres", "redis", "context7", "fetch", "desktop-commander"},
		Keywords:        []string{"full stack", "fullstack", "complete", "all", "everything"},
		AutoActivate:    false,
		EstimatedTokens: 8000,
	},
	{
		Name:            "database",
		Description:     "Relational and key-value database work",
		Servers:         []string{"postgres", "redis", "context7"},
		Keywords:        []string{"database", "db", "sql", "postgres", "redis", "mysql"},
		AutoActivate:    true,
		EstimatedTokens: 3000,
	},
	{
		Name:            "browser-automation",
		Description:     "Browser automation, scraping and UI testing",
		Servers:         []string{"playwright", "context7"},
		Keywords:        []string{"browser", "scraping", "screenshot", "automation", "selenium"},
		AutoActivate:    true,
		EstimatedTokens: 2000,
	},
}
