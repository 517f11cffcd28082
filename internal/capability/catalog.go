// Package capability holds the static catalog describing what each capability
// server is for: purpose, covered technologies, related servers. The catalog is
// the ranking source of truth for the task analyzer; it is immutable after load.
package capability

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Capability describes a single server's declared abilities.
type Capability struct {
	Name             string   `json:"name"               yaml:"-"`
	Purpose          string   `json:"purpose"            yaml:"purpose"`
	Technologies     []string `json:"technologies"       yaml:"technologies"`
	WhenToUse        string   `json:"when_to_use"        yaml:"when_to_use"`
	ToolsPreview     []string `json:"tools_preview"      yaml:"tools_preview"`
	RelatedServers   []string `json:"related_servers"    yaml:"related_servers"`
	AutoActivateWith []string `json:"auto_activate_with" yaml:"auto_activate_with"`
}

// catalogFile is the YAML document shape for a capability catalog.
type catalogFile struct {
	Servers map[string]Capability `yaml:"servers"`
}

// Catalog is a read-only name -> Capability lookup.
// NewCatalog should be used to create instances of Catalog.
type Catalog struct {
	logger       hclog.Logger
	capabilities map[string]Capability
}

// NewCatalog loads the catalog from a YAML file. A missing or unparseable file is
// never fatal: it degrades ranking quality, not correctness, so the built-in
// default set is used instead. An empty path skips the file entirely.
func NewCatalog(logger hclog.Logger, path string) *Catalog {
	c := &Catalog{
		logger:       logger.Named("capability"),
		capabilities: make(map[string]Capability),
	}

	if path != "" {
		if err := c.loadFile(path); err != nil {
			c.logger.Warn("Failed to load capability catalog, using defaults", "path", path, "error", err)
		} else {
			c.logger.Info("Loaded capability catalog", "path", path, "servers", len(c.capabilities))
			return c
		}
	}

	c.capabilities = defaultCapabilities()
	c.logger.Info("Using built-in capability catalog", "servers", len(c.capabilities))
	return c
}

func (c *Catalog) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capability catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse capability catalog: %w", err)
	}
	if len(file.Servers) == 0 {
		return fmt.Errorf("capability catalog contains no servers")
	}

	capabilities := make(map[string]Capability, len(file.Servers))
	for name, capa := range file.Servers {
		capa.Name = name
		capabilities[name] = capa
	}
	c.capabilities = capabilities

	return nil
}

// Get returns the capability for a server.
func (c *Catalog) Get(name string) (Capability, bool) {
	capa, ok := c.capabilities[name]
	return capa, ok
}

// All returns every capability, sorted by server name for deterministic iteration.
func (c *Catalog) All() []Capability {
	out := make([]Capability, 0, len(c.capabilities))
	for _, capa := range c.capabilities {
		out = append(out, capa)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindByTechnology returns the names of servers whose technology set contains an
// exact, case-insensitive match for the given tag.
func (c *Catalog) FindByTechnology(technology string) []string {
	needle := strings.ToLower(strings.TrimSpace(technology))
	matches := make([]string, 0)
	for _, capa := range c.All() {
		for _, tech := range capa.Technologies {
			if strings.ToLower(tech) == needle {
				matches = append(matches, capa.Name)
				break
			}
		}
	}
	return matches
}

// Related returns the declared dependency servers for a server, or nil if the
// server has no capability entry.
func (c *Catalog) Related(name string) []string {
	capa, ok := c.capabilities[name]
	if !ok {
		return nil
	}
	return capa.RelatedServers
}
