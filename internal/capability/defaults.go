package capability

// defaultCapabilities is the built-in minimal catalog used when no YAML catalog is
// available. It covers the commonly shipped capability servers so that ranking
// still produces sensible recommendations out of the box.
func defaultCapabilities() map[string]Capability {
	defaults := []Capability{
		{
			Name:    "context7",
			Purpose: "Up-to-date library documentation",
			Technologies: []string{
				"redis", "postgres", "fastapi", "django", "react", "vue",
				"kubernetes", "sqlalchemy", "pytest", "celery", "docker",
				"nginx", "python", "javascript", "typescript", "node",
				"express", "flask", "tornado", "aiohttp", "requests",
				"pandas", "numpy", "tensorflow", "pytorch", "opencv",
			},
			WhenToUse:        "BEFORE writing code - get current API docs",
			ToolsPreview:     []string{"resolve-library-id", "get-library-docs"},
			AutoActivateWith: []string{"redis", "postgres", "playwright", "github"},
		},
		{
			Name:           "redis",
			Purpose:        "Redis database operations",
			Technologies:   []string{"caching", "sessions", "pub/sub", "queues", "locks"},
			WhenToUse:      "Direct Redis commands and data management",
			ToolsPreview:   []string{"redis_get", "redis_set", "redis_del", "redis_keys"},
			RelatedServers: []string{"context7"},
		},
		{
			Name:           "postgres",
			Purpose:        "PostgreSQL database access",
			Technologies:   []string{"sql", "database", "queries", "postgresql"},
			WhenToUse:      "Database queries and schema operations",
			ToolsPreview:   []string{"query"},
			RelatedServers: []string{"context7"},
		},
		{
			Name:           "playwright",
			Purpose:        "Browser automation",
			Technologies:   []string{"browser", "screenshots", "scraping", "testing", "e2e"},
			WhenToUse:      "Web interaction, JS-heavy sites, E2E testing",
			ToolsPreview:   []string{"browser_navigate", "browser_screenshot", "browser_click"},
			RelatedServers: []string{"context7"},
		},
		{
			Name:           "github",
			Purpose:        "GitHub integration",
			Technologies:   []string{"git", "github", "repository", "issues", "prs"},
			WhenToUse:      "GitHub API operations, issues, PRs, code search",
			ToolsPreview:   []string{"create_issue", "create_pull_request", "search_repositories"},
			RelatedServers: []string{"context7"},
		},
		{
			Name:           "fetch",
			Purpose:        "HTTP client for web requests",
			Technologies:   []string{"http", "api", "fetch", "download", "requests"},
			WhenToUse:      "Simple HTTP requests, API calls",
			ToolsPreview:   []string{"fetch"},
			RelatedServers: []string{"context7"},
		},
		{
			Name:         "desktop-commander",
			Purpose:      "Desktop automation and file system",
			Technologies: []string{"file", "folder", "directory", "command", "shell"},
			WhenToUse:    "File management, command execution, process control",
			ToolsPreview: []string{"read_file", "write_file", "execute_command"},
		},
		{
			Name:         "sequential-thinking",
			Purpose:      "Structured problem-solving through sequential reasoning",
			Technologies: []string{"reasoning", "planning", "analysis", "thinking"},
			WhenToUse:    "Complex multi-step analysis and planning",
			ToolsPreview: []string{"think", "analyze", "plan"},
		},
	}

	capabilities := make(map[string]Capability, len(defaults))
	for _, capa := range defaults {
		capabilities[capa.Name] = capa
	}
	return capabilities
}
