// Package mcpserver exposes the orchestration operations as MCP tools over
// stdio, so AI assistants can manage capability servers through the standard
// MCP protocol.
package mcpserver

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/orchd-ai/orchd/internal/cmd"
	"github.com/orchd-ai/orchd/internal/contracts"
)

// Server bridges the coordinator to MCP clients over stdio.
// NewServer should be used to create instances of Server.
type Server struct {
	logger       hclog.Logger
	orchestrator contracts.Orchestrator
	mcpServer    *server.MCPServer
}

// NewServer creates an MCP server exposing the orchestrator's operations.
func NewServer(logger hclog.Logger, orch contracts.Orchestrator) *Server {
	mcpServer := server.NewMCPServer(
		"orchd",
		cmd.Version(),
		server.WithToolCapabilities(false),
	)

	s := &Server{
		logger:       logger.Named("mcp"),
		orchestrator: orch,
		mcpServer:    mcpServer,
	}
	s.registerTools()

	return s
}

// Start serves MCP over stdio and blocks until the connection closes.
func (s *Server) Start(_ context.Context) error {
	s.logger.Info("Starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// registerTools registers every orchestration operation as an MCP tool.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_servers",
		mcp.WithDescription("List discovered capability servers with metadata"),
		mcp.WithString("category",
			mcp.Description("Only return servers in this category"),
		),
		mcp.WithBoolean("include_inactive",
			mcp.Description("Include servers that are not active (default: true)"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Bypass the discovery cache"),
		),
	), s.handleListServers)

	s.mcpServer.AddTool(mcp.NewTool("server_info",
		mcp.WithDescription("Get detailed metadata, capability and tools for one server"),
		mcp.WithString("server",
			mcp.Required(),
			mcp.Description("Name of the server"),
		),
	), s.handleServerInfo)

	s.mcpServer.AddTool(mcp.NewTool("suggest_servers",
		mcp.WithDescription("Analyze a task description and suggest the servers it needs"),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Free-form description of the task"),
		),
	), s.handleSuggest)

	s.mcpServer.AddTool(mcp.NewTool("activate",
		mcp.WithDescription("Activate servers and register their tools"),
		mcp.WithArray("servers",
			mcp.Required(),
			mcp.Description("Names of the servers to activate"),
		),
		mcp.WithBoolean("include_related",
			mcp.Description("Also activate related catalog companions (default: true)"),
		),
		mcp.WithString("reason",
			mcp.Description("Why the servers are being activated"),
		),
	), s.handleActivate)

	s.mcpServer.AddTool(mcp.NewTool("activate_for_task",
		mcp.WithDescription("Analyze a task and activate the servers it needs"),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Free-form description of the task"),
		),
	), s.handleActivateForTask)

	s.mcpServer.AddTool(mcp.NewTool("activate_profile",
		mcp.WithDescription("Activate every server in a named profile"),
		mcp.WithString("profile",
			mcp.Required(),
			mcp.Description("Name of the profile"),
		),
	), s.handleActivateProfile)

	s.mcpServer.AddTool(mcp.NewTool("deactivate",
		mcp.WithDescription("Deactivate servers and remove their tools; empty list deactivates all"),
		mcp.WithArray("servers",
			mcp.Description("Names of the servers to deactivate"),
		),
	), s.handleDeactivate)

	s.mcpServer.AddTool(mcp.NewTool("call_tool",
		mcp.WithDescription("Call a tool on whichever active server owns it"),
		mcp.WithString("tool",
			mcp.Required(),
			mcp.Description("Name of the tool to call"),
		),
		mcp.WithObject("arguments",
			mcp.Description("Arguments to pass to the tool (as JSON object)"),
		),
	), s.handleCallTool)

	s.mcpServer.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Get active servers, tool count and estimated token cost"),
	), s.handleStatus)

	s.mcpServer.AddTool(mcp.NewTool("monitor",
		mcp.WithDescription("Get per-server usage stats and idle deactivation recommendations"),
	), s.handleMonitor)

	s.mcpServer.AddTool(mcp.NewTool("sync",
		mcp.WithDescription("Reconcile orchestration state with the backend"),
	), s.handleSync)

	s.mcpServer.AddTool(mcp.NewTool("optimize",
		mcp.WithDescription("Deactivate idle servers to reclaim context window"),
		mcp.WithArray("keep",
			mcp.Description("Servers to keep active even when idle"),
		),
	), s.handleOptimize)

	s.mcpServer.AddTool(mcp.NewTool("events",
		mcp.WithDescription("Get recent orchestration events, newest first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events to return, 0 for all"),
		),
	), s.handleEvents)
}
