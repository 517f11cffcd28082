package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResult marshals a response payload into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// stringSlice extracts a string array argument; non-string elements are skipped.
func stringSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (s *Server) handleListServers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := request.GetString("category", "")
	includeInactive := request.GetBool("include_inactive", true)
	refresh := request.GetBool("refresh", false)

	servers, err := s.orchestrator.ListServers(ctx, category, includeInactive, refresh)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(servers)
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("server")
	if err != nil {
		return mcp.NewToolResultError("server argument is required"), nil
	}

	info, err := s.orchestrator.ServerInfo(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(info)
}

func (s *Server) handleSuggest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := request.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError("task argument is required"), nil
	}

	suggestion, err := s.orchestrator.Suggest(ctx, task)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(suggestion)
}

func (s *Server) handleActivate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	servers := stringSlice(request.GetArguments(), "servers")
	if len(servers) == 0 {
		return mcp.NewToolResultError("servers argument is required"), nil
	}
	includeRelated := request.GetBool("include_related", true)
	reason := request.GetString("reason", "")

	result, err := s.orchestrator.Activate(ctx, servers, includeRelated, reason)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleActivateForTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := request.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError("task argument is required"), nil
	}

	result, err := s.orchestrator.ActivateForTask(ctx, task)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleActivateProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError("profile argument is required"), nil
	}

	result, err := s.orchestrator.ActivateProfile(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleDeactivate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	servers := stringSlice(request.GetArguments(), "servers")

	result, err := s.orchestrator.Deactivate(ctx, servers)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleCallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tool, err := request.RequireString("tool")
	if err != nil {
		return mcp.NewToolResultError("tool argument is required"), nil
	}

	var args map[string]any
	if raw := request.GetArguments()["arguments"]; raw != nil {
		if m, ok := raw.(map[string]any); ok {
			args = m
		} else {
			return mcp.NewToolResultError("arguments must be a JSON object"), nil
		}
	}

	result, err := s.orchestrator.CallTool(ctx, tool, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.orchestrator.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) handleMonitor(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.orchestrator.Monitor(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) handleSync(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.orchestrator.Sync(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleOptimize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keep := stringSlice(request.GetArguments(), "keep")

	result, err := s.orchestrator.Optimize(ctx, keep)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleEvents(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)
	return jsonResult(s.orchestrator.Events(limit))
}
