package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orchd-ai/orchd/internal/errors"
)

// parseServerList decodes the various shapes the CLI emits for name lists.
// Accepted JSON forms: a list of strings, a list of objects with a name-ish key,
// or an object wrapping one of those under "servers"/"enabled"/"active"/"secrets"/"items".
// Non-JSON output falls back to tabular parsing.
func parseServerList(out []byte) ([]string, error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return []string{}, nil
	}

	var data any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return parseTabularNames(trimmed), nil
	}

	switch v := data.(type) {
	case []any:
		return namesFromList(v)
	case map[string]any:
		for _, key := range []string{"servers", "enabled", "active", "secrets", "items"} {
			nested, ok := v[key]
			if !ok {
				continue
			}
			switch n := nested.(type) {
			case []any:
				return namesFromList(n)
			case map[string]any:
				names := make([]string, 0, len(n))
				for name := range n {
					names = append(names, name)
				}
				return names, nil
			}
		}
		return nil, fmt.Errorf("%w: server list object has no recognized key", errors.ErrParseFailed)
	default:
		return nil, fmt.Errorf("%w: unexpected server list shape %T", errors.ErrParseFailed, data)
	}
}

func namesFromList(items []any) ([]string, error) {
	names := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			names = append(names, v)
		case map[string]any:
			for _, key := range []string{"name", "id", "server"} {
				if name, ok := v[key].(string); ok && name != "" {
					names = append(names, name)
					break
				}
			}
		default:
			return nil, fmt.Errorf("%w: unexpected server list element %T", errors.ErrParseFailed, item)
		}
	}
	return names, nil
}

// parseTabularNames extracts the first column of a plain-text table, skipping
// the header row and separators.
func parseTabularNames(out string) []string {
	names := make([]string, 0)
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "NAME") || strings.HasPrefix(line, "-") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names
}

// parseToolList decodes tool descriptors, tolerating both a bare JSON list and an
// object wrapping it under "tools". Non-JSON output falls back to name/description
// pairs parsed from tabular text.
func parseToolList(out []byte) ([]ToolDescriptor, error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return []ToolDescriptor{}, nil
	}

	var direct []ToolDescriptor
	if err := json.Unmarshal([]byte(trimmed), &direct); err == nil {
		return direct, nil
	}

	var wrapped struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err == nil && wrapped.Tools != nil {
		return wrapped.Tools, nil
	}

	if json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("%w: unexpected tool list shape", errors.ErrParseFailed)
	}

	tools := make([]ToolDescriptor, 0)
	for line := range strings.Lines(trimmed) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "TOOL") || strings.HasPrefix(line, "-") {
			continue
		}
		name, description, _ := strings.Cut(line, " ")
		tools = append(tools, ToolDescriptor{
			Name:        name,
			Description: strings.TrimSpace(description),
		})
	}
	return tools, nil
}

// parseToolResult decodes a tool call response. Plain-text responses are wrapped,
// error payloads are surfaced with the taxonomy preserved, and list or primitive
// results are normalized into a map.
func parseToolResult(tool string, out []byte) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response calling tool '%s'", errors.ErrParseFailed, tool)
	}

	var data any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return map[string]any{"result": trimmed, "type": "text"}, nil
	}

	switch v := data.(type) {
	case map[string]any:
		if errVal, ok := v["error"]; ok {
			msg := fmt.Sprintf("%v", errVal)
			if isNotFoundMessage(msg) {
				return nil, fmt.Errorf("%w: %s", errors.ErrToolNotFound, tool)
			}
			return nil, fmt.Errorf("%w: tool '%s': %s", errors.ErrCommandFailed, tool, msg)
		}
		return v, nil
	case []any:
		return map[string]any{"results": v, "type": "list"}, nil
	default:
		return map[string]any{"result": v, "type": "primitive"}, nil
	}
}
