package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orchd-ai/orchd/internal/errors"
)

func TestParseServerList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr error
	}{
		{
			name:  "empty output",
			input: "",
			want:  []string{},
		},
		{
			name:  "json string list",
			input: `["redis", "postgres"]`,
			want:  []string{"redis", "postgres"},
		},
		{
			name:  "json object list with name key",
			input: `[{"name": "redis"}, {"id": "postgres"}, {"server": "github"}]`,
			want:  []string{"redis", "postgres", "github"},
		},
		{
			name:  "wrapped under servers",
			input: `{"servers": ["redis", "fetch"]}`,
			want:  []string{"redis", "fetch"},
		},
		{
			name:  "wrapped under enabled",
			input: `{"enabled": ["playwright"]}`,
			want:  []string{"playwright"},
		},
		{
			name:  "tabular fallback",
			input: "NAME     STATUS\n-------- ------\nredis    enabled\npostgres disabled\n",
			want:  []string{"redis", "postgres"},
		},
		{
			name:    "unrecognized object",
			input:   `{"foo": "bar"}`,
			wantErr: errors.ErrParseFailed,
		},
		{
			name:    "unexpected scalar",
			input:   `42`,
			wantErr: errors.ErrParseFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseServerList([]byte(tc.input))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.ElementsMatch(t, tc.want, got)
		})
	}
}

func TestParseToolList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []ToolDescriptor
	}{
		{
			name:  "empty output",
			input: "",
			want:  []ToolDescriptor{},
		},
		{
			name:  "bare json list",
			input: `[{"name": "query", "description": "Run SQL"}]`,
			want:  []ToolDescriptor{{Name: "query", Description: "Run SQL"}},
		},
		{
			name:  "wrapped json list",
			input: `{"tools": [{"name": "fetch"}]}`,
			want:  []ToolDescriptor{{Name: "fetch"}},
		},
		{
			name:  "tabular fallback",
			input: "TOOL        DESCRIPTION\n----        -----------\nredis_get   Get a key\nredis_set   Set a key\n",
			want: []ToolDescriptor{
				{Name: "redis_get", Description: "Get a key"},
				{Name: "redis_set", Description: "Set a key"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseToolList([]byte(tc.input))
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseToolList_InputSchemaIsOpaque(t *testing.T) {
	t.Parallel()

	input := `[{"name": "query", "inputSchema": {"type": "object", "properties": {"sql": {"type": "string"}}}}]`

	got, err := parseToolList([]byte(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.JSONEq(t, `{"type": "object", "properties": {"sql": {"type": "string"}}}`, string(got[0].InputSchema))
}

func TestParseToolResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    map[string]any
		wantErr error
	}{
		{
			name:  "object result",
			input: `{"value": "ok"}`,
			want:  map[string]any{"value": "ok"},
		},
		{
			name:  "list result",
			input: `[1, 2]`,
			want:  map[string]any{"results": []any{float64(1), float64(2)}, "type": "list"},
		},
		{
			name:  "primitive result",
			input: `true`,
			want:  map[string]any{"result": true, "type": "primitive"},
		},
		{
			name:  "plain text result",
			input: "all done",
			want:  map[string]any{"result": "all done", "type": "text"},
		},
		{
			name:    "error payload",
			input:   `{"error": "boom"}`,
			wantErr: errors.ErrCommandFailed,
		},
		{
			name:    "not found error payload",
			input:   `{"error": "tool not found"}`,
			wantErr: errors.ErrToolNotFound,
		},
		{
			name:    "empty response",
			input:   "",
			wantErr: errors.ErrParseFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseToolResult("some_tool", []byte(tc.input))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
