package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"glmcp/internal/config"
	"glmcp/internal/entities"
	"glmcp/internal/policy"
	"glmcp/internal/registry"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, env map[string]string) (*Server, *registry.Aggregator) {
	t.Helper()
	agg := registry.NewAggregator(entities.All(nil), registry.WithEnvironment(func() map[string]string { return env }))
	cfg := config.GetDefaultConfig().Server
	return New(cfg, "test", agg), agg
}

// rpc sends one JSON-RPC request and decodes the result into out.
func rpc(t *testing.T, s *Server, id int, method string, params any, out any) {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params}
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	resp := s.MCPServer().HandleMessage(context.Background(), raw)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.Nil(t, envelope.Error, "%s failed", method)
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Result, out))
	}
}

type listedTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func listTools(t *testing.T, s *Server) map[string]listedTool {
	t.Helper()
	var result struct {
		Tools []listedTool `json:"tools"`
	}
	rpc(t, s, 2, "tools/list", map[string]any{}, &result)

	tools := make(map[string]listedTool, len(result.Tools))
	for _, tool := range result.Tools {
		tools[tool.Name] = tool
	}
	return tools
}

func initialize(t *testing.T, s *Server, client string) {
	t.Helper()
	rpc(t, s, 1, "initialize", map[string]any{
		"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": client, "version": "1.0.0"},
	}, nil)
}

func TestNew_PublishesRuntimeCatalog(t *testing.T) {
	s, agg := newTestServer(t, map[string]string{entities.GateWiki: "false"})

	assert.ElementsMatch(t, agg.GetAvailableToolNames(), s.PublishedTools())
	tools := listTools(t, s)
	assert.Len(t, tools, 8)
	assert.NotContains(t, tools, "browse_wiki")
}

func TestInitialize_AutoModeSwitchesSchemaShape(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{policy.EnvSchemaMode: "auto"})

	tool := listTools(t, s)["manage_label"]
	assert.NotContains(t, tool.InputSchema, "oneOf", "undetected auto serves flat schemas")
	assert.Contains(t, tool.InputSchema, "properties")

	initialize(t, s, "claude-code")
	tool = listTools(t, s)["manage_label"]
	assert.Contains(t, tool.InputSchema, "oneOf")

	initialize(t, s, "cursor")
	tool = listTools(t, s)["manage_label"]
	assert.NotContains(t, tool.InputSchema, "oneOf")
}

func TestInitialize_FixedModeIgnoresClient(t *testing.T) {
	s, agg := newTestServer(t, map[string]string{policy.EnvSchemaMode: "discriminated"})

	initialize(t, s, "cursor")
	assert.Contains(t, listTools(t, s)["manage_issue"].InputSchema, "oneOf")
	_, _, detected := agg.Resolver().Detected()
	assert.False(t, detected)
}

func TestSyncTools_RemovesWithdrawnTools(t *testing.T) {
	s, agg := newTestServer(t, nil)
	require.Contains(t, s.PublishedTools(), "manage_wiki")

	agg.ReplacePolicy(policy.Load(map[string]string{policy.EnvReadOnlyMode: "true"}))
	s.SyncTools()

	assert.Equal(t, []string{
		"browse_issues", "browse_labels", "browse_merge_requests", "browse_milestones", "browse_wiki",
	}, s.PublishedTools())
	assert.Len(t, listTools(t, s), 5)
}

func TestToolHandler(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{policy.EnvDeniedActions: "manage_label:delete"})

	call := func(name string, args map[string]any) *mcp.CallToolResult {
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		result, err := s.toolHandler(name)(context.Background(), req)
		require.NoError(t, err)
		return result
	}

	text := func(r *mcp.CallToolResult) string {
		require.Len(t, r.Content, 1)
		content, ok := r.Content[0].(mcp.TextContent)
		require.True(t, ok)
		return content.Text
	}

	ok := call("manage_label", map[string]any{"action": "create", "project_id": "g/p", "name": "bug", "color": "#ff0000"})
	assert.False(t, ok.IsError)
	assert.Contains(t, text(ok), `"dryRun": true`)
	assert.Contains(t, text(ok), `"action": "create"`)

	denied := call("manage_label", map[string]any{"action": "delete", "label_id": "bug"})
	assert.True(t, denied.IsError)
	assert.Contains(t, text(denied), "denied")

	invalid := call("manage_label", map[string]any{"action": "create"})
	assert.True(t, invalid.IsError)
	assert.Contains(t, text(invalid), "invalid arguments")

	missing := call("manage_nothing", nil)
	assert.True(t, missing.IsError)
	assert.Equal(t, "Tool manage_nothing is not available", text(missing))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Tool execution failed: boom", errorMessage("x", errors.New("boom")))
	assert.Equal(t, "Tool x is not available", errorMessage("x", fmt.Errorf("wrapped: %w", &registry.NotFoundError{ToolName: "x"})))
}

func TestResultText(t *testing.T) {
	out, err := resultText(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = resultText("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	out, err = resultText(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, out)

	_, err = resultText(make(chan int))
	assert.Error(t, err)
}

func TestRun_UnsupportedTransport(t *testing.T) {
	agg := registry.NewAggregator(entities.All(nil), registry.WithEnvironment(func() map[string]string { return nil }))
	s := New(config.ServerConfig{Name: "glmcp", Transport: "carrier-pigeon"}, "test", agg)

	assert.Error(t, s.Run(context.Background()))
}

func TestRun_StdioStopsWithContext(t *testing.T) {
	agg := registry.NewAggregator(entities.All(nil), registry.WithEnvironment(func() map[string]string { return nil }))

	in, writer := io.Pipe()
	defer writer.Close()

	s := New(config.GetDefaultConfig().Server, "test", agg, WithStdio(in, io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
