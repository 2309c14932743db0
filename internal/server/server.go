// Package server exposes the runtime tool catalog over MCP.
//
// The server publishes whatever the registry Aggregator currently offers in
// the effective schema mode. When a client initializes, its name feeds
// schema mode detection and the published tool list is resynchronized, so
// an "auto" deployment serves flat or discriminated schemas to match the
// client. Tool calls go through Aggregator.ExecuteTool.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"glmcp/internal/config"
	"glmcp/internal/registry"
	"glmcp/internal/schema"
	"glmcp/internal/schemamode"
	"glmcp/pkg/logging"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server serves the runtime catalog of an Aggregator.
type Server struct {
	cfg     config.ServerConfig
	version string
	agg     *registry.Aggregator
	mcp     *server.MCPServer

	// stdin and stdout back the stdio transport.
	stdin  io.Reader
	stdout io.Writer

	mu        sync.Mutex
	published map[string]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithStdio replaces the streams of the stdio transport.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.stdin = in
		s.stdout = out
	}
}

// New creates a server and publishes the current runtime catalog.
func New(cfg config.ServerConfig, version string, agg *registry.Aggregator, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		version:   version,
		agg:       agg,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		published: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(s.onInitialize)

	s.mcp = server.NewMCPServer(
		cfg.Name,
		version,
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)

	s.SyncTools()
	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) onInitialize(ctx context.Context, id any, msg *mcp.InitializeRequest, result *mcp.InitializeResult) {
	clientName := msg.Params.ClientInfo.Name
	logging.Info("Server", "Client initialized: %s %s (protocol %s)", clientName, msg.Params.ClientInfo.Version, msg.Params.ProtocolVersion)

	before := s.agg.Resolver().Effective()
	after := s.agg.Resolver().DetectFromClient(clientName)
	if before != after {
		s.SyncTools()
	}
}

// SyncTools publishes the runtime catalog in the effective schema mode,
// removing tools that are no longer offered.
func (s *Server) SyncTools() {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs := s.agg.GetAllToolDefinitions()
	tools := make([]server.ServerTool, 0, len(defs))
	current := make(map[string]struct{}, len(defs))

	for _, def := range defs {
		tool, err := toMCPTool(def)
		if err != nil {
			logging.Error("Server", err, "Skipping tool %s", def.Name)
			continue
		}
		tools = append(tools, server.ServerTool{
			Tool:    tool,
			Handler: s.toolHandler(def.Name),
		})
		current[def.Name] = struct{}{}
	}

	var obsolete []string
	for name := range s.published {
		if _, ok := current[name]; !ok {
			obsolete = append(obsolete, name)
		}
	}
	if len(obsolete) > 0 {
		sort.Strings(obsolete)
		s.mcp.DeleteTools(obsolete...)
	}
	if len(tools) > 0 {
		s.mcp.AddTools(tools...)
	}

	s.published = current
	logging.Info("Server", "Published %d tools (schema mode %s, %d removed)", len(tools), s.agg.Resolver().Effective(), len(obsolete))
}

// PublishedTools lists the published tool names in sorted order.
func (s *Server) PublishedTools() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.published))
	for name := range s.published {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toMCPTool(def registry.ToolDefinition) (mcp.Tool, error) {
	raw, err := schema.Marshal(def.InputSchema)
	if err != nil {
		return mcp.Tool{}, err
	}
	return mcp.NewToolWithRawSchema(def.Name, def.Description, raw), nil
}

func (s *Server) toolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		executionID := uuid.New().String()
		start := time.Now()

		args := make(map[string]interface{})
		if req.Params.Arguments != nil {
			if argsMap, ok := req.Params.Arguments.(map[string]interface{}); ok {
				args = argsMap
			}
		}

		logging.Debug("Server", "Executing tool %s (execution=%s)", name, executionID)
		result, err := s.agg.ExecuteTool(ctx, name, args)
		if err != nil {
			logging.Warn("Server", "Tool %s failed after %s (execution=%s): %v", name, time.Since(start), executionID, err)
			return mcp.NewToolResultError(errorMessage(name, err)), nil
		}
		logging.Debug("Server", "Tool %s finished in %s (execution=%s)", name, time.Since(start), executionID)

		text, err := resultText(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Tool %s returned an unserializable result: %v", name, err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func errorMessage(name string, err error) string {
	switch {
	case registry.IsNotFound(err):
		return fmt.Sprintf("Tool %s is not available", name)
	case registry.IsActionDenied(err):
		return err.Error()
	case registry.IsValidationError(err):
		return err.Error()
	default:
		return fmt.Sprintf("Tool execution failed: %v", err)
	}
}

func resultText(result any) (string, error) {
	switch r := result.(type) {
	case nil:
		return "", nil
	case string:
		return r, nil
	default:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// Run serves the configured transport until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.IsMultiClient() && s.agg.Resolver().Configured() == schemamode.ModeAuto {
		logging.Warn("Server", "Schema mode auto on the %s transport: the last client to connect decides the schema shape for every session", s.cfg.Transport)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	switch s.cfg.Transport {
	case config.TransportStdio:
		logging.Info("Server", "Serving MCP over stdio")
		err := server.NewStdioServer(s.mcp).Listen(ctx, s.stdin, s.stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil

	case config.TransportSSE:
		logging.Info("Server", "Serving MCP over SSE on %s", addr)
		sse := server.NewSSEServer(
			s.mcp,
			server.WithBaseURL(fmt.Sprintf("http://%s", addr)),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
		)
		return serveHTTP(ctx, "SSE", func() error { return sse.Start(addr) }, sse.Shutdown)

	case config.TransportStreamableHTTP:
		logging.Info("Server", "Serving MCP over streamable-http on %s", addr)
		streamable := server.NewStreamableHTTPServer(s.mcp)
		return serveHTTP(ctx, "streamable-http", func() error { return streamable.Start(addr) }, streamable.Shutdown)

	default:
		return fmt.Errorf("unsupported transport %q", s.cfg.Transport)
	}
}

func serveHTTP(ctx context.Context, name string, start func() error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down %s server", name)
		}
		<-errCh
		return nil
	}
}
