// Package config loads the glmcp configuration file.
//
// Configuration lives in a single directory, ~/.config/glmcp by default or
// the directory passed with --config-path, holding one config.yaml:
//
//	server:
//	  name: glmcp
//	  transport: stdio        # stdio, sse or streamable-http
//	  host: localhost
//	  port: 8090
//	logLevel: info
//	logFormat: text
//	environment:              # policy variables, the process environment wins
//	  GITLAB_DENIED_ACTIONS: manage_milestone:delete
//	  GITLAB_SCHEMA_MODE: auto
//	unavailableTools:         # tools the connected instance does not offer
//	  manage_wiki: wiki is disabled on this instance
//
// A missing file yields the defaults. The Watcher reports edits so a running
// server can swap its policy without a restart.
package config

import (
	"glmcp/internal/policy"
)

// Config is the top-level configuration structure for glmcp.
type Config struct {
	Server           ServerConfig      `yaml:"server"`
	LogLevel         string            `yaml:"logLevel,omitempty"`
	LogFormat        string            `yaml:"logFormat,omitempty"`
	Environment      map[string]string `yaml:"environment,omitempty"`
	UnavailableTools map[string]string `yaml:"unavailableTools,omitempty"`
}

const (
	// TransportStreamableHTTP is the streamable HTTP transport.
	TransportStreamableHTTP = "streamable-http"
	// TransportSSE is the Server-Sent Events transport.
	TransportSSE = "sse"
	// TransportStdio is the standard I/O transport.
	TransportStdio = "stdio"
)

// Transports lists the supported transports.
var Transports = []string{TransportStdio, TransportSSE, TransportStreamableHTTP}

// ServerConfig defines how the MCP server is exposed.
type ServerConfig struct {
	Name      string `yaml:"name,omitempty"`      // Server name reported to clients (default: glmcp)
	Transport string `yaml:"transport,omitempty"` // Transport to use (default: stdio)
	Host      string `yaml:"host,omitempty"`      // Host to bind to for HTTP transports (default: localhost)
	Port      int    `yaml:"port,omitempty"`      // Port for HTTP transports (default: 8090)
}

// IsMultiClient reports whether the transport can serve several sessions
// from one process.
func (s ServerConfig) IsMultiClient() bool {
	return s.Transport == TransportSSE || s.Transport == TransportStreamableHTTP
}

// PolicyEnvironment layers process over the configured environment section.
// Process variables win so a deployment can override the file.
func (c Config) PolicyEnvironment(process map[string]string) map[string]string {
	return policy.Merge(c.Environment, process)
}
