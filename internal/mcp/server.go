// Package mcp implements the MCP protocol server for term-relay-mcp.
package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/acolita/term-relay-mcp/internal/config"
	"github.com/acolita/term-relay-mcp/internal/knowledge"
	"github.com/acolita/term-relay-mcp/internal/relay"
	"github.com/acolita/term-relay-mcp/internal/term"
)

const (
	serverName    = "term-relay-mcp"
	serverVersion = "0.1.0"
)

// Server wraps the MCP server implementation and the clients the tools
// forward to.
type Server struct {
	mcpServer *server.MCPServer
	bridge    *term.Bridge
	store     *knowledge.Client
	relay     *relay.Client
	config    *config.Config
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithBridge replaces the terminal bridge, used by tests to inject one
// pointed at an in-process terminal.
func WithBridge(b *term.Bridge) ServerOption {
	return func(s *Server) {
		s.bridge = b
	}
}

// WithKnowledgeClient replaces the knowledge-store client.
func WithKnowledgeClient(c *knowledge.Client) ServerOption {
	return func(s *Server) {
		s.store = c
	}
}

// WithRelayClient replaces the logging relay client.
func WithRelayClient(c *relay.Client) ServerOption {
	return func(s *Server) {
		s.relay = c
	}
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg *config.Config, opts ...ServerOption) *Server {
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		bridge: term.NewBridge(term.Options{
			Endpoint:       cfg.Terminal.Endpoint,
			DefaultTarget:  cfg.Terminal.DefaultProject,
			ConnectTimeout: cfg.Terminal.ConnectTimeout,
			DefaultWait:    cfg.Terminal.DefaultWait,
		}),
		store:  knowledge.NewClient(cfg.Knowledge.BaseURL),
		relay:  relay.NewClient(cfg.Relay.Endpoint),
		config: cfg,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio transport.
func (s *Server) Run() error {
	slog.Info("starting MCP server on stdio transport",
		slog.String("terminal_endpoint", s.config.Terminal.Endpoint),
	)
	return server.ServeStdio(s.mcpServer)
}

// UpdateConfig applies a new configuration at runtime. The terminal
// endpoint takes effect on the next dial; an established connection is
// left alone.
func (s *Server) UpdateConfig(cfg *config.Config) {
	slog.Debug("applying config update")

	if cfg.Terminal.Endpoint != s.config.Terminal.Endpoint ||
		cfg.Terminal.DefaultProject != s.config.Terminal.DefaultProject {
		s.bridge.Close()
		s.bridge = term.NewBridge(term.Options{
			Endpoint:       cfg.Terminal.Endpoint,
			DefaultTarget:  cfg.Terminal.DefaultProject,
			ConnectTimeout: cfg.Terminal.ConnectTimeout,
			DefaultWait:    cfg.Terminal.DefaultWait,
		})
		slog.Debug("terminal bridge recreated",
			slog.String("endpoint", cfg.Terminal.Endpoint))
	}

	if cfg.Knowledge.BaseURL != s.config.Knowledge.BaseURL {
		s.store = knowledge.NewClient(cfg.Knowledge.BaseURL)
		slog.Debug("knowledge client updated")
	}

	if cfg.Relay.Endpoint != s.config.Relay.Endpoint {
		s.relay.Close()
		s.relay = relay.NewClient(cfg.Relay.Endpoint)
		slog.Debug("relay client updated")
	}

	s.config = cfg

	slog.Info("configuration hot-reloaded successfully")
}

// Close releases the outbound connections.
func (s *Server) Close() {
	s.bridge.Close()
	s.relay.Close()
}

// defaultWaitMS mirrors the bridge default for the tool parameter doc.
const defaultWaitMS = int(5 * time.Second / time.Millisecond)
