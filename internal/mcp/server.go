// Package mcp exposes kmux operations as Model Context Protocol tools
// so that AI agents can start and inspect kernel sessions.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/aki/kmux/internal/config"
	"github.com/aki/kmux/internal/logger"
	"github.com/aki/kmux/internal/session"
)

// Server implements the MCP server using mcp-go
type Server struct {
	mcpServer     *server.MCPServer
	configManager *config.Manager
	cfg           *config.Config
	store         session.Store
	log           logger.Logger
	transport     string
	httpConfig    *config.HTTPConfig
}

// NewServer creates a new MCP server
func NewServer(configManager *config.Manager, cfg *config.Config, log logger.Logger, transport string, httpConfig *config.HTTPConfig) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}

	mcpServer := server.NewMCPServer(
		"kmux",
		"1.0.0",
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:     mcpServer,
		configManager: configManager,
		cfg:           cfg,
		store:         session.NewFileStore(configManager.GetSessionsDir()),
		log:           log,
		transport:     transport,
		httpConfig:    httpConfig,
	}

	s.registerKernelTools()
	s.registerSessionTools()

	return s, nil
}

// Start serves MCP over the configured transport until ctx is done
func (s *Server) Start(ctx context.Context) error {
	switch s.transport {
	case "stdio":
		return server.ServeStdio(s.mcpServer)
	case "http":
		return s.startHTTPServer(ctx)
	default:
		return fmt.Errorf("unsupported transport: %s", s.transport)
	}
}

func (s *Server) startHTTPServer(ctx context.Context) error {
	if s.httpConfig == nil {
		return fmt.Errorf("HTTP configuration required")
	}

	sseServer := server.NewSSEServer(s.mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.httpConfig.Port),
		Handler: s.corsMiddleware(mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown server: %v\n", err)
		}
	}()

	s.log.Info("MCP server listening", "port", s.httpConfig.Port)
	return httpServer.ListenAndServe()
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// connectionFor resolves a gateway name to its connection info
func (s *Server) connectionFor(name string) (string, session.ConnectionInfo, error) {
	if name == "" {
		name = s.cfg.DefaultGateway
	}
	gw, err := s.cfg.ResolveGateway(name)
	if err != nil {
		return "", session.ConnectionInfo{}, err
	}
	return name, session.ConnectionInfo{BaseURL: gw.URL, Token: gw.Token}, nil
}

// adapter builds a session adapter for MCP tool calls. Password-based
// servers are not reachable over MCP; only token and open auth work.
func (s *Server) adapter() *session.Adapter {
	return session.NewAdapter(s.cfg.DataScience, nil, s.log)
}
