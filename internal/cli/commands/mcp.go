package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/kmux/internal/config"
	"github.com/aki/kmux/internal/logger"
	"github.com/aki/kmux/internal/mcp"
)

var mcpFlags struct {
	transport string
	port      int
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve kmux operations over the Model Context Protocol",
	Long: `Serve kmux operations over the Model Context Protocol.

Exposes kernel_list, kernelspec_list, session_start, session_list, and
session_remove as MCP tools so AI agents can manage kernel sessions.

Examples:
  # Serve over stdio (for editor/agent integration)
  kmux mcp

  # Serve over HTTP with SSE
  kmux mcp --transport http --port 8799`,
	RunE: serveMCP,
}

func init() {
	mcpCmd.Flags().StringVarP(&mcpFlags.transport, "transport", "t", "", "Transport (stdio, http); overrides config")
	mcpCmd.Flags().IntVar(&mcpFlags.port, "port", 0, "HTTP port; overrides config")
}

func serveMCP(cmd *cobra.Command, args []string) error {
	manager, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	transport := cfg.MCP.Transport.Type
	if mcpFlags.transport != "" {
		transport = mcpFlags.transport
	}

	httpConfig := cfg.MCP.Transport.HTTP
	if mcpFlags.port != 0 {
		httpConfig.Port = mcpFlags.port
	}

	var httpCfg *config.HTTPConfig
	if transport == "http" {
		httpCfg = &httpConfig
	}

	server, err := mcp.NewServer(manager, cfg, logger.FromContext(cmd.Context()), transport, httpCfg)
	if err != nil {
		return err
	}
	return server.Start(cmd.Context())
}
