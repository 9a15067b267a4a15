// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents manage topics and sessions via stdio as one local user
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/recall-tracker/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the tracker as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to create topics, add notes and score recall
via stdio. All tools act as the single user named by MCP_USER_SUB.

Configure in Claude Desktop's config file to enable the tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  tracker mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "tracker": {
  #       "command": "tracker",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Service.EnsureUser(cmd.Context(), a.Cfg.MCPUserSubject, a.Cfg.MCPUserEmail)
	if err != nil {
		return fmt.Errorf("resolving MCP user: %w", err)
	}

	server := mcpserver.NewMCPServer("123tracker", build.Version)
	mcp.RegisterTools(server, a.Service, user, a.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Log.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.Log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
