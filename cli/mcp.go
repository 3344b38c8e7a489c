// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server for Claude Desktop integration with company enrichment attached
package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/config"
	"github.com/harperreed/crmd/db"
	"github.com/harperreed/crmd/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, cfg *config.Config, store *db.Store, version string, logger *log.Logger) error {
	logger.Info("starting CRM MCP server", "version", version)

	_, stop, err := startEnrichment(cfg, store, logger)
	if err != nil {
		return err
	}
	defer stop()

	if err := store.Hydrate(ctx); err != nil {
		return err
	}

	server := handlers.NewServer(store, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
