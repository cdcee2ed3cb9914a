package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/storage/sqlite"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driving/mcp"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/watch"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can drive
the tagging pipeline (sync, classify, apply, status, pending queue).

By default the server communicates over stdio using JSON-RPC. Use
--port to serve HTTP instead, for MCP Inspector or remote access.

Examples:
  # Stdio mode (default, for Claude Desktop)
  tanatag mcp serve

  # HTTP mode
  tanatag mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	// Long-running process: expire abandoned review sessions and drop
	// cached label embeddings when another process rewrites the snapshot.
	sessionManager.StartSweeper(ctx, appConfig.SessionTTL/2)
	if store, ok := snapshotStore.(*sqlite.Store); ok {
		watcher, err := watch.NewSnapshotWatcher(
			[]string{store.Path()}, watch.DefaultDebounce, catalog.Invalidate)
		if err != nil {
			logger.Warn("snapshot watcher unavailable: %v", err)
		} else {
			snapshotWatcher = watcher
			watcher.Start(ctx)
		}
	}

	ports := &mcp.Ports{
		Sync:     syncOrchestrator,
		Classify: classifyRunner,
		Review:   reviewController,
		Snapshot: snapshotStore,
		Ledger:   ledgerStore,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		logger.Info("MCP server listening on %s", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
