package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/casefind/casefind/internal/agent"
	"github.com/casefind/casefind/internal/db"
	"github.com/casefind/casefind/internal/documents"
	mcpserver "github.com/casefind/casefind/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing legal knowledge base search tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// MCP protocol traffic owns stdout; logs go to stderr.
		log.SetOutput(os.Stderr)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		index, err := createIndexFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating vector index: %w", err)
		}
		if err := index.Ensure(context.Background(), embedder.Dimensions()); err != nil {
			// The index may simply be empty; searches will say so.
			fmt.Fprintf(os.Stderr, "Warning: could not ensure collection %s: %v\n", cfg.Index.Collection, err)
		}

		dbPath := filepath.Join(cfg.DataDir, "casefind.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		docStore := documents.NewStore(database)
		search := agent.NewRetrievalTool(embedder, index, cfg.Agent.SearchLimit)

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "casefind MCP server started on stdio (db=%s)\n", dbPath)

		srv := mcpserver.NewServer(search, docStore)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
