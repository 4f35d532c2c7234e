package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/casefind/casefind/internal/agent"
	"github.com/casefind/casefind/internal/assistant"
	"github.com/casefind/casefind/internal/audit"
	"github.com/casefind/casefind/internal/config"
	"github.com/casefind/casefind/internal/db"
	"github.com/casefind/casefind/internal/documents"
	"github.com/casefind/casefind/internal/extract"
	"github.com/casefind/casefind/internal/ingest"
	"github.com/casefind/casefind/internal/server"
	"github.com/casefind/casefind/internal/threads"
	"github.com/casefind/casefind/internal/vectorindex"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the casefind API server",
	Long:  `Starts the casefind server with the document library, assistant chat, and audit REST APIs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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
			fmt.Fprintf(os.Stderr, "Warning: could not ensure collection %s: %v\n", cfg.Index.Collection, err)
		}

		llmProvider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}

		dbPath := filepath.Join(cfg.DataDir, "casefind.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:       serverPort,
			DataDir:    cfg.DataDir,
			StorageDir: cfg.StorageDir,
			AllowAll:   true,
		}, database, index, embedder, llmProvider)

		registerAllRoutes(srv, cfg)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "casefind server v%s starting on port %d\n", Version, serverPort)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  PDF storage: %s\n", cfg.StorageDir)

		return srv.Start()
	},
}

// registerAllRoutes wires up all feature routes.
func registerAllRoutes(srv *server.Server, cfg *config.Config) {
	r := srv.Router()
	database := srv.Database()

	// Audit trail
	auditStore := audit.NewStore(database)
	audit.RegisterRoutes(r, auditStore)

	// Document library and ingestion
	docStore := documents.NewStore(database)
	chunkStore := vectorindex.NewChunkStore(database)
	writer := vectorindex.NewWriter(srv.Index(), chunkStore)
	extractor := extract.NewPDFExtractor(cfg.Ingest.ExtractWorkers)
	pipeline := ingest.NewPipeline(extractor, srv.Embedder(), writer, srv.Index(), docStore, auditStore, cfg.Ingest.OverlapRatio)
	documents.RegisterRoutes(r, docStore, writer, pipeline, auditStore, cfg.StorageDir)

	// Assistant chat
	threadStore := threads.NewStore(database)
	retrieval := agent.NewRetrievalTool(srv.Embedder(), srv.Index(), cfg.Agent.SearchLimit)
	loop := agent.NewLoop(srv.LLMProvider(), []agent.Tool{retrieval}, agent.Options{
		MaxIterations: cfg.Agent.MaxIterations,
		Timeout:       time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
	})
	answerCache := createAnswerCacheFromConfig(context.Background(), cfg)
	orch := assistant.NewOrchestrator(loop, answerCache, threadStore, auditStore)
	assistant.RegisterRoutes(r, orch, threadStore)
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serverCmd)
}
