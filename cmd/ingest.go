package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/casefind/casefind/internal/audit"
	"github.com/casefind/casefind/internal/db"
	"github.com/casefind/casefind/internal/documents"
	"github.com/casefind/casefind/internal/extract"
	"github.com/casefind/casefind/internal/ingest"
	"github.com/casefind/casefind/internal/progress"
	"github.com/casefind/casefind/internal/vectorindex"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf> [file2.pdf ...]",
	Short: "Ingest PDF documents into the knowledge base",
	Long: `Extracts text from the given PDFs, chunks and embeds it, and writes the
result to the vector index so the assistant can search it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		dbPath := filepath.Join(cfg.DataDir, "casefind.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		docStore := documents.NewStore(database)
		chunkStore := vectorindex.NewChunkStore(database)
		writer := vectorindex.NewWriter(index, chunkStore)
		auditStore := audit.NewStore(database)
		extractor := extract.NewPDFExtractor(cfg.Ingest.ExtractWorkers)
		pipeline := ingest.NewPipeline(extractor, embedder, writer, index, docStore, auditStore, cfg.Ingest.OverlapRatio)

		ctx := context.Background()
		reporter := progress.NewReporter(len(args))

		var failed int
		for _, path := range args {
			name := filepath.Base(path)
			reporter.Step(name)

			if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
				fmt.Fprintf(os.Stderr, "skipping %s: not a PDF\n", name)
				failed++
				continue
			}

			stored, err := copyToStorage(path, cfg.StorageDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", name, err)
				failed++
				continue
			}

			title := strings.TrimSuffix(name, filepath.Ext(name))
			doc, err := docStore.Create(ctx, title, name, "")
			if err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", name, err)
				failed++
				continue
			}

			if err := pipeline.Process(ctx, *doc, stored); err != nil {
				fmt.Fprintf(os.Stderr, "failed %s: %v\n", name, err)
				failed++
			}
		}
		reporter.Done(len(args)-failed, failed)

		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(args))
		}
		return nil
	},
}

// copyToStorage places the PDF in the storage directory so the view-pdf
// endpoint can serve it later.
func copyToStorage(path, storageDir string) (string, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return "", fmt.Errorf("creating storage dir: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dest := filepath.Join(storageDir, filepath.Base(path))
	dst, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
