package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/casefind/casefind/internal/agent"
	"github.com/casefind/casefind/internal/assistant"
	"github.com/casefind/casefind/internal/db"
	"github.com/casefind/casefind/internal/threads"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the legal assistant a one-shot question",
	Long:  `Runs the assistant once against the knowledge base and prints the answer with its source document.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		question := strings.Join(args, " ")

		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		index, err := createIndexFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating vector index: %w", err)
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

		ctx := context.Background()

		threadStore := threads.NewStore(database)
		retrieval := agent.NewRetrievalTool(embedder, index, cfg.Agent.SearchLimit)
		loop := agent.NewLoop(llmProvider, []agent.Tool{retrieval}, agent.Options{
			MaxIterations: cfg.Agent.MaxIterations,
			Timeout:       time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
		})
		answerCache := createAnswerCacheFromConfig(ctx, cfg)
		orch := assistant.NewOrchestrator(loop, answerCache, threadStore, nil)

		title := question
		if runes := []rune(title); len(runes) > 50 {
			title = string(runes[:50])
		}
		thread, err := threadStore.CreateThread(ctx, title, "cli")
		if err != nil {
			return fmt.Errorf("creating thread: %w", err)
		}

		result, err := orch.Answer(ctx, question, thread.ID)
		if err != nil {
			return err
		}

		fmt.Println(result.Answer)
		fmt.Println()
		fmt.Printf("Source: %s\n", result.Source)
		if result.Link != "" {
			fmt.Printf("Link: %s\n", result.Link)
		}
		if result.Truncated {
			fmt.Println("Note: the answer was cut short by the reasoning limit.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
