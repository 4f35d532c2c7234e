package cmd

import (
	"io"
	"log"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "casefind",
	Short: "AI-powered legal document search and question answering",
	Long: `Casefind ingests legal PDFs into a semantic knowledge base and answers
legal questions with an agentic assistant that cites its source
documents. It serves a REST API, a chat interface, and integrates with
AI agents via MCP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// One-shot commands stay quiet unless asked; the long-running
		// server commands re-enable logging themselves.
		if !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".casefind.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
