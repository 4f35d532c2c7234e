package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .casefind.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to casefind! Let's configure your knowledge base.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "google", "openrouter"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model = defaultModelFor(cfg.Provider)

	// 2. Model override.
	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: cfg.Model,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	cfg.Model = model

	// 3. Embedding provider follows the LLM provider where possible.
	cfg.EmbeddingProvider = embeddingProviderFor(cfg.Provider)
	if cfg.EmbeddingProvider == ProviderGoogle {
		cfg.EmbeddingModel = "gemini-embedding-001"
	}

	// 4. Vector index backend.
	indexPrompt := promptui.Select{
		Label: "Select vector index backend",
		Items: []string{
			"chromem (embedded, no external service)",
			"qdrant (external Qdrant server)",
		},
	}
	indexIdx, _, err := indexPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("index selection: %w", err)
	}
	if indexIdx == 1 {
		cfg.Index.Backend = IndexQdrant
		urlPrompt := promptui.Prompt{
			Label:   "Qdrant URL",
			Default: cfg.Index.URL,
		}
		url, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("qdrant url: %w", err)
		}
		cfg.Index.URL = url
	}

	// 5. Cache backend.
	cachePrompt := promptui.Select{
		Label: "Select answer cache backend",
		Items: []string{
			"memory (in-process)",
			"redis (external Redis server)",
		},
	}
	cacheIdx, _, err := cachePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cache selection: %w", err)
	}
	if cacheIdx == 1 {
		cfg.Cache.Backend = CacheRedis
		addrPrompt := promptui.Prompt{
			Label:   "Redis address",
			Default: cfg.Cache.Addr,
		}
		addr, err := addrPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("redis address: %w", err)
		}
		cfg.Cache.Addr = addr
	}

	// 6. Storage directory for uploaded PDFs.
	storagePrompt := promptui.Prompt{
		Label:   "Directory for uploaded PDFs",
		Default: cfg.StorageDir,
	}
	storageDir, err := storagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	cfg.StorageDir = storageDir

	// Check for API keys.
	for _, p := range []ProviderType{cfg.Provider, cfg.EmbeddingProvider} {
		envVar := APIKeyEnvVar(p)
		if envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running casefind.\n", envVar)
		}
	}

	configPath := ".casefind.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}

// defaultModelFor returns a sensible chat model per provider.
func defaultModelFor(p ProviderType) string {
	switch p {
	case ProviderGoogle:
		return "gemini-2.0-flash"
	case ProviderOpenRouter:
		return "anthropic/claude-3.5-sonnet"
	default:
		return "gpt-4o"
	}
}

// embeddingProviderFor returns the default embedding provider for a
// given LLM provider. OpenRouter has no embedding API, so OpenAI
// embeddings are used there.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderGoogle {
		return ProviderGoogle
	}
	return ProviderOpenAI
}
