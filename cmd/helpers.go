package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/casefind/casefind/internal/cache"
	"github.com/casefind/casefind/internal/config"
	"github.com/casefind/casefind/internal/embeddings"
	"github.com/casefind/casefind/internal/llm"
	"github.com/casefind/casefind/internal/vectorindex"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `casefind init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	switch provider {
	case config.ProviderGoogle:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderGoogle))
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for Google embeddings")
		}
		model := embeddings.ModelGeminiEmbedding001
		if cfg.EmbeddingModel != "" {
			model = embeddings.GoogleModel(cfg.EmbeddingModel)
		}
		return embeddings.NewGoogleEmbedder(apiKey, model), nil
	default:
		// Providers without native embeddings fall back to OpenAI.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		model := embeddings.ModelTextEmbedding3Small
		if cfg.EmbeddingModel != "" {
			model = embeddings.OpenAIModel(cfg.EmbeddingModel)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, model), nil
	}
}

// createLLMProviderFromConfig creates a rate-limited LLM provider based
// on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(provider, cfg.Agent.RequestsPerMinute), nil
}

// createIndexFromConfig creates the configured vector index backend.
func createIndexFromConfig(cfg *config.Config) (vectorindex.Index, error) {
	switch cfg.Index.Backend {
	case config.IndexQdrant:
		return vectorindex.NewQdrantIndex(vectorindex.QdrantConfig{
			URL:        cfg.Index.URL,
			APIKey:     cfg.Index.APIKey,
			Collection: cfg.Index.Collection,
		}), nil
	case config.IndexChromem:
		return vectorindex.NewChromemIndex(cfg.Index.Collection), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}

// createAnswerCacheFromConfig creates the configured answer cache. A
// Redis backend that cannot be reached falls back to the in-process
// store with a warning, since the cache is only an accelerator.
func createAnswerCacheFromConfig(ctx context.Context, cfg *config.Config) *cache.AnswerCache {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second

	var store cache.Store
	if cfg.Cache.Backend == config.CacheRedis {
		redisStore, err := cache.NewRedisStore(ctx, cfg.Cache.Addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: redis cache unavailable (%v), using in-process cache\n", err)
			store = cache.NewMemoryStore()
		} else {
			store = redisStore
		}
	} else {
		store = cache.NewMemoryStore()
	}

	return cache.NewAnswerCache(store, ttl, cfg.Cache.MaxMemoryMB)
}
