package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DataDir:           ".casefind",
		StorageDir:        ".casefind/pdfs",
		Index: IndexConfig{
			Backend:    IndexChromem,
			URL:        "http://localhost:6333",
			Collection: "legal_knowledge",
		},
		Cache: CacheConfig{
			Backend:     CacheMemory,
			Addr:        "localhost:6379",
			TTLSeconds:  3600,
			MaxMemoryMB: 256,
		},
		Agent: AgentConfig{
			MaxIterations:     6,
			TimeoutSeconds:    120,
			SearchLimit:       10,
			RequestsPerMinute: 60,
		},
		Ingest: IngestConfig{
			ExtractWorkers: 4,
			OverlapRatio:   0.2,
		},
	}
}
