package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderGoogle     ProviderType = "google"
	ProviderOpenRouter ProviderType = "openrouter"
)

// IndexBackend identifies a vector index implementation.
type IndexBackend string

const (
	IndexChromem IndexBackend = "chromem"
	IndexQdrant  IndexBackend = "qdrant"
)

// CacheBackend identifies an answer cache implementation.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// Config is the top-level casefind configuration, corresponding to .casefind.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	StorageDir        string       `yaml:"storage_dir" koanf:"storage_dir"`
	Index             IndexConfig  `yaml:"index" koanf:"index"`
	Cache             CacheConfig  `yaml:"cache" koanf:"cache"`
	Agent             AgentConfig  `yaml:"agent" koanf:"agent"`
	Ingest            IngestConfig `yaml:"ingest" koanf:"ingest"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	Backend    IndexBackend `yaml:"backend" koanf:"backend"`
	URL        string       `yaml:"url" koanf:"url"`
	APIKey     string       `yaml:"api_key" koanf:"api_key"`
	Collection string       `yaml:"collection" koanf:"collection"`
}

// CacheConfig holds answer cache settings.
type CacheConfig struct {
	Backend     CacheBackend `yaml:"backend" koanf:"backend"`
	Addr        string       `yaml:"addr" koanf:"addr"`
	TTLSeconds  int          `yaml:"ttl_seconds" koanf:"ttl_seconds"`
	MaxMemoryMB int          `yaml:"max_memory_mb" koanf:"max_memory_mb"`
}

// AgentConfig holds reasoning loop settings.
type AgentConfig struct {
	MaxIterations     int `yaml:"max_iterations" koanf:"max_iterations"`
	TimeoutSeconds    int `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	SearchLimit       int `yaml:"search_limit" koanf:"search_limit"`
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	ExtractWorkers int     `yaml:"extract_workers" koanf:"extract_workers"`
	OverlapRatio   float64 `yaml:"overlap_ratio" koanf:"overlap_ratio"`
}
