// Package config loads CerebrumLux's on-disk YAML configuration and applies
// CL_* environment overrides, the way intelligencedev-manifold's
// internal/config package layers env vars on top of a YAML base (see its
// loader.go). Every component-tunable mentioned informally in spec.md §4
// gets an explicit field here so nothing is a hidden magic number.
package config

// StoreConfig controls where C11's durable sub-stores and snapshots live.
type StoreConfig struct {
	Dir             string `yaml:"dir"`
	MapSizeBytes    int64  `yaml:"map_size_bytes"`
	AutosaveSeconds int    `yaml:"autosave_seconds"`
}

// LLMConfig points at the external inference/embedding adapter (§6).
type LLMConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Provider        string `yaml:"provider"` // "anthropic" | "openai" | "gemini"
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	MaxConcurrent   int    `yaml:"max_concurrent"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxPromptTokens int    `yaml:"max_prompt_tokens"`
}

// CacheConfig controls the optional Redis-backed response cache.
type CacheConfig struct {
	Addr   string `yaml:"addr"`
	TTLSec int    `yaml:"ttl_seconds"`
}

// SignalBufferConfig tunes C1.
type SignalBufferConfig struct {
	Capacity           int     `yaml:"capacity"`
	RebuildIntervalMS  int     `yaml:"rebuild_interval_ms"`
	RebuildGrowthRatio float64 `yaml:"rebuild_growth_ratio"`
}

// AutoencoderConfig tunes C2.
type AutoencoderConfig struct {
	LearningRate         float64 `yaml:"learning_rate"`
	ReconstructionErrMax float64 `yaml:"reconstruction_error_threshold"`
}

// QLearnConfig tunes C9.
type QLearnConfig struct {
	Alpha           float64 `yaml:"alpha"`
	Gamma           float64 `yaml:"gamma"`
	Epsilon         float64 `yaml:"epsilon"`
	AutosaveSeconds int     `yaml:"autosave_seconds"`
}

// KnowledgeConfig tunes C10's ingest pipeline.
type KnowledgeConfig struct {
	AllowlistedSources  []string `yaml:"allowlisted_sources"`
	CorroborationCosine float64  `yaml:"corroboration_cosine"`
	StegoEntropyMax     float64  `yaml:"stego_entropy_max"`
	IngestWorkers       int      `yaml:"ingest_workers"`
}

// Config is the root configuration object.
type Config struct {
	Store        StoreConfig        `yaml:"store"`
	LLM          LLMConfig          `yaml:"llm"`
	Cache        CacheConfig        `yaml:"cache"`
	SignalBuffer SignalBufferConfig `yaml:"signal_buffer"`
	Autoencoder  AutoencoderConfig  `yaml:"autoencoder"`
	QLearn       QLearnConfig       `yaml:"qlearn"`
	Knowledge    KnowledgeConfig    `yaml:"knowledge"`
	LogLevel     string             `yaml:"log_level"`
	LogPath      string             `yaml:"log_path"`
}

// Default returns the configuration spec.md's defaults describe: 1000-sample
// ring buffer, 500ms/20% rebuild trigger, lr defaults, alpha=0.1/gamma=0.9/
// epsilon=0.1, 30s autosave, 20s LLM timeout, CL_MAX_CONCURRENT_LLM=1,
// CL_CACHE_TTL_S=300.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Dir:             "./cerebrumlux-store",
			MapSizeBytes:    1 << 30,
			AutosaveSeconds: 30,
		},
		LLM: LLMConfig{
			Provider:        "anthropic",
			MaxConcurrent:   1,
			TimeoutSeconds:  20,
			MaxPromptTokens: 4000,
		},
		Cache: CacheConfig{
			TTLSec: 300,
		},
		SignalBuffer: SignalBufferConfig{
			Capacity:           1000,
			RebuildIntervalMS:  500,
			RebuildGrowthRatio: 0.2,
		},
		Autoencoder: AutoencoderConfig{
			LearningRate:         0.05,
			ReconstructionErrMax: 0.1,
		},
		QLearn: QLearnConfig{
			Alpha:           0.1,
			Gamma:           0.9,
			Epsilon:         0.1,
			AutosaveSeconds: 30,
		},
		Knowledge: KnowledgeConfig{
			CorroborationCosine: 0.7,
			StegoEntropyMax:     7.0,
			IngestWorkers:       4,
		},
		LogLevel: "info",
	}
}
