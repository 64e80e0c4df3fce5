package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Sanctuary configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP API
	Server ServerConfig `yaml:"server"`

	// Generative model used by the mind map section
	LLM LLMConfig `yaml:"llm"`

	// Embedding engine used by the SEO document store
	Embedding EmbeddingConfig `yaml:"embedding"`

	// SQLite document store
	Store StoreConfig `yaml:"store"`

	// Influence weight persistence
	Weights WeightsConfig `yaml:"weights"`

	// Control zone chat history
	Chat ChatConfig `yaml:"chat"`

	// Control zone simulator
	Simulator SimulatorConfig `yaml:"simulator"`

	// Market sphere data
	Sphere SphereConfig `yaml:"sphere"`

	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Sanctuary",
		Version: "1.0.0",

		Server: ServerConfig{
			Addr:            "0.0.0.0:5000",
			Mode:            "release",
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     "30s",
			WriteTimeout:    "120s",
			ShutdownTimeout: "10s",
			MaxBodyBytes:    1 << 20,
		},

		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  "120s",
		},

		Embedding: EmbeddingConfig{
			Provider:   "hash",
			GenAIModel: "gemini-embedding-001",
			TaskType:   "SEMANTIC_SIMILARITY",
			Dimensions: 512,
		},

		Store: StoreConfig{
			DatabasePath: "banco_local.db",
			SeedOnStart:  true,
			TopK:         5,
		},

		Weights: WeightsConfig{
			Backend:    "sqlite",
			Database:   "sanctuary",
			Collection: "configs",
			Timeout:    "10s",
		},

		Chat: ChatConfig{
			Backend:      "sqlite",
			HistoryLimit: 20,
		},

		Simulator: SimulatorConfig{
			Latency: "800ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// GEMINI_API_KEY wins if both are set.
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("SANCTUARY_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if provider := os.Getenv("SANCTUARY_EMBEDDING"); provider != "" {
		c.Embedding.Provider = provider
	}
	if c.Embedding.GenAIAPIKey == "" {
		c.Embedding.GenAIAPIKey = c.LLM.APIKey
	}

	if path := os.Getenv("SANCTUARY_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if addr := os.Getenv("SANCTUARY_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("SANCTUARY_MARKET_DATA"); path != "" {
		c.Sphere.DataFile = path
	}
	if uri := os.Getenv("SANCTUARY_MONGO_URI"); uri != "" {
		c.Weights.MongoURI = uri
		c.Weights.Backend = "mongo"
		c.Chat.Backend = "mongo"
	}
}

// ValidLLMProviders lists the supported generative providers.
var ValidLLMProviders = []string{"gemini"}

// ValidEmbeddingProviders lists the supported embedding engines.
var ValidEmbeddingProviders = []string{"hash", "genai"}

// ValidWeightsBackends lists the supported weight stores.
var ValidWeightsBackends = []string{"sqlite", "mongo"}

// Validate validates the configuration.
// The LLM key is not required: the server runs without it and the
// mind map endpoint reports the missing key per request.
func (c *Config) Validate() error {
	if !contains(ValidLLMProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidLLMProviders)
	}
	if !contains(ValidEmbeddingProviders, c.Embedding.Provider) {
		return fmt.Errorf("invalid embedding provider: %s (valid: %v)", c.Embedding.Provider, ValidEmbeddingProviders)
	}
	if c.Embedding.Provider == "genai" && c.Embedding.GenAIAPIKey == "" {
		return fmt.Errorf("embedding provider genai requires an API key (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	}
	if !contains(ValidWeightsBackends, c.Weights.Backend) {
		return fmt.Errorf("invalid weights backend: %s (valid: %v)", c.Weights.Backend, ValidWeightsBackends)
	}
	if c.Weights.Backend == "mongo" && c.Weights.MongoURI == "" {
		return fmt.Errorf("weights backend mongo requires mongo_uri (or SANCTUARY_MONGO_URI)")
	}
	if !contains(ValidWeightsBackends, c.Chat.Backend) {
		return fmt.Errorf("invalid chat backend: %s (valid: %v)", c.Chat.Backend, ValidWeightsBackends)
	}
	if c.Chat.Backend == "mongo" && c.Weights.MongoURI == "" {
		return fmt.Errorf("chat backend mongo requires weights.mongo_uri (or SANCTUARY_MONGO_URI)")
	}
	if c.Chat.HistoryLimit < 0 {
		return fmt.Errorf("chat.history_limit must be >= 0")
	}
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path must not be empty")
	}
	if c.Store.TopK < 1 {
		return fmt.Errorf("store.top_k must be >= 1")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 120*time.Second)
}

// GetWeightsTimeout returns the weights store timeout as a duration.
func (c *Config) GetWeightsTimeout() time.Duration {
	return parseDuration(c.Weights.Timeout, 10*time.Second)
}

// GetSimulatorLatency returns the mock backend latency.
func (c *Config) GetSimulatorLatency() time.Duration {
	d, err := time.ParseDuration(c.Simulator.Latency)
	if err != nil || d < 0 {
		return 800 * time.Millisecond
	}
	return d
}
