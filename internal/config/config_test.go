package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GOOGLE_API_KEY", "GEMINI_API_KEY", "SANCTUARY_MODEL", "SANCTUARY_EMBEDDING",
		"SANCTUARY_DB", "SANCTUARY_ADDR", "SANCTUARY_MONGO_URI", "SANCTUARY_MARKET_DATA",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "Sanctuary" {
		t.Errorf("expected Name=Sanctuary, got %s", cfg.Name)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("expected Model=gemini-2.0-flash, got %s", cfg.LLM.Model)
	}
	if cfg.Server.Addr != "0.0.0.0:5000" {
		t.Errorf("expected Addr=0.0.0.0:5000, got %s", cfg.Server.Addr)
	}
	if cfg.Store.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Store.TopK)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "k-test"
	cfg.Store.DatabasePath = "/tmp/docs.db"
	cfg.Logging.DebugMode = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LLM.APIKey != "k-test" {
		t.Errorf("expected APIKey=k-test, got %s", loaded.LLM.APIKey)
	}
	if loaded.Store.DatabasePath != "/tmp/docs.db" {
		t.Errorf("expected DatabasePath=/tmp/docs.db, got %s", loaded.Store.DatabasePath)
	}
	if !loaded.Logging.DebugMode {
		t.Error("expected DebugMode to round-trip")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Weights.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %s", cfg.Weights.Backend)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad provider", func(c *Config) { c.LLM.Provider = "other" }, true},
		{"bad embedding", func(c *Config) { c.Embedding.Provider = "word2vec" }, true},
		{"genai without key", func(c *Config) { c.Embedding.Provider = "genai" }, true},
		{"genai with key", func(c *Config) {
			c.Embedding.Provider = "genai"
			c.Embedding.GenAIAPIKey = "k"
		}, false},
		{"mongo without uri", func(c *Config) { c.Weights.Backend = "mongo" }, true},
		{"bad chat backend", func(c *Config) { c.Chat.Backend = "redis" }, true},
		{"chat mongo without uri", func(c *Config) { c.Chat.Backend = "mongo" }, true},
		{"negative history limit", func(c *Config) { c.Chat.HistoryLimit = -1 }, true},
		{"empty db path", func(c *Config) { c.Store.DatabasePath = "" }, true},
		{"zero top k", func(c *Config) { c.Store.TopK = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetLLMTimeout(); got != 120*time.Second {
		t.Errorf("GetLLMTimeout = %v", got)
	}
	cfg.LLM.Timeout = "garbage"
	if got := cfg.GetLLMTimeout(); got != 120*time.Second {
		t.Errorf("fallback GetLLMTimeout = %v", got)
	}
	cfg.Simulator.Latency = "0s"
	if got := cfg.GetSimulatorLatency(); got != 0 {
		t.Errorf("GetSimulatorLatency = %v, want 0", got)
	}
	if got := cfg.Server.GetShutdownTimeout(); got != 10*time.Second {
		t.Errorf("GetShutdownTimeout = %v", got)
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{}
	if lc.IsCategoryEnabled("seo") {
		t.Error("disabled in production mode")
	}
	lc.DebugMode = true
	if !lc.IsCategoryEnabled("seo") {
		t.Error("enabled by default in debug mode")
	}
	lc.Categories = map[string]bool{"seo": false}
	if lc.IsCategoryEnabled("seo") {
		t.Error("explicit false should disable")
	}
}
