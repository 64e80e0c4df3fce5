package config

// LLMConfig configures the generative model client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding engine behind the document store.
type EmbeddingConfig struct {
	// Provider: "hash" (offline, deterministic) or "genai"
	Provider string `yaml:"provider"`

	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`

	// TaskType for GenAI: "SEMANTIC_SIMILARITY", "RETRIEVAL_QUERY", "RETRIEVAL_DOCUMENT"
	TaskType string `yaml:"task_type"`

	// Dimensions of the hash engine vectors.
	Dimensions int `yaml:"dimensions"`
}
