package config

// StoreConfig configures the SQLite document store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	// SeedOnStart inserts the demonstration documents into an empty store.
	SeedOnStart bool `yaml:"seed_on_start"`
	// TopK is the number of similar documents the SEO analysis reports.
	TopK int `yaml:"top_k"`
}

// WeightsConfig configures where influence weights are persisted.
type WeightsConfig struct {
	Backend    string `yaml:"backend"` // sqlite, mongo
	MongoURI   string `yaml:"mongo_uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Timeout    string `yaml:"timeout"`
}

// ChatConfig configures the Control Zone chat history.
// The mongo backend connects with the weights mongo_uri and database.
type ChatConfig struct {
	Backend string `yaml:"backend"` // sqlite, mongo
	// HistoryLimit is the number of past exchanges sent back to the model.
	HistoryLimit int `yaml:"history_limit"`
}
