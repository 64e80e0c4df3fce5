package config

import "time"

// ServerConfig configures the REST API.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	Mode            string   `yaml:"mode"` // release, debug, test (gin modes)
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ReadTimeout     string   `yaml:"read_timeout"`
	WriteTimeout    string   `yaml:"write_timeout"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

// GetReadTimeout returns the server read timeout.
func (s ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(s.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the server write timeout.
func (s ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(s.WriteTimeout, 120*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown budget.
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(s.ShutdownTimeout, 10*time.Second)
}

// SimulatorConfig configures the control zone mock backend.
type SimulatorConfig struct {
	Latency string `yaml:"latency"`
}

// SphereConfig configures the market sphere.
type SphereConfig struct {
	// DataFile is a JSON market data file. serve reloads it when it changes.
	// Empty uses the built-in catalogue.
	DataFile string `yaml:"data_file"`
}
