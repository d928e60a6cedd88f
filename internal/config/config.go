package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	ExecTimeout        time.Duration `mapstructure:"exec_timeout" yaml:"exec_timeout"`
	ExecMaxOutputBytes int           `mapstructure:"exec_max_output_bytes" yaml:"exec_max_output_bytes"`
	NodeBin            string        `mapstructure:"node_bin" yaml:"node_bin"`
	PythonBin          string        `mapstructure:"python_bin" yaml:"python_bin"`

	AssistAPIKey string `mapstructure:"assist_api_key" yaml:"assist_api_key"`
	AssistModel  string `mapstructure:"assist_model" yaml:"assist_model"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,

		DatabasePath: "hivemind.db",

		JWTSecret:   "change-me",
		JWTIssuer:   "hivemind",
		JWTAudience: "hivemind-clients",

		ExecTimeout:        10 * time.Second,
		ExecMaxOutputBytes: 64 * 1024,
		NodeBin:            "node",
		PythonBin:          "python3",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.ExecTimeout != 0 {
		c.ExecTimeout = other.ExecTimeout
	}
}
