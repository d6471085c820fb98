package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// ChainConfig holds the defaults used to build and sample chains.
type ChainConfig struct {
	Order        int    `json:"order"`
	Length       int    `json:"length"`
	LogLevel     string `json:"log_level"`
	DatabasePath string `json:"database_path"`
	ChainName    string `json:"chain_name"`
}

// ServerConfig holds the configuration for the HTTP API.
type ServerConfig struct {
	Addr            string `json:"addr"`
	ReadTimeoutSec  int    `json:"read_timeout_sec"`
	WriteTimeoutSec int    `json:"write_timeout_sec"`
	MaxBodyBytes    int64  `json:"max_body_bytes"`

	// MaxGenerateLength caps the length a single API request may ask for.
	MaxGenerateLength int `json:"max_generate_length"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Chain  *ChainConfig  `json:"chain_config"`
	Server *ServerConfig `json:"server_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Chain: &ChainConfig{
			Order:        2,
			Length:       50,
			LogLevel:     "info",
			DatabasePath: "",
			ChainName:    "default",
		},
		Server: &ServerConfig{
			Addr:            ":7280",
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
			MaxBodyBytes:    8 << 20,

			MaxGenerateLength: 10000,
		},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Warn instead of failing, the defaults are still usable.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Chain == nil {
		config.Chain = DefaultConfig().Chain
	}
	if config.Server == nil {
		config.Server = DefaultConfig().Server
	}
	if config.Server.MaxGenerateLength < 1 {
		config.Server.MaxGenerateLength = DefaultConfig().Server.MaxGenerateLength
	}
	if config.Chain.Order < 1 {
		return nil, fmt.Errorf("invalid config: chain order %d must be positive", config.Chain.Order)
	}
	return config, nil
}

// parseLogLevel maps a config level name to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger creates the text logger used by every command.
func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}
