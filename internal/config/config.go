// Package config provides configuration loading and structs for the cyborgbench server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool             `yaml:"debug"`
	Server    ServerConfig     `yaml:"server"`
	Storage   StorageConfig    `yaml:"storage"`
	Embedding EmbeddingConfig  `yaml:"embedding"`
	Vector    VectorConfig     `yaml:"vector"`
	Evaluator evaluator.Policy `yaml:"evaluator"`
	Ingest    IngestConfig     `yaml:"ingest"`
	Bench     BenchConfig      `yaml:"bench"`
	Client    ClientConfig     `yaml:"client"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RateLimit is the sustained number of chat requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// StorageConfig holds paths for the database and the on-disk indices.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	ChromaPath      string `yaml:"chroma_path"`
	FAISSIndexPath  string `yaml:"faiss_index_path"`
	CyborgIndexPath string `yaml:"cyborg_index_path"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Dimensions int `yaml:"dimensions"`
	CacheSize  int `yaml:"cache_size"`
}

// VectorConfig holds search settings shared by all backends.
type VectorConfig struct {
	TopK int `yaml:"top_k"`
	// EncryptionKey is the hex-encoded 32-byte key of the cyborg index.
	EncryptionKey string `yaml:"encryption_key"`
	// Backends lists the comparators to run next to cyborg. Empty means both.
	Backends []string `yaml:"backends"`
}

// IngestConfig holds corpus loading settings.
type IngestConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	// Generate is the number of synthetic records created when the store is empty.
	Generate  int     `yaml:"generate"`
	FraudRate float64 `yaml:"fraud_rate"`
	Seed      int64   `yaml:"seed"`
	Recursive *bool   `yaml:"recursive"`
}

// RecursiveOrDefault returns whether directories are walked recursively; defaults to true when unset.
func (c *IngestConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// BenchConfig holds benchmark settings.
type BenchConfig struct {
	Samples    int    `yaml:"samples"`
	ReportPath string `yaml:"report_path"`
}

// ClientConfig holds settings for the chat client.
type ClientConfig struct {
	ServerURL      string `yaml:"server_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads and parses the config file at path, applies defaults, expands
// paths and applies environment overrides.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.ChromaPath = expandPath(cfg.Storage.ChromaPath, configDir)
	cfg.Storage.FAISSIndexPath = expandPath(cfg.Storage.FAISSIndexPath, configDir)
	cfg.Storage.CyborgIndexPath = expandPath(cfg.Storage.CyborgIndexPath, configDir)
	cfg.Bench.ReportPath = expandPath(cfg.Bench.ReportPath, configDir)
	for i := range cfg.Ingest.Directories {
		cfg.Ingest.Directories[i] = expandPath(cfg.Ingest.Directories[i], configDir)
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Evaluator.Validate(); err != nil {
		return nil, fmt.Errorf("invalid evaluator config: %w", err)
	}
	return &cfg, nil
}

// Default returns a config with every default applied, for running without a file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyEnvOverrides overrides selected fields from CYBORGBENCH_* variables.
func ApplyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CYBORGBENCH_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CYBORGBENCH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CYBORGBENCH_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("CYBORGBENCH_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CYBORGBENCH_DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}
	if v := os.Getenv("CYBORGBENCH_KEY"); v != "" {
		cfg.Vector.EncryptionKey = v
	}
	if v := os.Getenv("CYBORGBENCH_SERVER_URL"); v != "" {
		cfg.Client.ServerURL = v
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
