// Package config provides configuration loading and management for Huddle.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend selects the durable storage implementation.
const (
	BackendFile = "file"
	BackendNATS = "nats"
)

// Config represents the complete Huddle configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	NATS    NATSConfig    `yaml:"nats"`
	Session SessionConfig `yaml:"session"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StorageConfig configures durable state storage
type StorageConfig struct {
	// Backend selects the storage implementation ("file" or "nats")
	Backend string `yaml:"backend"`
	// Dir is the directory for the file backend (auto-detected if empty)
	Dir string `yaml:"dir"`
	// Bucket is the JetStream KV bucket for the nats backend
	Bucket string `yaml:"bucket"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
}

// SessionConfig configures session behavior
type SessionConfig struct {
	// SweepInterval is how often expired stories are evicted
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// MetricsConfig configures metrics exposition
type MetricsConfig struct {
	// ListenAddr serves Prometheus metrics when set (e.g. ":9101")
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Dir:     "", // Auto-detect
			Bucket:  "HUDDLE_STATE",
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
		Session: SessionConfig{
			SweepInterval: time.Minute,
		},
		Metrics: MetricsConfig{
			ListenAddr: "",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendNATS:
	default:
		return fmt.Errorf("storage.backend must be %q or %q", BackendFile, BackendNATS)
	}
	if c.Storage.Backend == BackendNATS && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for the nats backend")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Storage
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Dir != "" {
		c.Storage.Dir = other.Storage.Dir
	}
	if other.Storage.Bucket != "" {
		c.Storage.Bucket = other.Storage.Bucket
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}

	// Session
	if other.Session.SweepInterval != 0 {
		c.Session.SweepInterval = other.Session.SweepInterval
	}

	// Metrics
	if other.Metrics.ListenAddr != "" {
		c.Metrics.ListenAddr = other.Metrics.ListenAddr
	}
}
