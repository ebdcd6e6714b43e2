// Package config loads optional YAML configuration of feed and download behavior.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"

	"github.com/umputun/feedpick/pkg/domain"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Feed     FeedConfig     `yaml:"feed" json:"feed" jsonschema:"description=Feed retrieval configuration"`
	Download DownloadConfig `yaml:"download" json:"download" jsonschema:"description=Media download configuration"`
}

// FeedConfig holds feed retrieval settings
type FeedConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30000000000,description=Feed request timeout in nanoseconds (30s in yaml)"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=feedpick/1.0,description=User agent for feed requests"`
}

// DownloadConfig holds media download settings
type DownloadConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent" json:"max_concurrent" jsonschema:"default=1,minimum=1,description=Maximum concurrent downloads"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=1800000000000,description=Timeout of a single download including retries in nanoseconds (30m in yaml)"`
	Retries       int           `yaml:"retries" json:"retries" jsonschema:"default=3,minimum=0,description=Retries of a failed download"`
	RetryDelay    time.Duration `yaml:"retry_delay" json:"retry_delay" jsonschema:"default=300000000,description=Initial delay between retries in nanoseconds (300ms in yaml)"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=feedpick/1.0,description=User agent for media requests"`
}

const defaultUserAgent = "feedpick/1.0"

// Default returns configuration used when no config file is given
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg, nil)
	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, &domain.ConfigError{Field: "config", Reason: fmt.Sprintf("read config file: %v", err)}
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, &domain.ConfigError{Field: "config", Reason: fmt.Sprintf("parse config: %v", err)}
	}

	setDefaults(&cfg, explicitKeys(expanded, "download"))

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		lgr.Printf("[WARN] schema validation failed: %v", err)
	}

	return &cfg, nil
}

// setDefaults fills unset values. Keys listed in explicit download settings keep their zero
// values, so an explicit zero concurrency fails validation and explicit zero retries disable them.
func setDefaults(cfg *Config, explicit map[string]bool) {
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 30 * time.Second
	}
	if cfg.Feed.UserAgent == "" {
		cfg.Feed.UserAgent = defaultUserAgent
	}

	if cfg.Download.MaxConcurrent == 0 && !explicit["max_concurrent"] {
		cfg.Download.MaxConcurrent = 1
	}
	if !explicit["retries"] {
		cfg.Download.Retries = 3
	}
	if cfg.Download.Timeout == 0 {
		cfg.Download.Timeout = 30 * time.Minute
	}
	if cfg.Download.RetryDelay == 0 {
		cfg.Download.RetryDelay = 300 * time.Millisecond
	}
	if cfg.Download.UserAgent == "" {
		cfg.Download.UserAgent = defaultUserAgent
	}
}

// explicitKeys returns keys of the section set in the yaml document
func explicitKeys(doc, section string) map[string]bool {
	var raw map[string]map[string]any
	if err := yaml.Unmarshal([]byte(doc), &raw); err != nil {
		return nil
	}
	res := make(map[string]bool, len(raw[section]))
	for k := range raw[section] {
		res[k] = true
	}
	return res
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Feed.Timeout < time.Second {
		return &domain.ConfigError{Field: "feed.timeout", Reason: "must be at least 1 second"}
	}
	if cfg.Download.MaxConcurrent < 1 {
		return &domain.ConfigError{Field: "download.max_concurrent", Reason: "must be at least 1"}
	}
	if cfg.Download.Timeout < time.Second {
		return &domain.ConfigError{Field: "download.timeout", Reason: "must be at least 1 second"}
	}
	if cfg.Download.Retries < 0 {
		return &domain.ConfigError{Field: "download.retries", Reason: "must be non-negative"}
	}
	if cfg.Download.RetryDelay < 0 {
		return &domain.ConfigError{Field: "download.retry_delay", Reason: "must be non-negative"}
	}
	return nil
}
