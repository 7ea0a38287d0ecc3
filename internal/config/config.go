// Package config holds all mudmind configuration, loaded from a YAML file
// with environment overrides for secrets. The resulting Config is constructed
// once in cmd and passed down explicitly; there is no global.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Session    SessionConfig    `yaml:"session"`
	LLM        LLMConfig        `yaml:"llm"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Store      StoreConfig      `yaml:"store"`
	Approval   ApprovalConfig   `yaml:"approval"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SessionConfig points at the remote game.
type SessionConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port dial address.
func (s SessionConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMConfig configures the chat-completion backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     string  `yaml:"timeout"`
}

// TimeoutDuration parses the timeout string, falling back to two minutes.
func (l LLMConfig) TimeoutDuration() time.Duration {
	if l.Timeout == "" {
		return 2 * time.Minute
	}
	d, err := time.ParseDuration(l.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// TranscriptConfig bounds the conversation log.
type TranscriptConfig struct {
	TokenBudget int `yaml:"token_budget"`
}

// StoreConfig locates character persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ApprovalConfig controls the human directive gate.
type ApprovalConfig struct {
	Required bool `yaml:"required"`
}

// LoggingConfig controls the zap logger built in cmd.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// Default returns the baseline configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Session: SessionConfig{Host: "localhost", Port: 4000},
		LLM: LLMConfig{
			Provider:    "anthropic",
			Temperature: 0.7,
			MaxTokens:   1024,
			Timeout:     "2m",
		},
		Transcript: TranscriptConfig{TokenBudget: 12000},
		Store:      StoreConfig{DatabasePath: filepath.Join(home, ".mudmind", "characters.db")},
		Logging:    LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error: defaults plus
// environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills the API key from the environment when the file left it
// blank. MUDMIND_API_KEY wins over the provider-specific names.
func (c *Config) applyEnv() {
	if c.LLM.APIKey != "" {
		return
	}
	if key := os.Getenv("MUDMIND_API_KEY"); key != "" {
		c.LLM.APIKey = key
		return
	}
	switch c.LLM.Provider {
	case "anthropic":
		c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mudmind.yaml"
	}
	return filepath.Join(home, ".mudmind", "config.yaml")
}
