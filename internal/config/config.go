// Package config handles reflect configuration loading. Provider selection is
// explicit here: the chat client is chosen by the config file and injected
// into the loop, never discovered from the environment by the core.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	Provider string         `yaml:"provider"` // gemini, openai, groq or mock
	APIKey   string         `yaml:"api_key"`
	BaseURL  string         `yaml:"base_url"`
	Model    string         `yaml:"model"`
	Loop     LoopConfig     `yaml:"loop"`
	Verifier VerifierConfig `yaml:"verifier"`
	LogLevel string         `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`    // Default: 8080
}

type LoopConfig struct {
	MaxSteps         int    `yaml:"max_steps"`
	StopOnApproval   *bool  `yaml:"stop_on_approval"` // default true
	StepDelayMS      int    `yaml:"step_delay_ms"`
	GenerationPrompt string `yaml:"generation_prompt"`
	ReflectionPrompt string `yaml:"reflection_prompt"`
}

type VerifierConfig struct {
	PythonBin  string `yaml:"python_bin"`  // default python3
	TimeoutSec int    `yaml:"timeout_sec"` // per evaluator call, default 10
}

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/reflect/config.yaml, /etc/reflect/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reflect", "config.yaml"))
	}

	paths = append(paths, "/etc/reflect/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists,
// or "" when nothing was found (callers fall back to Default).
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// Default returns a runnable configuration: the deterministic mock client on
// port 8080, three steps, stop on approval.
func Default() *Config {
	cfg := &Config{
		Provider: "mock",
		LogLevel: "info",
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	switch cfg.Provider {
	case "gemini", "openai", "groq", "mock":
	default:
		return nil, fmt.Errorf("unknown provider %q in %s", cfg.Provider, path)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "mock"
	}
	if c.Listen.Port == 0 {
		c.Listen.Port = 8080
	}
	if c.Loop.MaxSteps <= 0 {
		c.Loop.MaxSteps = 3
	}
	if c.Verifier.PythonBin == "" {
		c.Verifier.PythonBin = "python3"
	}
	if c.Verifier.TimeoutSec <= 0 {
		c.Verifier.TimeoutSec = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// StopOnApproval resolves the tri-state yaml field; unset means true.
func (c *LoopConfig) StopOnApprovalEnabled() bool {
	if c.StopOnApproval == nil {
		return true
	}
	return *c.StopOnApproval
}

func (c *LoopConfig) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMS) * time.Millisecond
}

func (c *VerifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// SlogLevel maps the configured log level onto slog, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
