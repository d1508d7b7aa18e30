// Package config provides configuration loading and structs for the qassist server and client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Client    ClientConfig    `yaml:"client"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RelayRatePerMinute caps relay requests across all callers. Zero disables the limit.
	RelayRatePerMinute int `yaml:"relay_rate_per_minute"`
}

// ProviderConfig describes the OpenAI-compatible completion API the relay forwards to.
// Temperature is a pointer so an explicit 0 is kept rather than defaulted.
type ProviderConfig struct {
	BaseURL             string   `yaml:"base_url"`
	Model               string   `yaml:"model"`
	Temperature         *float32 `yaml:"temperature"`
	MaxTokens           int      `yaml:"max_tokens"`
	APIKeyEnv           string   `yaml:"api_key_env"`
	DefaultSystemPrompt string   `yaml:"default_system_prompt"`
}

// KnowledgeConfig locates optional overrides for the embedded knowledge document.
type KnowledgeConfig struct {
	Path         string `yaml:"path"`
	MatricesPath string `yaml:"matrices_path"`
	Watch        bool   `yaml:"watch"`
}

// PromptConfig holds the behavioural parameters of the system prompt.
type PromptConfig struct {
	AssistantName    string `yaml:"assistant_name"`
	CompanyName      string `yaml:"company_name"`
	MaxWords         int    `yaml:"max_words"`
	FallbackPhrase   string `yaml:"fallback_phrase"`
	DeflectionPhrase string `yaml:"deflection_phrase"`
}

// ClientConfig holds settings for the terminal chat client.
type ClientConfig struct {
	ServerURL    string `yaml:"server_url"`
	DatabasePath string `yaml:"database_path"`
	StorageKey   string `yaml:"storage_key"`
	ErrorMessage string `yaml:"error_message"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
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
	cfg.Client.DatabasePath = expandPath(cfg.Client.DatabasePath, configDir)
	if cfg.Knowledge.Path != "" {
		cfg.Knowledge.Path = expandPath(cfg.Knowledge.Path, configDir)
	}
	if cfg.Knowledge.MatricesPath != "" {
		cfg.Knowledge.MatricesPath = expandPath(cfg.Knowledge.MatricesPath, configDir)
	}

	return &cfg, nil
}

// Default returns a config with every field set to its default, for running without a file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Client.DatabasePath = expandPath(cfg.Client.DatabasePath, ".")
	return &cfg
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return c.Server.Addr()
}

// Addr returns host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
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
