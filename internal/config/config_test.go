package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
provider:
  model: "llama-3.1-8b-instant"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Provider.Model != "llama-3.1-8b-instant" {
		t.Errorf("model = %q", cfg.Provider.Model)
	}
	if cfg.Provider.BaseURL != DefaultProviderBaseURL {
		t.Errorf("base_url should default, got %q", cfg.Provider.BaseURL)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Knowledge.Watch {
		t.Error("knowledge.watch should default to false")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
knowledge:
  path: "./kb/knowledge.yaml"
  matrices_path: "./kb/matrices.xlsx"
client:
  database_path: "./data/conversations.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "conversations.db"); cfg.Client.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.Client.DatabasePath, want)
	}
	if want := filepath.Join(dir, "kb", "knowledge.yaml"); cfg.Knowledge.Path != want {
		t.Errorf("Knowledge.Path = %q, want %q", cfg.Knowledge.Path, want)
	}
	if want := filepath.Join(dir, "kb", "matrices.xlsx"); cfg.Knowledge.MatricesPath != want {
		t.Errorf("MatricesPath = %q, want %q", cfg.Knowledge.MatricesPath, want)
	}
}

func TestLoad_emptyKnowledgePathStaysEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 3001\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Knowledge.Path != "" {
		t.Errorf("empty knowledge.path means embedded data, got %q", cfg.Knowledge.Path)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"host", cfg.Server.Host, "localhost"},
		{"port", cfg.Server.Port, 3000},
		{"rate", cfg.Server.RelayRatePerMinute, 0},
		{"model", cfg.Provider.Model, "llama-3.3-70b-versatile"},
		{"temperature", *cfg.Provider.Temperature, float32(0.7)},
		{"max_tokens", cfg.Provider.MaxTokens, 4096},
		{"api_key_env", cfg.Provider.APIKeyEnv, "GROQ_API_KEY"},
		{"system", cfg.Provider.DefaultSystemPrompt, "You are Q, an AI assistant."},
		{"assistant", cfg.Prompt.AssistantName, "Q"},
		{"max_words", cfg.Prompt.MaxWords, 150},
		{"storage_key", cfg.Client.StorageKey, "q-conversations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	temperature := float32(0.2)
	cfg := Config{Provider: ProviderConfig{Temperature: &temperature, APIKeyEnv: "OPENAI_API_KEY"}}
	ApplyDefaults(&cfg)
	if *cfg.Provider.Temperature != 0.2 {
		t.Errorf("temperature overwritten: %v", *cfg.Provider.Temperature)
	}
	if cfg.Provider.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("api_key_env overwritten: %q", cfg.Provider.APIKeyEnv)
	}
}

func TestLoad_zeroTemperatureKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("provider:\n  temperature: 0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Temperature == nil || *cfg.Provider.Temperature != 0 {
		t.Errorf("temperature = %v, want explicit 0", cfg.Provider.Temperature)
	}
}

func TestConfig_Addr(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "0.0.0.0", Port: 8081}}
	if got := cfg.Addr(); got != "0.0.0.0:8081" {
		t.Errorf("Addr() = %q", got)
	}
}
