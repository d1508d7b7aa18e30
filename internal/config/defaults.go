package config

// Default values. Exported where other packages need the same literal.
const (
	DefaultProviderBaseURL     = "https://api.groq.com/openai/v1"
	DefaultProviderModel       = "llama-3.3-70b-versatile"
	DefaultProviderTemperature = 0.7
	DefaultProviderMaxTokens   = 4096
	DefaultAPIKeyEnv           = "GROQ_API_KEY"
	DefaultSystemPrompt        = "You are Q, an AI assistant."
	DefaultStorageKey          = "q-conversations"
	DefaultErrorMessage        = "Sorry, I encountered an error. Please try again or contact TQL at (800) 304-1925."
	DefaultFallbackPhrase      = "You got me on this one. Can you provide more details?"
	DefaultDeflectionPhrase    = "Let's stay on subject, How can I help you close more deals?"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultProviderBaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultProviderModel
	}
	if cfg.Provider.Temperature == nil {
		temperature := float32(DefaultProviderTemperature)
		cfg.Provider.Temperature = &temperature
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = DefaultProviderMaxTokens
	}
	if cfg.Provider.APIKeyEnv == "" {
		cfg.Provider.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Provider.DefaultSystemPrompt == "" {
		cfg.Provider.DefaultSystemPrompt = DefaultSystemPrompt
	}
	if cfg.Prompt.AssistantName == "" {
		cfg.Prompt.AssistantName = "Q"
	}
	if cfg.Prompt.CompanyName == "" {
		cfg.Prompt.CompanyName = "Total Quality Lending"
	}
	if cfg.Prompt.MaxWords == 0 {
		cfg.Prompt.MaxWords = 150
	}
	if cfg.Prompt.FallbackPhrase == "" {
		cfg.Prompt.FallbackPhrase = DefaultFallbackPhrase
	}
	if cfg.Prompt.DeflectionPhrase == "" {
		cfg.Prompt.DeflectionPhrase = DefaultDeflectionPhrase
	}
	if cfg.Client.ServerURL == "" {
		cfg.Client.ServerURL = "http://localhost:3000"
	}
	if cfg.Client.DatabasePath == "" {
		cfg.Client.DatabasePath = ".qassist/conversations.db"
	}
	if cfg.Client.StorageKey == "" {
		cfg.Client.StorageKey = DefaultStorageKey
	}
	if cfg.Client.ErrorMessage == "" {
		cfg.Client.ErrorMessage = DefaultErrorMessage
	}
}
