package config

import (
	"fmt"
	"os"
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/orchat",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		DefaultProvider: "openrouter",
		Ollama: OllamaConfig{
			Host:         "http://localhost:11434",
			DefaultModel: "llama3.1:latest",
		},
		Providers: []ProviderConfig{
			{ID: "openrouter", Name: "OpenRouter", BaseURL: "https://openrouter.ai/api/v1", Enabled: true},
			{ID: "ollama", Name: "Ollama", BaseURL: "http://localhost:11434", Enabled: true},
			{ID: "anthropic", Name: "Anthropic", BaseURL: "https://api.anthropic.com", Enabled: false},
			{ID: "openai", Name: "OpenAI", BaseURL: "https://api.openai.com/v1", Enabled: false},
		},
		Tools: ToolsConfig{
			Enabled: true,
		},
		Security: SecurityConfig{
			Method: string(SecurityPlainText),
		},
	}
}

// DefaultProviderBaseURL returns the well-known base URL for a provider ID.
func DefaultProviderBaseURL(id string) string {
	switch id {
	case "ollama":
		return "http://localhost:11434"
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "anthropic":
		return "https://api.anthropic.com"
	case "openai":
		return "https://api.openai.com/v1"
	default:
		return ""
	}
}

// ProviderDisplayName returns the display name for a provider ID.
func ProviderDisplayName(id string) string {
	switch id {
	case "ollama":
		return "Ollama"
	case "openrouter":
		return "OpenRouter"
	case "anthropic":
		return "Anthropic"
	case "openai":
		return "OpenAI"
	default:
		return id
	}
}

func GenerateSystemConfigTemplate() string {
	return `# ORCHAT System Configuration
# Location: ~/.config/orchat/settings.toml
# This file uses TOML format: https://toml.io

# Directory where conversations and user config are stored
data_directory = "~/.local/share/orchat"
`
}

func GenerateUserConfigTemplate() string {
	return `# ORCHAT User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Provider used when starting a new conversation:
# "openrouter", "ollama", "anthropic" or "openai"
default_provider = "openrouter"

# Default system prompt for new conversations (optional)
# Example: "You are a helpful assistant."
default_system_prompt = ""

[ollama]
# Ollama server URL
host = "http://localhost:11434"

# Default model when Ollama is the active provider
default_model = "llama3.1:latest"

[tools]
# Structured data tools (time, weather, finance cards)
enabled = true

# Path to the tool catalog; defaults to <data_directory>/tools.json
# catalog_path = ""

[security]
# Credential storage: "plaintext" or "ssh_key"
method = "plaintext"
# ssh_key_path = "~/.ssh/id_ed25519"

[[providers]]
id = "openrouter"
name = "OpenRouter"
base_url = "https://openrouter.ai/api/v1"
enabled = true

[[providers]]
id = "ollama"
name = "Ollama"
base_url = "http://localhost:11434"
enabled = true

[[providers]]
id = "anthropic"
name = "Anthropic"
base_url = "https://api.anthropic.com"
enabled = false

[[providers]]
id = "openai"
name = "OpenAI"
base_url = "https://api.openai.com/v1"
enabled = false
`
}

// GenerateToolCatalogTemplate returns the default tool catalog JSON.
// Each entry's llm_instructions is injected verbatim into the model prompt,
// so the JSON shapes described there must match what the renderers expect.
func GenerateToolCatalogTemplate() string {
	return `{
  "tools": [
    {
      "id": "time",
      "name": "Time",
      "keywords": ["time in", "what time", "current time", "local time", "timezone"],
      "llm_instructions": "Returns the current local time for a place. To invoke, reply with ONLY this raw JSON and nothing else: {\"tool\": \"time\", \"location\": \"<city or place name>\"}",
      "backend_endpoint": "/tools/time",
      "renderer": "time"
    },
    {
      "id": "weather",
      "name": "Weather",
      "keywords": ["weather", "forecast", "temperature in", "how hot", "how cold", "raining", "snowing"],
      "llm_instructions": "Returns current weather and an hourly outlook for a place. To invoke, reply with ONLY this raw JSON and nothing else: {\"tool\": \"weather\", \"location\": \"<city or place name>\"}",
      "backend_endpoint": "/tools/weather",
      "renderer": "weather"
    },
    {
      "id": "finance",
      "name": "Finance",
      "keywords": ["stock", "share price", "ticker", "quote for", "stock price", "market cap"],
      "keyword_context": ["price", "stock", "share", "market", "trading", "chart"],
      "llm_instructions": "Returns a price chart for a stock, index, currency pair or crypto asset. To invoke, reply with ONLY this raw JSON and nothing else: {\"tool\": \"finance\", \"query\": \"<company name or ticker symbol>\"}. Optionally add \"range\" (1d, 5d, 1mo, 3mo, 6mo, 1y, 5y, max) and \"interval\" (1m, 5m, 15m, 1h, 1d, 1wk, 1mo).",
      "backend_endpoint": "/tools/finance",
      "renderer": "finance"
    }
  ]
}
`
}

// CreateDefaultToolCatalog writes the default catalog if none exists at path.
func CreateDefaultToolCatalog(path string) error {
	if FileExists(path) {
		return nil
	}

	if err := os.WriteFile(path, []byte(GenerateToolCatalogTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write tool catalog: %w", err)
	}

	return nil
}
