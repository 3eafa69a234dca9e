// Package provider implements LLM provider clients behind a common interface.
//
// ORCHAT talks to multiple providers (OpenRouter, local Ollama, Anthropic,
// OpenAI) through the model.Provider interface. Keeping the UI and business
// logic provider-agnostic makes adding a provider a matter of implementing
// the interface and registering it in the factory.
//
// # Architecture
//
//   - model.Provider defines the contract (in the model package, to avoid
//     import cycles: implementations import model, model never imports this
//     package)
//   - provider.OpenRouterProvider: OpenAI-compatible API, also reports key
//     usage via model.RateInfoProvider
//   - provider.OllamaProvider: local Ollama server
//   - provider.AnthropicProvider: Anthropic Messages API
//   - provider.OpenAIProvider: OpenAI API
//   - provider.NewProvider() factory creates providers from config
//
// # Usage
//
//	cfg := provider.Config{
//	    Type:    provider.ProviderTypeOpenRouter,
//	    BaseURL: "https://openrouter.ai/api/v1",
//	    APIKey:  key,
//	    Model:   "meta-llama/llama-3.2-90b-instruct",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    // handle error
//	}
//	reply, err := p.Chat(ctx, messages)
package provider

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // For cloud providers (unused for Ollama)
}
