package model

import (
	"context"
	"fmt"
)

// Provider abstracts LLM provider implementations (OpenRouter, Ollama,
// Anthropic, OpenAI) using provider-agnostic types from the model layer.
//
// This interface is defined in the model package (not provider package) to
// avoid import cycles: provider implementations can import model, and model
// can use the Provider interface without importing the provider package.
type Provider interface {
	// Chat sends the conversation and returns the assistant's full reply.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ListModels returns available models for this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the currently selected model name (InternalName for API calls).
	GetModel() string

	// GetDisplayName returns the model name formatted for UI display.
	// For OpenRouter, this strips the vendor prefix
	// (e.g., "qwen/qwen3-coder:free" → "qwen3-coder:free").
	GetDisplayName() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// ModelInfo describes one selectable model.
type ModelInfo struct {
	Name         string // Display name (vendor prefix stripped for OpenRouter)
	InternalName string // Full API name (e.g., "meta-llama/llama-3.2-90b")
	Provider     string // Provider ID: "openrouter", "ollama", "anthropic", "openai"
}

// RateInfo reports API key usage and limits for providers that expose them.
type RateInfo struct {
	Label          string
	Usage          float64
	Limit          *float64 // nil means unlimited
	LimitRemaining *float64
	IsFreeTier     bool
}

// RateInfoProvider is implemented by providers that can report key usage.
type RateInfoProvider interface {
	RateInfo(ctx context.Context) (*RateInfo, error)
}

// RateLimitError indicates the provider rejected the request with HTTP 429.
type RateLimitError struct {
	Provider string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded, try again shortly", e.Provider)
}
