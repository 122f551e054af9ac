// Package llm is the model analyzer: it asks a language model to classify a
// text and shapes the reply into a ClassificationResult.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable means no provider is configured or it cannot be reached
var ErrUnavailable = errors.New("model analyzer unavailable")

// ErrModel wraps every failed provider call
var ErrModel = errors.New("model call failed")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one system + user prompt and returns the raw reply text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string // provider default when empty
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the provider's reply
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens and Temperature for response generation
	MaxTokens   int
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		MaxTokens:   1000,
		Temperature: 0.1,
	}
}

// APIError is a non-2xx reply from a provider
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return fmt.Sprintf("rate limit reached (%d): %s", e.StatusCode, e.Message)
	case e.StatusCode >= 500:
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	case e.Type != "":
		return fmt.Sprintf("API error (%d): %s - %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, ErrModel) match any API error
func (e *APIError) Unwrap() error {
	return ErrModel
}

// RateLimited reports whether the provider rejected the call for rate
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Retryable reports whether the same call may succeed later
func (e *APIError) Retryable() bool {
	return e.RateLimited() || e.StatusCode >= 500
}
