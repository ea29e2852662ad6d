// Package llm provides the language model clients used by the reference bot.
package llm

import (
	"context"
	"fmt"
)

// StreamCallback is called for each token during streaming.
type StreamCallback func(token string, index int) error

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderEcho      Provider = "echo"
)

const defaultMaxTokens = 1024

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderEcho:
		return NewEchoClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// Select returns the preferred provider that has a key, falling back to the other one and
// finally to the echo client.
func Select(preferred Provider, anthropicKey, openAIKey string) (Client, error) {
	keys := map[Provider]string{
		ProviderAnthropic: anthropicKey,
		ProviderOpenAI:    openAIKey,
	}
	order := []Provider{ProviderAnthropic, ProviderOpenAI}
	if preferred == ProviderOpenAI {
		order = []Provider{ProviderOpenAI, ProviderAnthropic}
	}
	if preferred == ProviderEcho {
		return NewEchoClient(), nil
	}

	for _, p := range order {
		if keys[p] != "" {
			return NewClient(p, keys[p])
		}
	}
	return NewEchoClient(), nil
}

func maxTokens(req *CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}
