package llm

import (
	"context"
	"fmt"
)

// Response is one model reply with the metadata the orchestrator needs
type Response struct {
	Text         string
	Model        string
	Truncated    bool // stopped at the output-length limit
	InputTokens  int64
	OutputTokens int64
}

// TokensUsed returns the total tokens billed for the call
func (r *Response) TokensUsed() int64 {
	return r.InputTokens + r.OutputTokens
}

// Client is an abstraction over LLM providers
type Client interface {
	// Generate sends a single user prompt and returns the reply
	Generate(ctx context.Context, prompt string) (*Response, error)
	// Model returns the model name requests are sent to
	Model() string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return NewAnthropicClient(config, apiKey)
	}
}
