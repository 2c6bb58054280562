package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clarifier/internal/platform/config"
)

const defaultTimeout = 2 * time.Minute

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("generation: empty response")

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Client is a single-shot text generator.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the configured provider client. It returns nil, nil when no API
// key is configured so callers can run with generation unavailable.
func New(cfg config.GenerationConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	switch cfg.Provider {
	case "", "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model,
			WithBaseURL(cfg.BaseURL), WithMaxTokens(cfg.MaxTokens), WithTimeout(cfg.Timeout)), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model,
			WithBaseURL(cfg.BaseURL), WithMaxTokens(cfg.MaxTokens), WithTimeout(cfg.Timeout)), nil
	default:
		return nil, fmt.Errorf("generation: unknown provider %q", cfg.Provider)
	}
}

type options struct {
	baseURL   string
	maxTokens int
	timeout   time.Duration
}

// Option configures a provider client.
type Option func(*options)

func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = url
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}
