package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/history"
)

// FragmentStream is a lazy, finite, non-restartable sequence of reply
// fragments. Callers loop on Next, read Current, then check Err and Close.
type FragmentStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Transport opens a streamed chat completion.
type Transport interface {
	Stream(ctx context.Context, model string, messages []history.Message) (FragmentStream, error)
	Name() string
}

// APIError represents an error with status code
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewTransport creates the transport for cfg.Provider.
func NewTransport(cfg *config.Config) (Transport, error) {
	switch cfg.Provider {
	case "", config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, apperr.Configuration("transport", fmt.Sprintf("%s is not set", config.EnvAPIKey))
		}
		return NewOpenAITransport(cfg), nil
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, apperr.Configuration("transport", fmt.Sprintf("%s is not set", config.EnvAnthropicAPIKey))
		}
		return NewAnthropicTransport(cfg), nil
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, apperr.Configuration("transport", fmt.Sprintf("%s is not set", config.EnvGeminiAPIKey))
		}
		return NewGeminiTransport(context.Background(), cfg)
	case config.ProviderAzure:
		if cfg.AzureEndpoint == "" || cfg.AzureAPIKey == "" {
			return nil, apperr.Configuration("transport",
				fmt.Sprintf("azure needs %s and %s", config.EnvAzureEndpoint, config.EnvAzureAPIKey))
		}
		return NewAzureTransport(cfg), nil
	default:
		return nil, apperr.Configuration("transport", fmt.Sprintf("unknown provider %q", cfg.Provider))
	}
}

// nativeModel strips a routing prefix such as "anthropic/" from model
// names written for an OpenAI-compatible proxy.
func nativeModel(model, prefix string) string {
	return strings.TrimPrefix(model, prefix+"/")
}

// splitDataURL returns the MIME type and base64 payload of a data: URL.
func splitDataURL(u string) (mimeType, data string, ok bool) {
	rest, found := strings.CutPrefix(u, "data:")
	if !found {
		return "", "", false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mimeType, found = strings.CutSuffix(meta, ";base64")
	if !found || mimeType == "" {
		return "", "", false
	}
	return mimeType, payload, true
}
