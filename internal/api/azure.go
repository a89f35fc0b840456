package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// ChatRequest represents the Chat Completions API request
type ChatRequest struct {
	Model    string            `json:"model"`
	Messages []history.Message `json:"messages"`
	Stream   bool              `json:"stream,omitempty"`
}

// AzureErrorResponse represents an Azure API error
type AzureErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// AzureTransport is the Azure OpenAI client. It speaks the chat completions
// wire format directly and reads the SSE body itself.
type AzureTransport struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

var _ Transport = (*AzureTransport)(nil)

// NewAzureTransport creates a new Azure OpenAI transport
func NewAzureTransport(cfg *config.Config) *AzureTransport {
	return &AzureTransport{
		httpClient: logging.NewHTTPClient(constants.DefaultAPITimeout),
		url:        cfg.GetAzureAPIURL(),
		apiKey:     cfg.AzureAPIKey,
	}
}

func (t *AzureTransport) Name() string { return config.ProviderAzure }

// Stream posts the conversation with stream=true and returns a reader over
// the event stream. A non-200 status is returned as *APIError.
func (t *AzureTransport) Stream(ctx context.Context, model string, messages []history.Message) (FragmentStream, error) {
	jsonData, err := json.Marshal(ChatRequest{
		Model:    nativeModel(model, "azure"),
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		var errResp AzureErrorResponse
		errMsg := fmt.Sprintf("status code %d", resp.StatusCode)
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			errMsg = errResp.Error.Message
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Azure API error: %s", errMsg),
		}
	}

	return NewSSEStream(ctx, resp.Body), nil
}
