package api

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// OpenAITransport talks to any OpenAI-compatible chat completions endpoint.
// The default base URL is the CBORG proxy, which routes "provider/model"
// names to the matching backend.
type OpenAITransport struct {
	client openai.Client
}

var _ Transport = (*OpenAITransport)(nil)

// NewOpenAITransport creates a transport for cfg.BaseURL and cfg.APIKey.
func NewOpenAITransport(cfg *config.Config) *OpenAITransport {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(logging.NewHTTPClient(constants.DefaultAPITimeout)),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAITransport{client: openai.NewClient(opts...)}
}

func (t *OpenAITransport) Name() string { return config.ProviderOpenAI }

// Stream starts a streamed chat completion.
func (t *OpenAITransport) Stream(ctx context.Context, model string, messages []history.Message) (FragmentStream, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(messages),
	}
	stream := t.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	current string
}

func (s *openAIStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		s.current = chunk.Choices[0].Delta.Content
		return true
	}
	return false
}

func (s *openAIStream) Current() string { return s.current }
func (s *openAIStream) Err() error      { return s.stream.Err() }
func (s *openAIStream) Close() error    { return s.stream.Close() }

func toOpenAIMessages(messages []history.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case history.RoleSystem:
			out = append(out, openai.SystemMessage(m.Text()))
		case history.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Text()))
		default:
			parts, ok := m.Content.(history.MultipartContent)
			if !ok {
				out = append(out, openai.UserMessage(m.Text()))
				continue
			}
			content := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
			for _, p := range parts {
				if p.Type == history.PartImageURL {
					content = append(content, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: p.ImageURL}))
				} else {
					content = append(content, openai.TextContentPart(p.Text))
				}
			}
			out = append(out, openai.UserMessage(content))
		}
	}
	return out
}
