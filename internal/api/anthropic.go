package api

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// AnthropicTransport streams from the Anthropic Messages API.
type AnthropicTransport struct {
	client    anthropic.Client
	maxTokens int64
}

var _ Transport = (*AnthropicTransport)(nil)

// NewAnthropicTransport creates a transport using cfg.AnthropicAPIKey.
func NewAnthropicTransport(cfg *config.Config) *AnthropicTransport {
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = constants.DefaultMaxTokens
	}
	return &AnthropicTransport{
		client: anthropic.NewClient(
			option.WithAPIKey(cfg.AnthropicAPIKey),
			option.WithHTTPClient(logging.NewHTTPClient(constants.DefaultAPITimeout)),
			option.WithMaxRetries(0),
		),
		maxTokens: maxTokens,
	}
}

func (t *AnthropicTransport) Name() string { return config.ProviderAnthropic }

// Stream starts a streamed message. System messages go to the System field.
func (t *AnthropicTransport) Stream(ctx context.Context, model string, messages []history.Message) (FragmentStream, error) {
	system, msgs := toAnthropicMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(nativeModel(model, config.ProviderAnthropic)),
		MaxTokens: t.maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}

	stream := t.client.Messages.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return &anthropicStream{stream: stream}, nil
}

type anthropicStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current string
}

func (s *anthropicStream) Next() bool {
	for s.stream.Next() {
		event := s.stream.Current()
		ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
			s.current = delta.Text
			return true
		}
	}
	return false
}

func (s *anthropicStream) Current() string { return s.current }
func (s *anthropicStream) Err() error      { return s.stream.Err() }
func (s *anthropicStream) Close() error    { return s.stream.Close() }

func toAnthropicMessages(messages []history.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case history.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Text()})
		case history.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text())))
		default:
			out = append(out, anthropic.NewUserMessage(anthropicBlocks(m.Content)...))
		}
	}
	return system, out
}

func anthropicBlocks(c history.Content) []anthropic.ContentBlockParamUnion {
	parts, ok := c.(history.MultipartContent)
	if !ok {
		text := ""
		if c != nil {
			text = c.Text()
		}
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)}
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, p := range parts {
		if p.Type != history.PartImageURL {
			blocks = append(blocks, anthropic.NewTextBlock(p.Text))
			continue
		}
		if mimeType, data, ok := splitDataURL(p.ImageURL); ok {
			blocks = append(blocks, anthropic.NewImageBlockBase64(mimeType, data))
		} else {
			blocks = append(blocks, anthropic.NewTextBlock("[image: "+p.ImageURL+"]"))
		}
	}
	return blocks
}
