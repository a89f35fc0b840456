package api

import (
	"context"
	"encoding/base64"
	"iter"

	"google.golang.org/genai"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// GeminiTransport streams from the Gemini API.
type GeminiTransport struct {
	client *genai.Client
}

var _ Transport = (*GeminiTransport)(nil)

// NewGeminiTransport creates a transport using cfg.GeminiAPIKey.
func NewGeminiTransport(ctx context.Context, cfg *config.Config) (*GeminiTransport, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: logging.NewHTTPClient(constants.DefaultAPITimeout),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "gemini", err)
	}
	return &GeminiTransport{client: client}, nil
}

func (t *GeminiTransport) Name() string { return config.ProviderGemini }

// Stream starts a streamed generation. The system message becomes the
// system instruction and assistant turns use the "model" role.
func (t *GeminiTransport) Stream(ctx context.Context, model string, messages []history.Message) (FragmentStream, error) {
	contents, genConfig := toGeminiContents(messages)
	seq := t.client.Models.GenerateContentStream(ctx, nativeModel(model, "google"), contents, genConfig)
	return newGeminiStream(seq), nil
}

// geminiStream pulls from the SDK's push iterator one response at a time.
type geminiStream struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	current string
	err     error
}

func newGeminiStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *geminiStream {
	next, stop := iter.Pull2(seq)
	return &geminiStream{next: next, stop: stop}
}

func (s *geminiStream) Next() bool {
	if s.err != nil {
		return false
	}
	for {
		resp, err, ok := s.next()
		if !ok {
			return false
		}
		if err != nil {
			s.err = err
			return false
		}
		if resp == nil {
			continue
		}
		if text := resp.Text(); text != "" {
			s.current = text
			return true
		}
	}
}

func (s *geminiStream) Current() string { return s.current }
func (s *geminiStream) Err() error      { return s.err }

func (s *geminiStream) Close() error {
	s.stop()
	return nil
}

func toGeminiContents(messages []history.Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	genConfig := &genai.GenerateContentConfig{}
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case history.RoleSystem:
			genConfig.SystemInstruction = genai.NewContentFromText(m.Text(), genai.RoleUser)
		case history.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Text(), genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromParts(geminiParts(m.Content), genai.RoleUser))
		}
	}
	return contents, genConfig
}

func geminiParts(c history.Content) []*genai.Part {
	parts, ok := c.(history.MultipartContent)
	if !ok {
		text := ""
		if c != nil {
			text = c.Text()
		}
		return []*genai.Part{genai.NewPartFromText(text)}
	}
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Type != history.PartImageURL {
			out = append(out, genai.NewPartFromText(p.Text))
			continue
		}
		mimeType, data, ok := splitDataURL(p.ImageURL)
		if !ok {
			out = append(out, genai.NewPartFromURI(p.ImageURL, "image/*"))
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			logging.Warn("dropping undecodable image part", "error", err)
			continue
		}
		out = append(out, genai.NewPartFromBytes(raw, mimeType))
	}
	return out
}
