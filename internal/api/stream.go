package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/quocvuong92/omni-cli/internal/logging"
)

// chunk is one "data:" event of a chat completions stream.
type chunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Delta struct {
			Content string `json:"content,omitempty"`
		} `json:"delta"`
	} `json:"choices"`
}

// SSEStream reads content deltas from a Server-Sent Events body on demand.
// It stops at "data: [DONE]" or at the end of the body.
type SSEStream struct {
	ctx     context.Context
	body    io.ReadCloser
	reader  *bufio.Reader
	current string
	err     error
	done    bool
}

var _ FragmentStream = (*SSEStream)(nil)

// NewSSEStream wraps body. The stream owns body and closes it on Close.
func NewSSEStream(ctx context.Context, body io.ReadCloser) *SSEStream {
	return &SSEStream{
		ctx:    ctx,
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// Next advances to the next non-empty content delta.
func (s *SSEStream) Next() bool {
	for !s.done {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			s.done = true
			return false
		}

		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			s.err = err
			s.done = true
			return false
		}
		if err == io.EOF {
			s.done = true
		}

		line = strings.TrimSpace(line)
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			s.done = true
			return false
		}

		var c chunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			logging.Warn("failed to parse streaming chunk", "error", err, "data", data)
			continue
		}
		if len(c.Choices) > 0 && c.Choices[0].Delta.Content != "" {
			s.current = c.Choices[0].Delta.Content
			return true
		}
	}
	return false
}

// Current returns the fragment read by the last successful Next.
func (s *SSEStream) Current() string { return s.current }

// Err returns the first read or context error.
func (s *SSEStream) Err() error { return s.err }

// Close releases the body.
func (s *SSEStream) Close() error {
	s.done = true
	return s.body.Close()
}
