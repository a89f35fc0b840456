package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Content is a message body: either TextContent or MultipartContent.
type Content interface {
	// Text returns the textual parts joined by newlines.
	Text() string
	isContent()
}

// TextContent is a plain string body.
type TextContent string

func (t TextContent) Text() string { return string(t) }
func (TextContent) isContent()     {}

// PartType tags a Part.
type PartType string

const (
	PartText     PartType = "text"
	PartImageURL PartType = "image_url"
)

// Part is one element of a multipart body.
type Part struct {
	Type     PartType
	Text     string // PartText
	ImageURL string // PartImageURL; a data: URL or a remote URL
}

// TextPart returns a text part.
func TextPart(text string) Part { return Part{Type: PartText, Text: text} }

// ImagePart returns an image reference part.
func ImagePart(url string) Part { return Part{Type: PartImageURL, ImageURL: url} }

// MultipartContent is an ordered list of text and image parts.
type MultipartContent []Part

func (m MultipartContent) Text() string {
	var texts []string
	for _, p := range m {
		if p.Type == PartText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (MultipartContent) isContent() {}

// Images returns the image URLs in order.
func (m MultipartContent) Images() []string {
	var urls []string
	for _, p := range m {
		if p.Type == PartImageURL {
			urls = append(urls, p.ImageURL)
		}
	}
	return urls
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content Content
}

// NewText returns a message with a plain text body.
func NewText(role Role, text string) Message {
	return Message{Role: role, Content: TextContent(text)}
}

// Text returns the textual content of the message.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return m.Content.Text()
}

// wire forms, matching the OpenAI chat message layout

type wireMessage struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

type wirePart struct {
	Type     PartType      `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

// MarshalJSON encodes text content as a string and multipart content as an
// array of typed parts.
func (m Message) MarshalJSON() ([]byte, error) {
	var content interface{}
	switch c := m.Content.(type) {
	case nil:
		content = ""
	case TextContent:
		content = string(c)
	case MultipartContent:
		parts := make([]wirePart, 0, len(c))
		for _, p := range c {
			wp := wirePart{Type: p.Type}
			if p.Type == PartImageURL {
				wp.ImageURL = &wireImageURL{URL: p.ImageURL}
			} else {
				wp.Text = p.Text
			}
			parts = append(parts, wp)
		}
		content = parts
	default:
		return nil, fmt.Errorf("unsupported content type %T", m.Content)
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Role: m.Role, Content: raw})
}

// UnmarshalJSON accepts either content shape and rejects unknown roles and part types.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Role.Valid() {
		return fmt.Errorf("invalid role %q", w.Role)
	}

	raw := bytes.TrimSpace(w.Content)
	if len(raw) == 0 {
		return errors.New("message has no content")
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		m.Role, m.Content = w.Role, TextContent(s)
	case '[':
		var wps []wirePart
		if err := json.Unmarshal(raw, &wps); err != nil {
			return err
		}
		parts := make(MultipartContent, 0, len(wps))
		for _, wp := range wps {
			switch wp.Type {
			case PartText:
				parts = append(parts, TextPart(wp.Text))
			case PartImageURL:
				if wp.ImageURL == nil || wp.ImageURL.URL == "" {
					return errors.New("image_url part has no url")
				}
				parts = append(parts, ImagePart(wp.ImageURL.URL))
			default:
				return fmt.Errorf("unknown content part type %q", wp.Type)
			}
		}
		m.Role, m.Content = w.Role, parts
	default:
		return errors.New("content must be a string or an array of parts")
	}
	return nil
}
