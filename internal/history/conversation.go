package history

import "errors"

// ErrNoSystemMessage is returned when a message list does not start with a
// system message.
var ErrNoSystemMessage = errors.New("conversation must start with a system message")

// Conversation is an ordered, role-tagged message thread whose first
// message is always the system prompt.
type Conversation struct {
	messages []Message
}

// NewConversation starts a conversation seeded with a system prompt.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{messages: []Message{NewText(RoleSystem, systemPrompt)}}
}

// FromMessages builds a conversation from an existing message list.
func FromMessages(msgs []Message) (*Conversation, error) {
	if len(msgs) == 0 || msgs[0].Role != RoleSystem {
		return nil, ErrNoSystemMessage
	}
	c := &Conversation{messages: make([]Message, len(msgs))}
	copy(c.messages, msgs)
	return c, nil
}

// Append adds messages at the end.
func (c *Conversation) Append(msgs ...Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages, system prompt included.
func (c *Conversation) Len() int { return len(c.messages) }

// Messages returns a copy of the thread.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// With returns a copy of the thread with extra appended, leaving c untouched.
func (c *Conversation) With(extra ...Message) []Message {
	out := make([]Message, 0, len(c.messages)+len(extra))
	out = append(out, c.messages...)
	return append(out, extra...)
}

// System returns the system message.
func (c *Conversation) System() Message { return c.messages[0] }

// Last returns the final message.
func (c *Conversation) Last() Message { return c.messages[len(c.messages)-1] }

// Reset drops everything after the system message. The system message
// itself is kept exactly as it was.
func (c *Conversation) Reset() {
	c.messages = c.messages[:1:1]
}

// Replace swaps the whole thread for other's messages.
func (c *Conversation) Replace(other *Conversation) {
	c.messages = other.Messages()
}
