package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation(t *testing.T) {
	c := NewConversation("be brief")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, NewText(RoleSystem, "be brief"), c.System())
	assert.Equal(t, c.System(), c.Last())
}

func TestConversation_WithLeavesThreadUntouched(t *testing.T) {
	c := NewConversation("sys")
	c.Append(NewText(RoleUser, "one"))

	extended := c.With(NewText(RoleUser, "two"))
	assert.Len(t, extended, 3)
	assert.Equal(t, 2, c.Len())

	extended[0] = NewText(RoleSystem, "changed")
	assert.Equal(t, "sys", c.System().Text())
}

func TestConversation_MessagesIsACopy(t *testing.T) {
	c := NewConversation("sys")
	msgs := c.Messages()
	msgs[0] = NewText(RoleUser, "x")
	assert.Equal(t, RoleSystem, c.System().Role)
}

func TestConversation_Reset(t *testing.T) {
	c := NewConversation("sys")
	c.Append(NewText(RoleUser, "q"), NewText(RoleAssistant, "a"))
	c.Reset()

	assert.Equal(t, []Message{NewText(RoleSystem, "sys")}, c.Messages())

	c.Append(NewText(RoleUser, "again"))
	assert.Equal(t, 2, c.Len())
}

func TestFromMessages(t *testing.T) {
	_, err := FromMessages(nil)
	assert.ErrorIs(t, err, ErrNoSystemMessage)

	_, err = FromMessages([]Message{NewText(RoleUser, "hi")})
	assert.ErrorIs(t, err, ErrNoSystemMessage)

	src := []Message{NewText(RoleSystem, "s"), NewText(RoleUser, "u")}
	c, err := FromMessages(src)
	require.NoError(t, err)
	src[1] = NewText(RoleUser, "mutated")
	assert.Equal(t, "u", c.Last().Text())
}

func TestConversation_Replace(t *testing.T) {
	c := NewConversation("old")
	other := NewConversation("new")
	other.Append(NewText(RoleUser, "hi"))

	c.Replace(other)
	assert.Equal(t, other.Messages(), c.Messages())
}
