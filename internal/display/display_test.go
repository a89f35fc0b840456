package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quocvuong92/omni-cli/internal/files"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/search"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	prevOut, prevErr := out, errOut
	SetOutput(&stdout, &stderr)
	t.Cleanup(func() { SetOutput(prevOut, prevErr) })
	return &stdout, &stderr
}

func TestShowMessages(t *testing.T) {
	stdout, stderr := capture(t)

	ShowError("file not found")
	ShowWarning("careful")
	ShowFatal("no model")
	ShowInfo("hello")

	assert.Contains(t, stderr.String(), "Error: file not found")
	assert.Contains(t, stderr.String(), "Warning: careful")
	assert.Contains(t, stderr.String(), "no model")
	assert.Contains(t, stdout.String(), "hello")
}

func TestMessageText(t *testing.T) {
	m := history.Message{Role: history.RoleUser, Content: history.MultipartContent{
		history.ImagePart("data:image/png;base64,AAAA"),
		history.TextPart("look"),
	}}
	assert.Equal(t, "[image]\nlook", MessageText(m))
	assert.Equal(t, "plain", MessageText(history.NewText(history.RoleUser, "plain")))
}

func TestShowHistory(t *testing.T) {
	stdout, _ := capture(t)
	c := history.NewConversation("S")
	c.Append(history.NewText(history.RoleUser, "question"), history.NewText(history.RoleAssistant, "answer"))

	ShowHistory(c.Messages(), false)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "system:")
	assert.Contains(t, lines[0], "S")
	assert.Contains(t, lines[2], "answer")
}

func TestShowDiff(t *testing.T) {
	stdout, _ := capture(t)
	lines, stats := files.Diff("a\nb\n", "a\nc\n")
	ShowDiff("x.txt", lines, stats)

	got := stdout.String()
	assert.Contains(t, got, "x.txt")
	assert.Contains(t, got, "+1 -1")
	assert.Contains(t, got, "- b")
	assert.Contains(t, got, "+ c")
}

func TestShowStored(t *testing.T) {
	stdout, _ := capture(t)

	ShowStoredImages(nil)
	ShowStoredSearches([]history.StoredSearch{{
		Index:   1,
		Query:   "go",
		Results: []search.Result{{Title: "The Go Programming Language"}},
		At:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
	}})

	got := stdout.String()
	assert.Contains(t, got, "No images stored.")
	assert.Contains(t, got, `1. "go"`)
	assert.Contains(t, got, "The Go Programming Language")
}

func TestQuietProgress(t *testing.T) {
	_, stderr := capture(t)
	p := NewQuietProgress()
	p.Waiting()
	p.Fragment("x")
	p.Done()
	assert.Empty(t, stderr.String())
}

func TestProgressDots(t *testing.T) {
	_, stderr := capture(t)
	p := NewProgress("Thinking...")
	p.Waiting()
	p.Fragment("a")
	p.Fragment("b")
	p.Done()

	assert.Equal(t, 2, p.Dots())
	assert.True(t, strings.HasSuffix(stderr.String(), "..\n"), "got %q", stderr.String())
}

func TestRenderWithoutRenderer(t *testing.T) {
	assert.Equal(t, "# title\n", Render("# title\n\n"))
}
