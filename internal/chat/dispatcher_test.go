package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quocvuong92/omni-cli/internal/api"
	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/display"
	"github.com/quocvuong92/omni-cli/internal/files"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/images"
	"github.com/quocvuong92/omni-cli/internal/search"
)

func TestMain(m *testing.M) {
	display.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

type respondCall struct {
	messages []history.Message
	target   config.ModelTarget
}

type fakeResponder struct {
	replies []string
	err     error
	calls   []respondCall
}

func (f *fakeResponder) Respond(ctx context.Context, msgs []history.Message, target config.ModelTarget) (string, error) {
	f.calls = append(f.calls, respondCall{messages: msgs, target: target})
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

// scriptedPrompter answers prompts in order, then reports end of input.
type scriptedPrompter struct {
	answers []string
	labels  []string
}

func (p *scriptedPrompter) Prompt(label string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

type mockSearcher struct {
	results []search.Result
	err     error
	queries []string
}

func (m *mockSearcher) Search(ctx context.Context, query string) ([]search.Result, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

// countingTransport fails the test if the gateway ever reaches it.
type countingTransport struct{ calls int }

func (c *countingTransport) Name() string { return "counting" }

func (c *countingTransport) Stream(ctx context.Context, model string, msgs []history.Message) (api.FragmentStream, error) {
	c.calls++
	return nil, errors.New("unexpected call")
}

type fixture struct {
	d        *Dispatcher
	gw       *fakeResponder
	prompter *scriptedPrompter
	searcher *mockSearcher
	dir      string
}

func newFixture(t *testing.T, answers ...string) *fixture {
	t.Helper()
	f := &fixture{
		gw:       &fakeResponder{replies: []string{"ok"}},
		prompter: &scriptedPrompter{answers: answers},
		searcher: &mockSearcher{},
		dir:      t.TempDir(),
	}
	f.d = New(Options{
		Gateway:      f.gw,
		Models:       config.NewModelSelection("test/model:v1", "test/editor"),
		Files:        files.New(),
		Images:       images.NewIngestor(nil),
		Search:       f.searcher,
		Prompter:     f.prompter,
		SystemPrompt: "S",
		EditorPrompt: "Editor prompt",
	})
	return f
}

func (f *fixture) path(name string) string { return filepath.Join(f.dir, name) }

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	p := f.path(name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (f *fixture) run(t *testing.T, line string) error {
	t.Helper()
	return f.d.Run(context.Background(), Parse(line))
}

func TestAdd_AppendsFile(t *testing.T) {
	f := newFixture(t)
	p := f.write(t, "test.py", "print('hello')")

	require.NoError(t, f.run(t, "/add "+p))

	msgs := f.d.Main().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, history.RoleUser, msgs[1].Role)
	assert.Contains(t, msgs[1].Text(), p)
	assert.Contains(t, msgs[1].Text(), "print('hello')")
}

func TestAdd_InvalidPathLeavesHistory(t *testing.T) {
	f := newFixture(t)
	binary := f.write(t, "blob.bin", "\x00\x01\x02")

	tests := []struct {
		name string
		line string
		kind apperr.Kind
	}{
		{"missing", "/add " + f.path("nope.txt"), apperr.KindNotFound},
		{"directory", "/add " + f.dir, apperr.KindValidation},
		{"binary", "/add " + binary, apperr.KindValidation},
		{"no argument", "/add", apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.run(t, tt.line)
			assert.Equal(t, tt.kind, apperr.KindOf(err), "got %v", err)
			assert.Equal(t, 1, f.d.Main().Len())
		})
	}
}

func TestHistoryReset_KeepsOriginalSystemMessage(t *testing.T) {
	f := newFixture(t)
	original := f.d.Main().System()
	f.d.Main().Append(history.NewText(history.RoleUser, "a"), history.NewText(history.RoleAssistant, "b"))

	require.NoError(t, f.run(t, "/history reset"))
	assert.Equal(t, []history.Message{original}, f.d.Main().Messages())

	f.d.Main().Append(history.NewText(history.RoleUser, "again"))
	require.NoError(t, f.run(t, "/reset"))
	assert.Equal(t, []history.Message{original}, f.d.Main().Messages())
}

func TestChat_AppendsTurnOnReply(t *testing.T) {
	f := newFixture(t)
	f.gw.replies = []string{"Hi!"}

	require.NoError(t, f.run(t, "hello"))

	msgs := f.d.Main().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, history.NewText(history.RoleUser, "hello"), msgs[1])
	assert.Equal(t, history.NewText(history.RoleAssistant, "Hi!"), msgs[2])

	require.Len(t, f.gw.calls, 1)
	assert.Equal(t, config.TargetDefault, f.gw.calls[0].target)
	assert.Len(t, f.gw.calls[0].messages, 2)
}

func TestChat_NoResponseLeavesHistory(t *testing.T) {
	f := newFixture(t)
	f.gw.err = api.ErrNoResponse

	err := f.run(t, "hello")
	assert.ErrorIs(t, err, api.ErrNoResponse)
	assert.Equal(t, 1, f.d.Main().Len())
}

func TestChat_UnknownSlashWordIsChat(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.run(t, "/shrug what now"))
	assert.Equal(t, "/shrug what now", f.d.Main().Messages()[1].Text())
}

func TestChat_EmptyModelIsConfigurationError(t *testing.T) {
	transport := &countingTransport{}
	gw := api.NewGateway(transport, config.NewModelSelection("", ""))
	d := New(Options{Gateway: gw, Models: gw.Models(), SystemPrompt: "S"})

	err := d.Run(context.Background(), Parse("hello"))
	assert.True(t, apperr.IsConfiguration(err), "got %v", err)
	assert.Zero(t, transport.calls)
	assert.Equal(t, 1, d.Main().Len())
}

func TestModel_Change(t *testing.T) {
	t.Run("prompted", func(t *testing.T) {
		f := newFixture(t, "new/model:v2")
		require.NoError(t, f.run(t, "/model change"))
		assert.Equal(t, "new/model:v2", f.d.Models().Default())
		assert.Len(t, f.prompter.labels, 1)
	})

	t.Run("end of input keeps model", func(t *testing.T) {
		f := newFixture(t)
		err := f.run(t, "/model change")
		assert.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, "test/model:v1", f.d.Models().Default())
	})

	t.Run("blank keeps model", func(t *testing.T) {
		f := newFixture(t, "   ")
		require.NoError(t, f.run(t, "/model change"))
		assert.Equal(t, "test/model:v1", f.d.Models().Default())
	})

	t.Run("inline name", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.run(t, "/model change other/model"))
		assert.Equal(t, "other/model", f.d.Models().Default())
		assert.Empty(t, f.prompter.labels)
	})

	t.Run("editor model", func(t *testing.T) {
		f := newFixture(t, "editor/v3")
		require.NoError(t, f.run(t, "/model editor"))
		assert.Equal(t, "editor/v3", f.d.Models().Editor())
		assert.Equal(t, "test/model:v1", f.d.Models().Default())
	})

	t.Run("show does not mutate", func(t *testing.T) {
		f := newFixture(t)
		var out bytes.Buffer
		display.SetOutput(&out, nil)
		defer display.SetOutput(io.Discard, nil)

		require.NoError(t, f.run(t, "/model"))
		assert.Contains(t, out.String(), "Current model: test/model:v1")
		assert.Equal(t, "test/model:v1", f.d.Models().Default())
	})
}

func TestSearch(t *testing.T) {
	t.Run("results are added and recorded", func(t *testing.T) {
		f := newFixture(t, "test")
		f.searcher.results = []search.Result{
			{Title: "Test Result", Body: "first body"},
			{Title: "Another Result", Body: "second body"},
		}

		require.NoError(t, f.run(t, "/search"))

		assert.Equal(t, []string{"test"}, f.searcher.queries)
		require.Equal(t, 2, f.d.Main().Len())
		text := f.d.Main().Last().Text()
		assert.Contains(t, text, "Search results")
		assert.Contains(t, text, "Test Result")
		assert.Contains(t, text, "Another Result")
		require.Equal(t, 1, f.d.Searches().Len())
		assert.Equal(t, 1, f.d.Searches().All()[0].Index)
	})

	t.Run("prompt cancelled", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.run(t, "/search"), ErrCancelled)
		assert.Empty(t, f.searcher.queries)
		assert.Equal(t, 1, f.d.Main().Len())
	})

	t.Run("empty query", func(t *testing.T) {
		f := newFixture(t, "  ")
		assert.ErrorIs(t, f.run(t, "/search"), ErrCancelled)
		assert.Empty(t, f.searcher.queries)
	})

	t.Run("search failure", func(t *testing.T) {
		f := newFixture(t, "test")
		f.searcher.err = apperr.Transport("search", errors.New("offline"))
		assert.True(t, apperr.IsTransport(f.run(t, "/search")))
		assert.Equal(t, 1, f.d.Main().Len())
		assert.Zero(t, f.d.Searches().Len())
	})

	t.Run("no results", func(t *testing.T) {
		f := newFixture(t, "nothing")
		require.NoError(t, f.run(t, "/search"))
		assert.Equal(t, 2, f.d.Main().Len())
		assert.Contains(t, f.d.Main().Last().Text(), "No results.")
		assert.Equal(t, 1, f.d.Searches().Len())
	})
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	fh, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(fh, img))
	require.NoError(t, fh.Close())
}

func TestImage_SkipsFailuresIndividually(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	f := newFixture(t)
	local := f.path("pixel.png")
	writePNG(t, local)

	require.NoError(t, f.run(t, "/image "+server.URL+"/not-an-image.jpg "+local))

	require.Equal(t, 2, f.d.Main().Len())
	parts, ok := f.d.Main().Last().Content.(history.MultipartContent)
	require.True(t, ok)
	assert.Equal(t, history.PartImageURL, parts[0].Type)
	assert.Contains(t, parts[0].ImageURL, "data:image/png;base64,")

	require.Equal(t, 1, f.d.Images().Len())
	stored, ok := f.d.Images().Get(local)
	require.True(t, ok)
	assert.Equal(t, images.SourceLocal, stored.Source)
}

func TestImage_AllFailLeavesHistory(t *testing.T) {
	f := newFixture(t)
	err := f.run(t, "/image "+f.path("missing.png")+" "+f.write(t, "text.txt", "hi"))
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, 1, f.d.Main().Len())
	assert.Zero(t, f.d.Images().Len())

	assert.True(t, apperr.IsValidation(f.run(t, "/image")))
}

func TestEdit_AppliesChange(t *testing.T) {
	f := newFixture(t, "rename greeting")
	p := f.write(t, "test.py", "print('hello')\n")
	f.gw.replies = []string{"```python\nprint('goodbye')\n```"}

	require.NoError(t, f.run(t, "/edit "+p))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "print('goodbye')\n", string(data))

	require.Len(t, f.gw.calls, 1)
	assert.Equal(t, config.TargetEditor, f.gw.calls[0].target)
	assert.Equal(t, "Editor prompt", f.gw.calls[0].messages[0].Text())

	assert.Equal(t, 2, f.d.Main().Len())
	assert.Contains(t, f.d.Main().Last().Text(), p)
	require.NotNil(t, f.d.Editor())
	assert.Equal(t, 3, f.d.Editor().Len())
	assert.Contains(t, f.d.Editor().Messages()[1].Text(), "rename greeting")
}

func TestEdit_UnchangedCases(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		reply   string
		err     error
		line    func(p string) string
	}{
		{"no instructions", nil, "", nil, func(p string) string { return "/edit " + p }},
		{"blank instructions", []string{" "}, "", nil, func(p string) string { return "/edit " + p }},
		{"no response", []string{"do it"}, "", api.ErrNoResponse, func(p string) string { return "/edit " + p }},
		{"no argument", nil, "", nil, func(string) string { return "/edit" }},
		{"missing file", []string{"do it"}, "", nil, func(p string) string { return "/edit " + p + ".missing" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.answers...)
			p := f.write(t, "file.txt", "original\n")
			f.gw.replies = []string{tt.reply}
			f.gw.err = tt.err

			_ = f.run(t, tt.line(p))

			data, err := os.ReadFile(p)
			require.NoError(t, err)
			assert.Equal(t, "original\n", string(data))
			assert.Equal(t, 1, f.d.Main().Len())
			if f.d.Editor() != nil {
				assert.Equal(t, 1, f.d.Editor().Len())
			}
		})
	}
}

func TestEdit_AppliesWithoutConfirmation(t *testing.T) {
	f := newFixture(t, "test input", "test input")
	p := f.write(t, "test.py", "print('hello')\n")
	f.gw.replies = []string{"```python\nprint('goodbye')\n```"}

	require.NoError(t, f.run(t, "/edit "+p))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "print('goodbye')\n", string(data))
	assert.Equal(t, 2, f.d.Main().Len())
	assert.Equal(t, 3, f.d.Editor().Len())
	assert.Len(t, f.gw.calls, 1)
	assert.Equal(t, []string{"Edit instructions: "}, f.prompter.labels)
}

func TestEdit_NoChangeProposedIsRecorded(t *testing.T) {
	f := newFixture(t, "do it")
	p := f.write(t, "file.txt", "original\n")
	f.gw.replies = []string{"```\noriginal\n```"}

	require.NoError(t, f.run(t, "/edit "+p))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data))
	assert.Equal(t, 2, f.d.Main().Len())
	assert.Equal(t, 3, f.d.Editor().Len())
}

func TestEdit_Review(t *testing.T) {
	tests := []struct {
		answer  string
		applied bool
	}{
		{"y", true},
		{" yEs ", true},
		{"n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.answer), func(t *testing.T) {
			f := newFixture(t, "do it", tt.answer)
			f.d.reviewEdits = true
			p := f.write(t, "file.txt", "original\n")
			f.gw.replies = []string{"```\nchanged\n```"}

			require.NoError(t, f.run(t, "/edit "+p))

			data, err := os.ReadFile(p)
			require.NoError(t, err)
			if tt.applied {
				assert.Equal(t, "changed\n", string(data))
				assert.Equal(t, 2, f.d.Main().Len())
				assert.Equal(t, 3, f.d.Editor().Len())
			} else {
				assert.Equal(t, "original\n", string(data))
				assert.Equal(t, 1, f.d.Main().Len())
				assert.Equal(t, 1, f.d.Editor().Len())
			}
		})
	}

	t.Run("prompt closed", func(t *testing.T) {
		f := newFixture(t, "do it")
		f.d.reviewEdits = true
		p := f.write(t, "file.txt", "original\n")
		f.gw.replies = []string{"```\nchanged\n```"}

		require.NoError(t, f.run(t, "/edit "+p))
		data, _ := os.ReadFile(p)
		assert.Equal(t, "original\n", string(data))
	})
}

func TestEdit_UsesFirstPathOnly(t *testing.T) {
	f := newFixture(t, "upper")
	first := f.write(t, "a.txt", "a\n")
	second := f.write(t, "b.txt", "b\n")
	f.gw.replies = []string{"```\nA\n```"}

	require.NoError(t, f.run(t, "/edit "+first+" "+second))

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	assert.Equal(t, "A\n", string(a))
	assert.Equal(t, "b\n", string(b))
	assert.Len(t, f.gw.calls, 1)
}

func TestNew(t *testing.T) {
	t.Run("without description", func(t *testing.T) {
		f := newFixture(t, "")
		p := f.path("new_test.py")

		require.NoError(t, f.run(t, "/new "+p))

		_, err := os.Stat(p)
		assert.NoError(t, err)
		assert.Equal(t, 1, f.d.Main().Len())
		assert.Nil(t, f.d.Editor())
		assert.Empty(t, f.gw.calls)
	})

	t.Run("existing file is not overwritten", func(t *testing.T) {
		f := newFixture(t)
		p := f.write(t, "exists.txt", "keep me")

		assert.True(t, apperr.IsValidation(f.run(t, "/new "+p)))
		data, _ := os.ReadFile(p)
		assert.Equal(t, "keep me", string(data))
	})

	t.Run("with description", func(t *testing.T) {
		f := newFixture(t, "a hello world script")
		p := f.path("hello.py")
		f.gw.replies = []string{"```python\nprint('hello world')\n```"}

		require.NoError(t, f.run(t, "/new "+p))

		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "print('hello world')\n", string(data))
		assert.Equal(t, 2, f.d.Main().Len())
		assert.Equal(t, 3, f.d.Editor().Len())
	})
}

func TestSaveLoad(t *testing.T) {
	f := newFixture(t)
	f.d.Main().Append(history.NewText(history.RoleUser, "q"), history.NewText(history.RoleAssistant, "a"))
	want := f.d.Main().Messages()
	p := f.path("chat.json")

	require.NoError(t, f.run(t, "/save "+p))
	require.NoError(t, f.run(t, "/reset"))
	require.NoError(t, f.run(t, "/load "+p))
	assert.Equal(t, want, f.d.Main().Messages())

	bad := f.write(t, "bad.json", `[{"role":"user","content":"no system"}]`)
	assert.True(t, apperr.IsParse(f.run(t, "/load "+bad)))
	assert.True(t, apperr.IsNotFound(f.run(t, "/load "+f.path("missing.json"))))
	assert.Equal(t, want, f.d.Main().Messages())
}

func TestSave_PromptsForPath(t *testing.T) {
	f := newFixture(t)
	p := f.path("prompted.json")
	f.prompter.answers = []string{p}

	require.NoError(t, f.run(t, "/save"))
	_, err := os.Stat(p)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.run(t, "/save"), ErrCancelled)
}

func TestArchiveAndResume(t *testing.T) {
	archive := history.NewArchive(t.TempDir())
	models := config.NewModelSelection("m", "")
	d := New(Options{Gateway: &fakeResponder{replies: []string{"hi"}}, Models: models, Archive: archive, SystemPrompt: "S"})

	require.NoError(t, d.ArchiveSession())
	entries, err := archive.GetRecentConversations(0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, d.Run(context.Background(), Parse("hello")))
	require.NoError(t, d.ArchiveSession())
	require.NoError(t, d.Run(context.Background(), Parse("again")))
	require.NoError(t, d.ArchiveSession())

	entries, err = archive.GetRecentConversations(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Messages, 5)

	fresh := New(Options{Models: models, Archive: archive, SystemPrompt: "S"})
	require.NoError(t, fresh.Run(context.Background(), Parse("/resume")))
	assert.Equal(t, 5, fresh.Main().Len())

	noArchive := New(Options{Models: models})
	assert.True(t, apperr.IsConfiguration(noArchive.Run(context.Background(), Parse("/resume"))))
}

func TestHandle(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.d.Handle(context.Background(), ""))
	assert.True(t, f.d.Handle(context.Background(), "/add "+f.path("missing")))
	assert.True(t, f.d.Handle(context.Background(), "/help"))
	assert.True(t, f.d.Handle(context.Background(), "/images"))
	assert.True(t, f.d.Handle(context.Background(), "/searches"))
	assert.True(t, f.d.Handle(context.Background(), "/history"))
	assert.False(t, f.d.Handle(context.Background(), "/exit"))
	assert.False(t, f.d.Handle(context.Background(), "/Q"))
}
