package cmd

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quocvuong92/omni-cli/internal/api"
	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/chat"
	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/display"
	"github.com/quocvuong92/omni-cli/internal/files"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

func TestMain(m *testing.M) {
	display.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

// isolate clears omni's environment and moves the test into a temp dir so
// no real config or .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	for _, env := range []string{
		config.EnvAPIKey, config.EnvBaseURL, config.EnvCBORGAPIKey, config.EnvCycloGPTAPIKey,
		config.EnvProvider, config.EnvModel, config.EnvEditorModel,
		config.EnvAnthropicAPIKey, config.EnvGeminiAPIKey, config.EnvAzureEndpoint, config.EnvAzureAPIKey,
		config.EnvSearchProvider, config.EnvBraveAPIKeys, config.EnvStateDir,
	} {
		t.Setenv(env, "")
	}

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, ".state"))
	return dir
}

type echoResponder struct {
	prompts []string
}

func (e *echoResponder) Respond(ctx context.Context, msgs []history.Message, target config.ModelTarget) (string, error) {
	text := msgs[len(msgs)-1].Text()
	e.prompts = append(e.prompts, text)
	return "echo: " + text, nil
}

type fakeStreamer struct {
	reply string
	err   error
	model string
	msgs  []history.Message
}

func (f *fakeStreamer) GetStreamingResponse(ctx context.Context, msgs []history.Message, model string) (string, error) {
	f.model, f.msgs = model, msgs
	return f.reply, f.err
}

func newTestSession(t *testing.T) (*InteractiveSession, *echoResponder) {
	t.Helper()
	gw := &echoResponder{}
	d := chat.New(chat.Options{
		Gateway:      gw,
		Models:       config.NewModelSelection("m", ""),
		SystemPrompt: "S",
	})
	return &InteractiveSession{ctx: context.Background(), dispatcher: d}, gw
}

func TestRootFlagsBindToViper(t *testing.T) {
	isolate(t)
	app := NewApp()
	root := NewRootCmd(app)

	require.NoError(t, root.PersistentFlags().Set(config.KeyModel, "anthropic/claude-haiku"))
	require.NoError(t, root.PersistentFlags().Set(config.KeyRender, "true"))
	require.NoError(t, root.PersistentFlags().Set(config.KeyReviewEdits, "true"))
	require.NoError(t, root.Flags().Set(config.KeyLoad, "saved.json"))

	cfg := config.FromViper(app.v)
	assert.Equal(t, "anthropic/claude-haiku", cfg.Model)
	assert.True(t, cfg.Render)
	assert.True(t, cfg.ReviewEdits)
	assert.Equal(t, "saved.json", cfg.LoadPath)
}

func TestSetup(t *testing.T) {
	t.Run("defaults with api key", func(t *testing.T) {
		isolate(t)
		t.Setenv(config.EnvAPIKey, "key")
		t.Cleanup(func() { _ = logging.Close() })

		app := NewApp()
		NewRootCmd(app)
		require.NoError(t, app.setup())
		assert.Equal(t, constants.DefaultModel, app.cfg.Model)
		assert.Equal(t, config.ProviderOpenAI, app.cfg.Provider)
		assert.Contains(t, app.getProviderName(), constants.DefaultBaseURL)
	})

	t.Run("environment model", func(t *testing.T) {
		isolate(t)
		t.Setenv(config.EnvAPIKey, "key")
		t.Setenv(config.EnvModel, "lbl/cborg-coder:latest")

		app := NewApp()
		NewRootCmd(app)
		require.NoError(t, app.setup())
		assert.Equal(t, "lbl/cborg-coder:latest", app.cfg.Model)
	})

	t.Run("missing key", func(t *testing.T) {
		isolate(t)
		app := NewApp()
		NewRootCmd(app)
		err := app.setup()
		assert.True(t, apperr.IsConfiguration(err), "got %v", err)
	})
}

func TestConfigPathsCommand(t *testing.T) {
	isolate(t)
	root := NewRootCmd(NewApp())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "paths"})

	require.NoError(t, root.Execute())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	for _, l := range lines {
		assert.True(t, strings.HasSuffix(l, config.ConfigFileName), l)
	}
}

func TestSessionsCommand(t *testing.T) {
	dir := isolate(t)
	archive := history.NewArchive(filepath.Join(dir, ".state", constants.AppName, sessionsDir))
	require.NoError(t, archive.AddConversation("s1", "m", "openai", []history.Message{
		history.NewText(history.RoleUser, "hi"),
	}))

	root := NewRootCmd(NewApp())
	root.SetArgs([]string{"sessions"})
	require.NoError(t, root.Execute())
	entries, err := archive.GetRecentConversations(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	root = NewRootCmd(NewApp())
	root.SetArgs([]string{"sessions", "--clear"})
	require.NoError(t, root.Execute())
	entries, err = archive.GetRecentConversations(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSuggestions(t *testing.T) {
	models := []string{"a/one", "b/two"}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain text", "hello", nil},
		{"model target", "/model ", []string{"change", "editor"}},
		{"model names", "/model change ", []string{"a/one", "b/two"}},
		{"editor model names", "/MODEL editor ", []string{"a/one", "b/two"}},
		{"history", "/history ", []string{"reset"}},
		{"after argument", "/add foo", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range suggestions(tt.text, models, "a/one") {
				got = append(got, s.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestions_Commands(t *testing.T) {
	got := suggestions("/", nil, "")
	var texts []string
	for _, s := range got {
		texts = append(texts, s.Text)
		assert.NotContains(t, s.Text, " ")
		assert.NotEmpty(t, s.Description, s.Text)
	}
	assert.Contains(t, texts, "/edit")
	assert.Contains(t, texts, "/search")
	assert.Contains(t, texts, "/exit")
	assert.IsIncreasing(t, texts)
}

func TestSuggestions_MarksCurrentModel(t *testing.T) {
	got := suggestions("/model change ", []string{"a/one", "b/two"}, "b/two")
	require.Len(t, got, 2)
	assert.Empty(t, got[0].Description)
	assert.Equal(t, "(current)", got[1].Description)
}

func TestReaderPrompter(t *testing.T) {
	var out bytes.Buffer
	p := newReaderPrompter(bufio.NewReader(strings.NewReader("first\r\nlast")), &out)

	line, err := p.Prompt("Q1: ")
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = p.Prompt("Q2: ")
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = p.Prompt("Q3: ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "Q1: Q2: Q3: ", out.String())
}

func TestLinePrompterCompletesModels(t *testing.T) {
	p := newLinePrompter([]string{"openai/gpt-4o", "openai/o1", "google/gemini-pro"})
	assert.Equal(t, []string{"openai/gpt-4o", "openai/o1"}, p.complete("openai/"))
	assert.Empty(t, p.complete("x"))
}

func TestExecutor_MultilineInput(t *testing.T) {
	s, gw := newTestSession(t)

	s.executor("first line\\")
	s.executor("second line")

	require.Len(t, gw.prompts, 1)
	assert.Equal(t, "first line\nsecond line", gw.prompts[0])
	assert.Equal(t, 3, s.dispatcher.Main().Len())
	assert.Empty(t, s.inputBuffer)
}

func TestReadLines_StopsAtExit(t *testing.T) {
	s, gw := newTestSession(t)
	input := "hello\n\n/exit\nnever sent\n"

	require.NoError(t, s.readLines(bufio.NewReader(strings.NewReader(input))))

	assert.True(t, s.exitFlag)
	assert.Equal(t, []string{"hello"}, gw.prompts)
}

func TestReadLines_EOFWithoutNewline(t *testing.T) {
	s, gw := newTestSession(t)

	require.NoError(t, s.readLines(bufio.NewReader(strings.NewReader("one\ntwo"))))

	assert.False(t, s.exitFlag)
	assert.Equal(t, []string{"one", "two"}, gw.prompts)
}

func TestArchiveOnExit(t *testing.T) {
	dir := t.TempDir()
	archive := history.NewArchive(dir)
	d := chat.New(chat.Options{
		Gateway:      &echoResponder{},
		Models:       config.NewModelSelection("m", ""),
		Archive:      archive,
		SystemPrompt: "S",
	})
	s := &InteractiveSession{ctx: context.Background(), dispatcher: d}

	s.executor("remember this")
	s.archive()

	last, err := archive.GetLastConversation()
	require.NoError(t, err)
	assert.Equal(t, "m", last.Model)
	assert.Len(t, last.Messages, 3)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "out.md", outputPath("out.md", ""))
	assert.Equal(t, filepath.Join("docs", "out.md"), outputPath("out.md", "docs"))
	abs := filepath.Join(t.TempDir(), "out.md")
	assert.Equal(t, abs, outputPath(abs, "docs"))
}

func TestFormatTranscript(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "chat.json")
	out := filepath.Join(dir, "formatted", "chat.md")
	require.NoError(t, os.WriteFile(in, []byte(`[{"role":"system","content":"S"}]`), 0o644))

	t.Run("writes the reply", func(t *testing.T) {
		s := &fakeStreamer{reply: "# Conversation\n"}
		require.NoError(t, formatTranscript(context.Background(), s, "google/gemini-pro", files.New(), in, out))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "# Conversation\n", string(data))
		assert.Equal(t, "google/gemini-pro", s.model)
		require.Len(t, s.msgs, 2)
		assert.Equal(t, constants.FormatSystemMessage, s.msgs[0].Text())
		assert.Contains(t, s.msgs[1].Text(), `"content":"S"`)
	})

	t.Run("transcript above the add size cap", func(t *testing.T) {
		big := filepath.Join(dir, "big.json")
		payload := strings.Repeat("A", constants.MaxFileSize+100*1024)
		transcript := `[{"role":"system","content":"S"},{"role":"user","content":[` +
			`{"type":"image_url","image_url":{"url":"data:image/png;base64,` + payload + `"}}]}]`
		require.NoError(t, os.WriteFile(big, []byte(transcript), 0o644))

		s := &fakeStreamer{reply: "# Long\n"}
		target := filepath.Join(dir, "big.md")
		require.NoError(t, formatTranscript(context.Background(), s, "m", transcriptFS(), big, target))

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "# Long\n", string(data))
		assert.Contains(t, s.msgs[1].Text(), payload)
	})

	t.Run("missing input", func(t *testing.T) {
		s := &fakeStreamer{reply: "x"}
		err := formatTranscript(context.Background(), s, "m", files.New(), filepath.Join(dir, "nope.json"), out)
		assert.True(t, apperr.IsNotFound(err))
		assert.Nil(t, s.msgs)
	})

	t.Run("no response leaves no file", func(t *testing.T) {
		target := filepath.Join(dir, "never.md")
		s := &fakeStreamer{err: api.ErrNoResponse}
		err := formatTranscript(context.Background(), s, "m", files.New(), in, target)
		assert.ErrorIs(t, err, api.ErrNoResponse)
		_, statErr := os.Stat(target)
		assert.True(t, os.IsNotExist(statErr))
	})
}
