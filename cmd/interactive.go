package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"
	"golang.org/x/term"

	"github.com/quocvuong92/omni-cli/internal/api"
	"github.com/quocvuong92/omni-cli/internal/chat"
	"github.com/quocvuong92/omni-cli/internal/display"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// commandDescriptions labels the top-level completions.
var commandDescriptions = map[string]string{
	"/add":      "Add a file to the conversation",
	"/edit":     "Edit a file with the editor model",
	"/new":      "Create a file",
	"/search":   "Search the web",
	"/image":    "Attach images",
	"/model":    "Show or change models",
	"/history":  "Show or reset the conversation",
	"/reset":    "Reset the conversation",
	"/save":     "Save the conversation",
	"/load":     "Load a conversation",
	"/images":   "List attached images",
	"/searches": "List searches",
	"/resume":   "Resume the last session",
	"/help":     "Show all commands",
	"/exit":     "Exit interactive mode",
	"/quit":     "Exit (alias)",
	"/q":        "Exit (alias)",
}

// InteractiveSession reads input lines and hands them to the dispatcher.
type InteractiveSession struct {
	ctx         context.Context
	dispatcher  *chat.Dispatcher
	models      []string
	tty         bool
	exitFlag    bool
	inputBuffer []string // Buffer for multiline input
}

// runInteractive starts the REPL. On a terminal it uses go-prompt with
// completion; with piped input it reads plain lines, and nested prompts
// read from the same stream.
func (app *App) runInteractive(ctx context.Context) error {
	tty := term.IsTerminal(int(os.Stdin.Fd()))

	var (
		prompter chat.Prompter
		reader   *bufio.Reader
		progress api.Progress
	)
	if tty {
		prompter = newLinePrompter(app.cfg.AvailableModels)
		progress = display.NewProgress("Thinking...")
	} else {
		reader = bufio.NewReader(os.Stdin)
		prompter = newReaderPrompter(reader, display.Stdout())
		progress = display.NewQuietProgress()
	}

	d, err := app.newDispatcher(prompter, progress)
	if err != nil {
		return app.fail(err)
	}
	if app.cfg.LoadPath != "" {
		if err := d.LoadFile(app.cfg.LoadPath); err != nil {
			chat.Report(err)
		}
	}

	session := &InteractiveSession{
		ctx:        ctx,
		dispatcher: d,
		models:     app.cfg.AvailableModels,
		tty:        tty,
	}
	defer session.archive()

	if !tty {
		return session.readLines(reader)
	}

	fmt.Println("omni - Interactive Mode")
	fmt.Printf("Model: %s\n", d.Models().Default())
	fmt.Printf("Editor model: %s\n", d.Models().Editor())
	fmt.Printf("Provider: %s\n", app.getProviderName())
	fmt.Printf("Web search: %s\n", app.cfg.SearchProvider)
	fmt.Println("Type /help for commands, Ctrl+C or Ctrl+D to quit")
	fmt.Println("End a line with \\ for multiline input")
	fmt.Println()

	p := prompt.New(
		session.executor,
		prompt.WithCompleter(session.completer),
		prompt.WithPrefix("> "),
		prompt.WithTitle("omni"),
		prompt.WithPrefixTextColor(prompt.Green),
		prompt.WithSuggestionBGColor(prompt.DarkBlue),
		prompt.WithSuggestionTextColor(prompt.White),
		prompt.WithSelectedSuggestionBGColor(prompt.Cyan),
		prompt.WithSelectedSuggestionTextColor(prompt.Black),
		prompt.WithDescriptionBGColor(prompt.DarkBlue),
		prompt.WithDescriptionTextColor(prompt.LightGray),
		prompt.WithSelectedDescriptionBGColor(prompt.Cyan),
		prompt.WithSelectedDescriptionTextColor(prompt.Black),
		prompt.WithMaxSuggestion(12),
		prompt.WithCompletionOnDown(),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return session.exitFlag
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(p *prompt.Prompt) bool {
				fmt.Println("\nGoodbye!")
				session.exitFlag = true
				return false
			},
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn: func(p *prompt.Prompt) bool {
				if p.Buffer().Text() == "" {
					fmt.Println("Goodbye!")
					session.exitFlag = true
				}
				return false
			},
		}),
	)

	p.Run()
	return nil
}

// readLines feeds piped input to the executor until EOF or /exit.
func (s *InteractiveSession) readLines(r *bufio.Reader) error {
	for !s.exitFlag {
		line, err := r.ReadString('\n')
		if line != "" {
			s.executor(strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// executor handles one input line. A trailing backslash continues the
// input on the next line. Ctrl+C while a command runs cancels that command
// only.
func (s *InteractiveSession) executor(input string) {
	if s.exitFlag {
		return
	}

	if strings.HasSuffix(input, "\\") {
		s.inputBuffer = append(s.inputBuffer, strings.TrimSuffix(input, "\\"))
		if s.tty {
			fmt.Print("... ")
		}
		return
	}
	if len(s.inputBuffer) > 0 {
		s.inputBuffer = append(s.inputBuffer, input)
		input = strings.Join(s.inputBuffer, "\n")
		s.inputBuffer = nil
	}

	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt)
	defer stop()

	if !s.dispatcher.Handle(ctx, input) {
		if s.tty {
			fmt.Println("Goodbye!")
		}
		s.exitFlag = true
	}
}

// archive stores the session so /resume can find it next time.
func (s *InteractiveSession) archive() {
	if err := s.dispatcher.ArchiveSession(); err != nil {
		logging.Warn("could not archive session", "error", err)
		display.ShowWarning("Could not save session: " + err.Error())
	}
}

// completer provides context-aware completion for slash commands.
func (s *InteractiveSession) completer(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	endIndex := d.CurrentRuneIndex()
	w := d.GetWordBeforeCursor()
	startIndex := endIndex - istrings.RuneCountInString(w)

	current := s.dispatcher.Models().Default()
	return prompt.FilterHasPrefix(suggestions(d.TextBeforeCursor(), s.models, current), w, true), startIndex, endIndex
}

// suggestions returns the completion candidates for text, the input
// before the cursor. Only slash commands are completed.
func suggestions(text string, models []string, current string) []prompt.Suggest {
	if !strings.HasPrefix(text, "/") {
		return nil
	}
	lower := strings.ToLower(text)

	switch {
	case strings.HasPrefix(lower, "/model change "), strings.HasPrefix(lower, "/model editor "):
		var out []prompt.Suggest
		for _, m := range models {
			desc := ""
			if m == current {
				desc = "(current)"
			}
			out = append(out, prompt.Suggest{Text: m, Description: desc})
		}
		return out
	case strings.HasPrefix(lower, "/model "):
		return []prompt.Suggest{
			{Text: "change", Description: "Change the chat model"},
			{Text: "editor", Description: "Change the editor model"},
		}
	case strings.HasPrefix(lower, "/history "):
		return []prompt.Suggest{{Text: "reset", Description: "Clear the conversation"}}
	case strings.ContainsRune(text, ' '):
		return nil
	}

	var out []prompt.Suggest
	for _, t := range chat.Triggers() {
		if strings.ContainsRune(t, ' ') {
			continue
		}
		out = append(out, prompt.Suggest{Text: t, Description: commandDescriptions[t]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}
