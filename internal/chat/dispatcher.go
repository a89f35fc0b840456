// Package chat is the command dispatcher. It owns the main and editor
// conversations, the session registries of images and searches, and routes
// every input line to a handler.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quocvuong92/omni-cli/internal/api"
	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/display"
	"github.com/quocvuong92/omni-cli/internal/files"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/images"
	"github.com/quocvuong92/omni-cli/internal/logging"
	"github.com/quocvuong92/omni-cli/internal/search"
)

var (
	// ErrExit is returned by Run for the exit command.
	ErrExit = errors.New("exit requested")
	// ErrCancelled means the user dismissed a prompt or gave an empty answer.
	ErrCancelled = errors.New("cancelled")
)

// Prompter asks the user for one line. Any error, io.EOF included, is
// treated as cancellation.
type Prompter interface {
	Prompt(label string) (string, error)
}

// Responder streams a model reply. *api.Gateway implements it.
type Responder interface {
	Respond(ctx context.Context, messages []history.Message, target config.ModelTarget) (string, error)
}

// Searcher runs a web search. search.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// ImageIngestor validates and encodes images. *images.Ingestor implements it.
type ImageIngestor interface {
	ValidateRemote(ctx context.Context, rawURL string) bool
	Ingest(ctx context.Context, arg string) (images.Image, error)
}

// Options wires a Dispatcher to its collaborators.
type Options struct {
	Gateway  Responder
	Models   *config.ModelSelection
	Files    files.Accessor
	Images   ImageIngestor
	Search   Searcher
	Prompter Prompter
	// Archive is optional; without it /resume is unavailable and
	// ArchiveSession does nothing.
	Archive history.Manager

	SystemPrompt string
	EditorPrompt string
	Provider     string
	// Render sends replies and /history through the markdown renderer.
	Render bool
	// ReviewEdits asks before /edit and /new write a proposed change.
	ReviewEdits bool
}

// Dispatcher handles input lines one at a time. It is not safe for
// concurrent use.
type Dispatcher struct {
	gateway  Responder
	models   *config.ModelSelection
	files    files.Accessor
	ingestor ImageIngestor
	searcher Searcher
	prompter Prompter
	archive  history.Manager

	main     *history.Conversation
	editor   *history.Conversation
	images   *history.StoredImages
	searches *history.StoredSearches

	editorPrompt string
	provider     string
	render       bool
	reviewEdits  bool
	sessionID    string
}

// New creates a dispatcher with a fresh main conversation.
func New(opts Options) *Dispatcher {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = constants.DefaultSystemMessage
	}
	if opts.EditorPrompt == "" {
		opts.EditorPrompt = constants.EditorSystemMessage
	}
	if opts.Files == nil {
		opts.Files = files.New()
	}
	return &Dispatcher{
		gateway:      opts.Gateway,
		models:       opts.Models,
		files:        opts.Files,
		ingestor:     opts.Images,
		searcher:     opts.Search,
		prompter:     opts.Prompter,
		archive:      opts.Archive,
		main:         history.NewConversation(opts.SystemPrompt),
		images:       history.NewStoredImages(),
		searches:     history.NewStoredSearches(),
		editorPrompt: opts.EditorPrompt,
		provider:     opts.Provider,
		render:       opts.Render,
		reviewEdits:  opts.ReviewEdits,
	}
}

// Main returns the main conversation.
func (d *Dispatcher) Main() *history.Conversation { return d.main }

// Editor returns the editor conversation, or nil before the first edit.
func (d *Dispatcher) Editor() *history.Conversation { return d.editor }

// Images returns the images stored this session.
func (d *Dispatcher) Images() *history.StoredImages { return d.images }

// Searches returns the searches made this session.
func (d *Dispatcher) Searches() *history.StoredSearches { return d.searches }

// Models returns the shared model selection.
func (d *Dispatcher) Models() *config.ModelSelection { return d.models }

// Handle runs one line of input and reports any failure to the user. It
// returns false when the session should end.
func (d *Dispatcher) Handle(ctx context.Context, line string) bool {
	err := d.Run(ctx, Parse(line))
	if errors.Is(err, ErrExit) {
		return false
	}
	if err != nil {
		Report(err)
	}
	return true
}

// Run executes a parsed input and returns the handler's error unreported.
// A failed handler leaves every conversation and registry as it was.
func (d *Dispatcher) Run(ctx context.Context, in Input) error {
	logging.Debug("dispatch", "command", in.Cmd.String(), "args", len(in.Args))

	switch in.Cmd {
	case CmdNone:
		return nil
	case CmdChat:
		return d.handleChat(ctx, in.Raw)
	case CmdAdd:
		return d.handleAdd(in.Arg(0))
	case CmdEdit:
		return d.handleEdit(ctx, in.Args)
	case CmdNew:
		return d.handleNew(ctx, in.Arg(0))
	case CmdSearch:
		return d.handleSearch(ctx)
	case CmdImage:
		return d.handleImage(ctx, in.Args)
	case CmdModelShow:
		d.showModel()
		return nil
	case CmdModelChange:
		return d.changeModel(config.TargetDefault, in.Arg(0))
	case CmdModelEditor:
		return d.changeModel(config.TargetEditor, in.Arg(0))
	case CmdHistoryShow:
		display.ShowHistory(d.main.Messages(), d.render)
		return nil
	case CmdHistoryReset:
		d.main.Reset()
		display.ShowSuccess("Chat history reset.")
		return nil
	case CmdSave:
		return d.handleSave(in.Arg(0))
	case CmdLoad:
		return d.handleLoad(in.Arg(0))
	case CmdImages:
		display.ShowStoredImages(d.images.All())
		return nil
	case CmdSearches:
		display.ShowStoredSearches(d.searches.All())
		return nil
	case CmdResume:
		return d.handleResume()
	case CmdHelp:
		ShowHelp()
		return nil
	case CmdExit:
		return ErrExit
	default:
		return apperr.Validation("dispatch", fmt.Sprintf("unhandled command %s", in.Cmd))
	}
}

// Report prints err the way its kind deserves. Configuration errors are
// shown emphatically; no-response errors were already shown by the gateway.
func Report(err error) {
	switch {
	case err == nil, errors.Is(err, api.ErrNoResponse):
	case errors.Is(err, ErrCancelled):
		display.ShowInfo("Cancelled.")
	case apperr.IsConfiguration(err):
		display.ShowFatal(err.Error())
	default:
		display.ShowError(err.Error())
	}
}

// ArchiveSession stores the main conversation in the archive so /resume can
// bring it back. Conversations holding only the system prompt are skipped.
func (d *Dispatcher) ArchiveSession() error {
	if d.archive == nil || d.main.Len() <= 1 {
		return nil
	}
	msgs := d.main.Messages()
	if d.sessionID != "" {
		err := d.archive.UpdateConversation(d.sessionID, msgs)
		if !apperr.IsNotFound(err) {
			return err
		}
	}
	d.sessionID = uuid.NewString()
	return d.archive.AddConversation(d.sessionID, d.models.Default(), d.provider, msgs)
}

func (d *Dispatcher) editorConversation() *history.Conversation {
	if d.editor == nil {
		d.editor = history.NewConversation(d.editorPrompt)
	}
	return d.editor
}

// ask prompts and treats errors and blank answers as cancellation.
func (d *Dispatcher) ask(label string) (string, error) {
	if d.prompter == nil {
		return "", ErrCancelled
	}
	answer, err := d.prompter.Prompt(label)
	if err != nil {
		logging.Debug("prompt dismissed", "label", label, "error", err)
		return "", ErrCancelled
	}
	return answer, nil
}

func (d *Dispatcher) confirm(label string) bool {
	answer, err := d.ask(label)
	if err != nil {
		return false
	}
	answer = strings.TrimSpace(answer)
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func (d *Dispatcher) showReply(reply string) {
	if d.render {
		display.ShowContentRendered(reply)
		return
	}
	display.ShowContent(reply)
}
