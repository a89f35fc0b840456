package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/display"
	"github.com/quocvuong92/omni-cli/internal/files"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/images"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// DefaultSaveFile is offered when /save or /load is given no path.
const DefaultSaveFile = "chat_history.json"

// handleChat sends text to the default model. The user turn and the reply
// are appended together, and only when a reply arrived.
func (d *Dispatcher) handleChat(ctx context.Context, text string) error {
	userMsg := history.NewText(history.RoleUser, text)
	reply, err := d.gateway.Respond(ctx, d.main.With(userMsg), config.TargetDefault)
	if err != nil {
		return err
	}
	d.main.Append(userMsg, history.NewText(history.RoleAssistant, reply))
	d.showReply(reply)
	return nil
}

func (d *Dispatcher) handleAdd(path string) error {
	if path == "" {
		return apperr.Validation("add", "usage: /add <path>")
	}
	content, err := d.files.Read(path)
	if err != nil {
		return err
	}
	d.main.Append(history.NewText(history.RoleUser, FileMessage(path, content)))
	display.ShowSuccess(fmt.Sprintf("Added %s to the conversation.", path))
	return nil
}

// handleEdit edits one file per invocation; extra paths are ignored.
func (d *Dispatcher) handleEdit(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return apperr.Validation("edit", "usage: /edit <path>")
	}
	path := paths[0]
	if len(paths) > 1 {
		display.ShowWarning(fmt.Sprintf("/edit works on one file at a time; ignoring %s", strings.Join(paths[1:], ", ")))
	}

	content, err := d.files.Read(path)
	if err != nil {
		return err
	}
	instructions, err := d.ask("Edit instructions: ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(instructions) == "" {
		return ErrCancelled
	}
	return d.editLoop(ctx, path, content, instructions)
}

func (d *Dispatcher) handleNew(ctx context.Context, path string) error {
	if path == "" {
		return apperr.Validation("new", "usage: /new <path>")
	}
	if err := d.files.Create(path); err != nil {
		return err
	}
	display.ShowSuccess(fmt.Sprintf("Created %s.", path))

	description, err := d.ask("Describe the content (leave empty to keep the file empty): ")
	if err != nil || strings.TrimSpace(description) == "" {
		return nil
	}
	return d.editLoop(ctx, path, "", description)
}

// editLoop asks the editor model for a new version of path, shows the diff
// and writes the proposal. Both conversations record the exchange whenever
// the model answered. With review enabled a declined proposal leaves the
// file and both conversations untouched.
func (d *Dispatcher) editLoop(ctx context.Context, path, current, instructions string) error {
	editor := d.editorConversation()
	userMsg := history.NewText(history.RoleUser, EditMessage(path, current, instructions))

	reply, err := d.gateway.Respond(ctx, editor.With(userMsg), config.TargetEditor)
	if err != nil {
		return err
	}

	updated := ExtractCode(reply)
	lines, stats := files.Diff(current, updated)
	if stats.Changed() {
		display.ShowDiff(path, lines, stats)
		logging.Debug("proposed edit", "path", path, "diff", files.UnifiedDiff(path, current, updated))
		if d.reviewEdits && !d.confirm("Apply changes? [y/N] ") {
			display.ShowInfo("Changes discarded.")
			return nil
		}
		if err := d.files.Write(path, updated); err != nil {
			return err
		}
	}

	editor.Append(userMsg, history.NewText(history.RoleAssistant, reply))
	d.main.Append(history.NewText(history.RoleUser, fmt.Sprintf("Edited %s (%s): %s", path, stats, instructions)))
	if !stats.Changed() {
		display.ShowInfo(fmt.Sprintf("No changes proposed for %s.", path))
		return nil
	}
	logging.Info("file edited", "path", path, "added", stats.Added, "removed", stats.Removed)
	display.ShowSuccess(fmt.Sprintf("Edited %s (%s).", path, stats))
	return nil
}

func (d *Dispatcher) handleSearch(ctx context.Context) error {
	if d.searcher == nil {
		return apperr.Configuration("search", "no search provider configured")
	}
	query, err := d.ask("Search query: ")
	if err != nil {
		return err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrCancelled
	}

	sp := display.NewSpinner("Searching...")
	sp.Start()
	results, err := d.searcher.Search(ctx, query)
	sp.Stop()
	if err != nil {
		return err
	}
	if len(results) == 0 {
		display.ShowWarning(fmt.Sprintf("No results for %q.", query))
	}

	d.main.Append(history.NewText(history.RoleUser, SearchMessage(query, results)))
	entry := d.searches.Add(query, results)
	display.ShowSuccess(fmt.Sprintf("Search #%d: added %d results for %q to the conversation.", entry.Index, len(results), query))
	return nil
}

// handleImage ingests each argument independently and appends one
// multipart message holding every image that made it.
func (d *Dispatcher) handleImage(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return apperr.Validation("image", "usage: /image <path-or-url>...")
	}
	if d.ingestor == nil {
		return apperr.Configuration("image", "no image ingestor configured")
	}

	var ok []images.Image
	for _, arg := range args {
		if images.IsURL(arg) && !d.ingestor.ValidateRemote(ctx, arg) {
			display.ShowWarning(fmt.Sprintf("Skipping %s: not a reachable image URL.", arg))
			continue
		}
		img, err := d.ingestor.Ingest(ctx, arg)
		if err != nil {
			display.ShowWarning(fmt.Sprintf("Skipping %s: %v", arg, err))
			continue
		}
		ok = append(ok, img)
	}
	if len(ok) == 0 {
		return apperr.Validation("image", "no images could be added")
	}

	for _, img := range ok {
		d.images.Put(img)
	}
	d.main.Append(ImageMessage(ok))
	display.ShowSuccess(fmt.Sprintf("Added %d of %d images.", len(ok), len(args)))
	return nil
}

func (d *Dispatcher) showModel() {
	display.ShowInfo("Current model: " + d.models.Default())
	display.ShowInfo("Editor model: " + d.models.Editor())
}

// changeModel sets the model for target from name, or from a prompt when
// name is empty. Cancellation and blank input keep the current model.
func (d *Dispatcher) changeModel(target config.ModelTarget, name string) error {
	if name == "" {
		answer, err := d.ask("New model: ")
		if err != nil {
			return err
		}
		name = strings.TrimSpace(answer)
	}
	if name == "" {
		display.ShowInfo("Model unchanged: " + d.models.Get(target))
		return nil
	}
	if err := d.models.Set(target, name); err != nil {
		return err
	}
	display.ShowSuccess(fmt.Sprintf("Model changed to %s.", name))
	return nil
}

func (d *Dispatcher) pathOrPrompt(path, label string) (string, error) {
	if path != "" {
		return path, nil
	}
	answer, err := d.ask(fmt.Sprintf("%s [%s]: ", label, DefaultSaveFile))
	if err != nil {
		return "", err
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return DefaultSaveFile, nil
	}
	return answer, nil
}

func (d *Dispatcher) handleSave(path string) error {
	path, err := d.pathOrPrompt(path, "Save to")
	if err != nil {
		return err
	}
	if err := history.Save(path, d.main); err != nil {
		return err
	}
	display.ShowSuccess(fmt.Sprintf("Saved %d messages to %s.", d.main.Len(), path))
	return nil
}

// handleLoad replaces the main conversation only when the whole file parses.
func (d *Dispatcher) handleLoad(path string) error {
	path, err := d.pathOrPrompt(path, "Load from")
	if err != nil {
		return err
	}
	loaded, err := history.Load(path)
	if err != nil {
		return err
	}
	d.main.Replace(loaded)
	display.ShowSuccess(fmt.Sprintf("Loaded %d messages from %s.", loaded.Len(), path))
	return nil
}

// LoadFile replaces the main conversation with a saved one. It backs the
// --load flag.
func (d *Dispatcher) LoadFile(path string) error {
	return d.handleLoad(path)
}

func (d *Dispatcher) handleResume() error {
	if d.archive == nil {
		return apperr.Configuration("resume", "session archive is disabled")
	}
	entry, err := d.archive.GetLastConversation()
	if err != nil {
		return err
	}
	conv, err := history.FromMessages(entry.Messages)
	if err != nil {
		return apperr.Parse("resume", err)
	}
	d.main.Replace(conv)
	d.sessionID = entry.ID
	display.ShowSuccess(fmt.Sprintf("Resumed session from %s (%d messages).",
		entry.UpdatedAt.Format("2006-01-02 15:04"), conv.Len()))
	return nil
}
