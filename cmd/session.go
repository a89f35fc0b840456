package cmd

import (
	"path/filepath"

	"github.com/quocvuong92/omni-cli/internal/api"
	"github.com/quocvuong92/omni-cli/internal/chat"
	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/display"
	"github.com/quocvuong92/omni-cli/internal/files"
	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/images"
	"github.com/quocvuong92/omni-cli/internal/search"
)

// sessionsDir is the archive location under the state directory.
const sessionsDir = "sessions"

// newGateway builds the transport for the configured provider and wraps it
// in a gateway sharing models.
func (app *App) newGateway(models *config.ModelSelection, progress api.Progress) (*api.Gateway, error) {
	transport, err := api.NewTransport(app.cfg)
	if err != nil {
		return nil, err
	}
	return api.NewGateway(transport, models,
		api.WithProgress(progress),
		api.WithErrorReporter(func(err error) {
			display.ShowError(err.Error())
		}),
	), nil
}

// newDispatcher wires every collaborator of an interactive session.
func (app *App) newDispatcher(prompter chat.Prompter, progress api.Progress) (*chat.Dispatcher, error) {
	models := config.NewModelSelection(app.cfg.Model, app.cfg.EditorModel)

	gateway, err := app.newGateway(models, progress)
	if err != nil {
		return nil, err
	}
	searcher, err := search.New(app.cfg)
	if err != nil {
		return nil, err
	}

	return chat.New(chat.Options{
		Gateway:      gateway,
		Models:       models,
		Files:        files.New(),
		Images:       images.NewIngestor(nil),
		Search:       searcher,
		Prompter:     prompter,
		Archive:      history.NewArchive(filepath.Join(app.cfg.StateDir, sessionsDir)),
		SystemPrompt: constants.DefaultSystemMessage,
		EditorPrompt: constants.EditorSystemMessage,
		Provider:     app.cfg.Provider,
		Render:       app.cfg.Render,
		ReviewEdits:  app.cfg.ReviewEdits,
	}), nil
}
