package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/chat"
	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/display"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// App holds the application state
type App struct {
	v          *viper.Viper
	cfg        *config.Config
	listModels bool
}

// NewApp creates a new App with flags and environment bound to a fresh viper
func NewApp() *App {
	v := viper.New()
	config.BindEnv(v)
	return &App{v: v}
}

// Execute runs the root command
func Execute() {
	cobra.OnInitialize(func() {
		if err := config.LoadDotEnv(); err != nil {
			display.ShowWarning(err.Error())
		}
	})

	err := NewRootCmd(NewApp()).ExecuteContext(context.Background())
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree for app.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "omni",
		Short: "An interactive chat client for LLMs with file editing and web search",
		Long: `omni is an interactive chat client for OpenAI-compatible endpoints (CBORG by
default), Anthropic, Gemini and Azure OpenAI.

Files, images and web search results can be added to the conversation, and
files can be edited by a dedicated editor model with a diff to review before
anything is written.

Examples:
  omni                                  # Interactive mode
  omni -m anthropic/claude-sonnet -r    # Pick a model, render markdown
  omni --load chat_history.json         # Continue a saved conversation
  omni format chat.json chat.md         # Reformat a saved transcript
  omni config init                      # Write a default config file`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return app.fail(err)
			}
			if app.listModels {
				display.ShowModels(app.cfg.AvailableModels, app.cfg.Model)
				return nil
			}
			return app.runInteractive(cmd.Context())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringP(config.KeyModel, "m", "", "Chat model (e.g. openai/gpt-4o, anthropic/claude-sonnet)")
	pf.String(config.KeyEditorModel, "", "Model used by /edit and /new")
	pf.StringP(config.KeyProvider, "p", "", "AI provider: openai, anthropic, gemini, azure (default: openai)")
	pf.String(config.KeyBaseURL, "", "Base URL of the OpenAI-compatible endpoint")
	pf.String(config.KeySearchProvider, "", "Web search provider: duckduckgo, brave, google")
	pf.BoolP(config.KeyRender, "r", false, "Render markdown with colors and formatting")
	pf.Bool(config.KeyReviewEdits, false, "Ask before /edit and /new write a proposed change")
	pf.BoolP(config.KeyVerbose, "v", false, "Enable debug logging")
	pf.String(config.KeyLogLevel, "", "Log level: debug, info, warn, error, none")
	pf.String(config.KeyLogFormat, "", "Log format: text or json")
	pf.String(config.KeyLogFile, "", "Write logs to this file instead of stderr")
	pf.String(config.KeyConfigFile, "", "Config file (default: search the standard locations)")
	pf.String(config.KeyStateDir, "", "Directory for archived sessions")
	_ = app.v.BindPFlags(pf)

	rootCmd.Flags().StringP(config.KeyLoad, "l", "", "Load a saved conversation at start-up")
	rootCmd.Flags().BoolVar(&app.listModels, "list-models", false, "List known models and exit")
	_ = app.v.BindPFlag(config.KeyLoad, rootCmd.Flags().Lookup(config.KeyLoad))

	rootCmd.AddCommand(newFormatCmd(app))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSessionsCmd(app))

	return rootCmd
}

// setup resolves the configuration and configures logging and rendering.
func (app *App) setup() error {
	app.cfg = config.FromViper(app.v)
	if err := app.cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Configure(logging.Options{
		Level:  logging.ParseLevel(app.cfg.LogLevel),
		Format: logging.ParseFormat(app.cfg.LogFormat),
		File:   app.cfg.LogFile,
	}); err != nil {
		return apperr.Wrap(apperr.KindConfiguration, "logging", err)
	}
	if !app.cfg.ValidateModel(app.cfg.Model) {
		logging.Warn("model is not in the known model list", "model", app.cfg.Model)
	}
	logging.Debug("configuration loaded",
		"provider", app.cfg.Provider,
		"model", app.cfg.Model,
		"editor_model", app.cfg.EditorModel,
		"search", app.cfg.SearchProvider)

	if app.cfg.Render {
		if err := display.InitRenderer(); err != nil {
			logging.Warn("failed to initialize renderer", "error", err)
		}
	}
	return nil
}

// fail reports err to the user and hands it back for cobra's exit status.
func (app *App) fail(err error) error {
	chat.Report(err)
	return err
}

// getProviderName returns a human-readable provider name.
func (app *App) getProviderName() string {
	switch app.cfg.Provider {
	case config.ProviderAnthropic:
		return "Anthropic"
	case config.ProviderGemini:
		return "Google Gemini"
	case config.ProviderAzure:
		return "Azure OpenAI"
	default:
		return "OpenAI-compatible (" + app.cfg.BaseURL + ")"
	}
}
