package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/constants"
)

// Environment variable names
const (
	// Primary OpenAI-compatible endpoint (CBORG by default)
	EnvAPIKey  = "OMNI_API_KEY"
	EnvBaseURL = "OMNI_BASE_URL"

	// Legacy key names accepted as fallbacks for EnvAPIKey
	EnvCBORGAPIKey    = "CBORG_API_KEY"
	EnvCycloGPTAPIKey = "CYCLOGPT_API_KEY"

	// Provider and model selection
	EnvProvider    = "OMNI_PROVIDER"
	EnvModel       = "OMNI_MODEL"
	EnvEditorModel = "OMNI_EDITOR_MODEL"

	// Other providers
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvAzureEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvAzureAPIKey     = "AZURE_OPENAI_API_KEY"

	// Web search settings
	EnvSearchProvider = "OMNI_SEARCH_PROVIDER"
	EnvBraveAPIKeys   = "BRAVE_API_KEYS"

	EnvStateDir = "OMNI_STATE_DIR"
)

// Supported providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderAzure     = "azure"
)

// Supported search providers
const (
	SearchDuckDuckGo = "duckduckgo"
	SearchBrave      = "brave"
	SearchGoogle     = "google"
)

// Errors
var (
	ErrAPIKeyNotFound        = errors.New("API key not found. Set OMNI_API_KEY (or CBORG_API_KEY) environment variable")
	ErrAnthropicKeyNotFound  = errors.New("Anthropic API key not found. Set ANTHROPIC_API_KEY environment variable")
	ErrGeminiKeyNotFound     = errors.New("Gemini API key not found. Set GEMINI_API_KEY environment variable")
	ErrEndpointNotFound      = errors.New("Azure endpoint not found. Set AZURE_OPENAI_ENDPOINT environment variable")
	ErrAzureKeyNotFound      = errors.New("Azure API key not found. Set AZURE_OPENAI_API_KEY environment variable")
	ErrInvalidProvider       = errors.New("invalid provider. Use 'openai', 'anthropic', 'gemini', or 'azure'")
	ErrInvalidSearchProvider = errors.New("invalid search provider. Use 'duckduckgo', 'brave', or 'google'")
	ErrSearchKeyNotFound     = errors.New("Brave search requires BRAVE_API_KEYS")
	ErrNoAvailableKeys       = errors.New("all API keys exhausted")
)

// Viper keys shared by the command layer and FromViper.
const (
	KeyProvider       = "provider"
	KeyBaseURL        = "base-url"
	KeyAPIKey         = "api-key"
	KeyModel          = "model"
	KeyEditorModel    = "editor-model"
	KeySearchProvider = "search-provider"
	KeyRender         = "render"
	KeyReviewEdits    = "review-edits"
	KeyVerbose        = "verbose"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyLogFile        = "log-file"
	KeyConfigFile     = "config"
	KeyLoad           = "load"
	KeyStateDir       = "state-dir"
)

// BindEnv binds the environment variables omni reads to their viper keys.
// Where several names are listed the first one set wins.
func BindEnv(v *viper.Viper) {
	_ = v.BindEnv(KeyProvider, EnvProvider)
	_ = v.BindEnv(KeyBaseURL, EnvBaseURL)
	_ = v.BindEnv(KeyAPIKey, EnvAPIKey, EnvCBORGAPIKey, EnvCycloGPTAPIKey)
	_ = v.BindEnv(KeyModel, EnvModel)
	_ = v.BindEnv(KeyEditorModel, EnvEditorModel)
	_ = v.BindEnv(KeySearchProvider, EnvSearchProvider)
	_ = v.BindEnv(KeyStateDir, EnvStateDir)
}

// Config holds the application configuration
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string

	AnthropicAPIKey string
	GeminiAPIKey    string
	AzureEndpoint   string
	AzureAPIKey     string

	Model           string
	EditorModel     string
	FormatModel     string
	AvailableModels []string
	MaxTokens       int

	SearchProvider string
	SearchResults  int
	BraveKeys      *KeyRotator

	// Flags
	Render      bool
	Verbose     bool
	ReviewEdits bool

	LogLevel  string
	LogFormat string
	LogFile   string

	// ConfigFile, when set, is the only config file consulted.
	ConfigFile string
	// LoadPath is a saved history to load at start-up.
	LoadPath string
	StateDir string
}

// NewConfig creates a new Config with defaults
func NewConfig() *Config {
	return &Config{}
}

// FromViper builds a Config from flags and environment bound on v.
// File values and defaults are applied later by Validate.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Provider:       strings.ToLower(v.GetString(KeyProvider)),
		BaseURL:        v.GetString(KeyBaseURL),
		APIKey:         strings.TrimSpace(v.GetString(KeyAPIKey)),
		Model:          v.GetString(KeyModel),
		EditorModel:    v.GetString(KeyEditorModel),
		SearchProvider: strings.ToLower(v.GetString(KeySearchProvider)),
		Render:         v.GetBool(KeyRender),
		ReviewEdits:    v.GetBool(KeyReviewEdits),
		Verbose:        v.GetBool(KeyVerbose),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
		LogFile:        v.GetString(KeyLogFile),
		ConfigFile:     v.GetString(KeyConfigFile),
		LoadPath:       v.GetString(KeyLoad),
		StateDir:       v.GetString(KeyStateDir),
	}
}

// Validate fills unset fields from the config file, the environment and
// defaults, then checks that the selected provider has credentials.
// Failures are configuration errors.
func (c *Config) Validate() error {
	fileConfig, err := LoadConfigFile(c.ConfigFile)
	if err != nil {
		return apperr.Wrap(apperr.KindConfiguration, "config", err)
	}
	c.ApplyFileConfig(fileConfig)

	if c.APIKey == "" {
		c.APIKey = firstEnv(EnvAPIKey, EnvCBORGAPIKey, EnvCycloGPTAPIKey)
	}
	if c.AnthropicAPIKey == "" {
		c.AnthropicAPIKey = strings.TrimSpace(os.Getenv(EnvAnthropicAPIKey))
	}
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = strings.TrimSpace(os.Getenv(EnvGeminiAPIKey))
	}
	if c.AzureEndpoint == "" {
		c.AzureEndpoint = os.Getenv(EnvAzureEndpoint)
	}
	c.AzureEndpoint = strings.TrimSuffix(c.AzureEndpoint, "/")
	if c.AzureAPIKey == "" {
		c.AzureAPIKey = strings.TrimSpace(os.Getenv(EnvAzureAPIKey))
	}

	if c.Provider == "" {
		c.Provider = constants.DefaultProvider
	}
	if c.BaseURL == "" && c.Provider == ProviderOpenAI {
		c.BaseURL = constants.DefaultBaseURL
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.Model == "" {
		c.Model = constants.DefaultModel
	}
	if c.EditorModel == "" {
		c.EditorModel = constants.DefaultEditorModel
	}
	if c.FormatModel == "" {
		c.FormatModel = constants.DefaultFormatModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = constants.DefaultMaxTokens
	}
	if len(c.AvailableModels) == 0 {
		c.AvailableModels = constants.KnownModels
	}

	if c.LogLevel == "" {
		if c.Verbose {
			c.LogLevel = "debug"
		} else {
			c.LogLevel = "error"
		}
	}

	if c.StateDir == "" {
		c.StateDir = DefaultStateDir()
	}

	switch c.Provider {
	case ProviderOpenAI:
		if c.APIKey == "" {
			return configErr(ErrAPIKeyNotFound)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return configErr(ErrAnthropicKeyNotFound)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return configErr(ErrGeminiKeyNotFound)
		}
	case ProviderAzure:
		if c.AzureEndpoint == "" {
			return configErr(ErrEndpointNotFound)
		}
		if c.AzureAPIKey == "" {
			return configErr(ErrAzureKeyNotFound)
		}
	default:
		return configErr(ErrInvalidProvider)
	}

	if c.BraveKeys == nil {
		c.BraveKeys = NewKeyRotator(EnvBraveAPIKeys)
	}
	if c.SearchResults <= 0 {
		c.SearchResults = constants.DefaultSearchResults
	}
	if c.SearchProvider == "" {
		c.SearchProvider = os.Getenv(EnvSearchProvider)
	}
	if c.SearchProvider == "" {
		if c.BraveKeys.HasKeys() {
			c.SearchProvider = SearchBrave
		} else {
			c.SearchProvider = constants.DefaultSearchProvider
		}
	}
	switch c.SearchProvider {
	case SearchDuckDuckGo, SearchGoogle:
	case SearchBrave:
		if !c.BraveKeys.HasKeys() {
			return configErr(ErrSearchKeyNotFound)
		}
	default:
		return configErr(ErrInvalidSearchProvider)
	}

	return nil
}

func configErr(err error) error {
	return apperr.Wrap(apperr.KindConfiguration, "config", err)
}

// ValidateModel checks if the given model is in available models
func (c *Config) ValidateModel(model string) bool {
	if len(c.AvailableModels) == 0 {
		return true
	}
	for _, m := range c.AvailableModels {
		if m == model {
			return true
		}
	}
	return false
}

// GetAzureAPIURL builds the full API URL for chat completions
func (c *Config) GetAzureAPIURL() string {
	return fmt.Sprintf("%s/openai/v1/chat/completions", c.AzureEndpoint)
}

// DefaultStateDir returns the directory holding archived sessions and
// prompt history: $XDG_STATE_HOME/omni, falling back to ~/.local/state/omni.
func DefaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, constants.AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", constants.AppName)
	}
	return filepath.Join(os.TempDir(), constants.AppName)
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
