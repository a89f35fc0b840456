package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/quocvuong92/omni-cli/internal/constants"
)

// ConfigFileName is the name of the config file
const ConfigFileName = "config.yaml"

// FileConfig represents the configuration file structure
type FileConfig struct {
	Provider string `yaml:"provider,omitempty"` // "openai", "anthropic", "gemini", "azure"
	BaseURL  string `yaml:"base_url,omitempty"`

	Models    *ModelsConfig   `yaml:"models,omitempty"`
	Anthropic *KeyConfig      `yaml:"anthropic,omitempty"`
	Gemini    *KeyConfig      `yaml:"gemini,omitempty"`
	Azure     *AzureConfig    `yaml:"azure,omitempty"`
	Search    *SearchConfig   `yaml:"search,omitempty"`
	Display   *DisplayConfig  `yaml:"display,omitempty"`
	Logging   *LoggingConfig  `yaml:"logging,omitempty"`
	Paths     *PathsConfig    `yaml:"paths,omitempty"`
	Generate  *GenerateConfig `yaml:"generate,omitempty"`
}

// ModelsConfig holds model selection
type ModelsConfig struct {
	Default   string   `yaml:"default,omitempty"`
	Editor    string   `yaml:"editor,omitempty"`
	Format    string   `yaml:"format,omitempty"`
	Available []string `yaml:"available,omitempty"` // offered by completion
}

// KeyConfig holds an API key for a provider that needs nothing else
type KeyConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
}

// AzureConfig holds Azure-specific configuration
type AzureConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
}

// SearchConfig holds web search configuration
type SearchConfig struct {
	Provider  string   `yaml:"provider,omitempty"` // "duckduckgo", "brave", "google"
	Results   int      `yaml:"results,omitempty"`
	BraveKeys []string `yaml:"brave_keys,omitempty"`
}

// DisplayConfig holds output preferences
type DisplayConfig struct {
	Render      bool `yaml:"render,omitempty"`
	ReviewEdits bool `yaml:"review_edits,omitempty"`
}

// LoggingConfig holds logging preferences
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// PathsConfig holds filesystem locations
type PathsConfig struct {
	StateDir string `yaml:"state_dir,omitempty"`
}

// GenerateConfig holds request parameters
type GenerateConfig struct {
	MaxTokens int `yaml:"max_tokens,omitempty"`
}

// GetConfigPaths returns the paths to check for config files (in order of priority)
func GetConfigPaths() []string {
	var paths []string

	paths = append(paths, filepath.Join(".", "."+constants.AppName, ConfigFileName))

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, constants.AppName, ConfigFileName))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", constants.AppName, ConfigFileName))
	}

	return paths
}

// LoadConfigFile loads the config file at explicit, or the first one found
// in GetConfigPaths when explicit is empty. A missing default file yields an
// empty config; a missing explicit file is an error.
func LoadConfigFile(explicit string) (*FileConfig, error) {
	if explicit != "" {
		return loadConfigFromPath(explicit)
	}

	for _, path := range GetConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return loadConfigFromPath(path)
		}
	}

	return &FileConfig{}, nil
}

func loadConfigFromPath(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// ApplyFileConfig applies file configuration to the main Config.
// File values only fill fields that flags and environment left empty.
func (c *Config) ApplyFileConfig(fc *FileConfig) {
	if fc == nil {
		return
	}

	setIfEmpty(&c.Provider, fc.Provider)
	setIfEmpty(&c.BaseURL, fc.BaseURL)

	if fc.Models != nil {
		setIfEmpty(&c.Model, fc.Models.Default)
		setIfEmpty(&c.EditorModel, fc.Models.Editor)
		setIfEmpty(&c.FormatModel, fc.Models.Format)
		if len(fc.Models.Available) > 0 && len(c.AvailableModels) == 0 {
			c.AvailableModels = fc.Models.Available
		}
	}
	if fc.Anthropic != nil {
		setIfEmpty(&c.AnthropicAPIKey, fc.Anthropic.APIKey)
	}
	if fc.Gemini != nil {
		setIfEmpty(&c.GeminiAPIKey, fc.Gemini.APIKey)
	}
	if fc.Azure != nil {
		setIfEmpty(&c.AzureEndpoint, fc.Azure.Endpoint)
		setIfEmpty(&c.AzureAPIKey, fc.Azure.APIKey)
	}
	if fc.Search != nil {
		setIfEmpty(&c.SearchProvider, fc.Search.Provider)
		if c.SearchResults == 0 {
			c.SearchResults = fc.Search.Results
		}
		// Environment keys win over file keys.
		if len(fc.Search.BraveKeys) > 0 && os.Getenv(EnvBraveAPIKeys) == "" && c.BraveKeys == nil {
			c.BraveKeys = NewKeyRotatorFromKeys(fc.Search.BraveKeys)
		}
	}
	// Only true can be applied: an unset flag and a false flag look the same.
	if fc.Display != nil && fc.Display.Render {
		c.Render = true
	}
	if fc.Display != nil && fc.Display.ReviewEdits {
		c.ReviewEdits = true
	}
	if fc.Logging != nil {
		setIfEmpty(&c.LogLevel, fc.Logging.Level)
		setIfEmpty(&c.LogFormat, fc.Logging.Format)
		setIfEmpty(&c.LogFile, fc.Logging.File)
	}
	if fc.Paths != nil {
		setIfEmpty(&c.StateDir, fc.Paths.StateDir)
	}
	if fc.Generate != nil && c.MaxTokens == 0 {
		c.MaxTokens = fc.Generate.MaxTokens
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files (default
// ./.env) into the process environment. Variables that are already set are
// left alone and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// CreateDefaultConfigFile creates a default config file at the user config directory
func CreateDefaultConfigFile() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine config directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, constants.AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

const defaultConfigTemplate = `# omni configuration
# Location: ~/.config/omni/config.yaml
# Precedence: flags > environment > .env > this file > defaults

# Chat provider: openai (any OpenAI-compatible endpoint), anthropic, gemini, azure
# provider: openai
# base_url: https://api.cborg.lbl.gov

# models:
#   default: openai/gpt-4o
#   editor: anthropic/claude-sonnet
#   format: google/gemini-pro
#   available:
#     - openai/gpt-4o
#     - anthropic/claude-sonnet

# anthropic:
#   api_key: your-key
# gemini:
#   api_key: your-key
# azure:
#   endpoint: https://your-resource.openai.azure.com
#   api_key: your-key

# search:
#   provider: duckduckgo  # duckduckgo, brave, or google
#   results: 5
#   brave_keys:
#     - your-brave-key

# display:
#   render: true
#   review_edits: true  # ask before /edit and /new write a change

# logging:
#   level: error  # debug, info, warn, error, none
#   format: text  # text or json
#   file: /tmp/omni.log

# paths:
#   state_dir: ~/.local/state/omni

# generate:
#   max_tokens: 8192
`
