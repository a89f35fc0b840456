// Package constants provides shared constants used across the application
// to avoid circular dependencies between packages.
package constants

import "time"

// AppName is used for config directories, state directories and the binary name.
const AppName = "omni"

// Timeout constants used across the application
const (
	// DefaultAPITimeout is the timeout for model API requests (streaming can take a while)
	DefaultAPITimeout = 300 * time.Second
	// DefaultSearchTimeout is the timeout for a single web search request
	DefaultSearchTimeout = 20 * time.Second
	// DefaultImageTimeout is the timeout for validating and fetching remote images
	DefaultImageTimeout = 30 * time.Second
)

// Application defaults
const (
	DefaultProvider       = "openai"
	DefaultBaseURL        = "https://api.cborg.lbl.gov"
	DefaultModel          = "openai/gpt-4o"
	DefaultEditorModel    = "anthropic/claude-sonnet"
	DefaultFormatModel    = "google/gemini-pro"
	DefaultSearchProvider = "duckduckgo"
	DefaultMaxTokens      = 8192
	DefaultSearchResults  = 5
)

// System prompts seeding the two conversation threads.
const (
	DefaultSystemMessage = "You are a helpful assistant. Answer precisely and concisely. " +
		"When the user shares files, images or search results, use them as context for your answers."

	EditorSystemMessage = "You are an expert code editor. You receive the full content of a file and " +
		"instructions describing a change. Reply with the complete updated file inside a single fenced " +
		"code block and nothing else. Preserve formatting and content that the instructions do not touch."

	FormatSystemMessage = "You are an AI assistant tasked with formatting conversation transcripts."
)

// FormatPrompt wraps a transcript for the format subcommand. %s is replaced by the transcript.
const FormatPrompt = `Please format the following conversation transcript to be more human-readable.
Follow these guidelines:
1. Use headers to separate different parts of the conversation
2. Apply formatting to distinguish between the human and assistant and system prompt
3. Use code blocks for file paths and code snippets
4. Organize information into numbered lists for easier reading
5. Highlight important commands or file names

Here's the conversation transcript:

%s

Please provide the formatted version of this conversation.`

// File limits
const (
	// MaxFileSize caps files read into a conversation (512KB)
	MaxFileSize = 512 * 1024
	// MaxImageSize caps images encoded into a conversation (20MB)
	MaxImageSize = 20 * 1024 * 1024
)

// KnownModels seeds model-name completion in the interactive prompt.
var KnownModels = []string{
	"openai/gpt-4o",
	"openai/gpt-4o-mini",
	"openai/o1",
	"anthropic/claude-sonnet",
	"anthropic/claude-haiku",
	"anthropic/claude-opus",
	"google/gemini-pro",
	"google/gemini-flash",
	"lbl/cborg-chat:latest",
	"lbl/cborg-coder:latest",
}
