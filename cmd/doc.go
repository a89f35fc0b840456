// Package cmd implements the omni command line.
//
// # Layout
//
//   - root.go: App, the cobra root command, flag and viper binding
//   - session.go: builds the gateway, search client and dispatcher from config
//   - interactive.go: the REPL (go-prompt on a terminal, a line reader otherwise)
//   - prompter.go: nested prompts answered through liner or the piped reader
//   - format.go: the format subcommand
//   - config.go: the config subcommand
//   - sessions.go: lists or clears archived sessions
//
// Every input line is handed to chat.Dispatcher; this package only reads
// lines, wires collaborators and prints the banner.
//
// # Usage
//
//	func main() {
//	    cmd.Execute()
//	}
package cmd
