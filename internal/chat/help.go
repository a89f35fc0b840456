package chat

import (
	"fmt"
	"text/tabwriter"

	"github.com/quocvuong92/omni-cli/internal/display"
)

var helpRows = [][2]string{
	{"/add <path>", "Add a text file to the conversation"},
	{"/edit <path>", "Edit a file with the editor model and review the diff"},
	{"/new <path>", "Create a file, optionally generating its content"},
	{"/search", "Search the web and add the results"},
	{"/image <path|url>...", "Attach local or remote images"},
	{"/model", "Show the current models"},
	{"/model change [name]", "Change the chat model"},
	{"/model editor [name]", "Change the editor model"},
	{"/history", "Show the conversation"},
	{"/history reset, /reset", "Clear the conversation, keeping the system prompt"},
	{"/save [path]", "Save the conversation as JSON"},
	{"/load [path]", "Load a saved conversation"},
	{"/images, /searches", "List what was attached this session"},
	{"/resume", "Continue the last archived session"},
	{"/help", "Show this help"},
	{"/exit, /quit, /q", "Leave"},
}

// ShowHelp prints the command table.
func ShowHelp() {
	w := tabwriter.NewWriter(display.Stdout(), 0, 0, 3, ' ', 0)
	for _, row := range helpRows {
		fmt.Fprintf(w, "  %s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
	fmt.Fprintln(display.Stdout(), "\nAnything else is sent to the model.")
}
