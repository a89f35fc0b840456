// Package display handles terminal output: styled messages, markdown
// rendering, progress and diffs.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	mu     sync.Mutex
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	renderer *glamour.TermRenderer
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	fatalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Bold(true).Padding(0, 1)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// SetOutput redirects normal and error output. Passing nil keeps the
// current writer.
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if stdout != nil {
		out = stdout
	}
	if stderr != nil {
		errOut = stderr
	}
}

// Stdout returns the current normal output writer.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

func stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return errOut
}

// InitRenderer sets up the markdown renderer used by ShowContentRendered.
func InitRenderer() error {
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w - 4
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	mu.Lock()
	renderer = r
	mu.Unlock()
	return nil
}

// ShowContent prints text as is.
func ShowContent(content string) {
	fmt.Fprintln(Stdout(), content)
}

// ShowContentRendered prints markdown through glamour, falling back to
// plain output when no renderer is set up.
func ShowContentRendered(content string) {
	fmt.Fprint(Stdout(), Render(content))
}

// Render returns content as rendered markdown, or unchanged plus a newline
// when rendering is unavailable.
func Render(content string) string {
	mu.Lock()
	r := renderer
	mu.Unlock()
	if r != nil {
		if rendered, err := r.Render(content); err == nil {
			return rendered
		}
	}
	return strings.TrimRight(content, "\n") + "\n"
}

// ShowError prints a red error line to stderr.
func ShowError(msg string) {
	fmt.Fprintln(stderr(), errorStyle.Render("Error: "+msg))
}

// ShowFatal prints an emphatic error. It does not exit.
func ShowFatal(msg string) {
	fmt.Fprintln(stderr(), fatalStyle.Render("Configuration error")+" "+errorStyle.Render(msg))
}

// ShowWarning prints a yellow warning to stderr.
func ShowWarning(msg string) {
	fmt.Fprintln(stderr(), warningStyle.Render("Warning: "+msg))
}

// ShowInfo prints an informational line.
func ShowInfo(msg string) {
	fmt.Fprintln(Stdout(), infoStyle.Render(msg))
}

// ShowSuccess prints a green confirmation line.
func ShowSuccess(msg string) {
	fmt.Fprintln(Stdout(), successStyle.Render(msg))
}

// ShowModels lists the known models and marks the current one.
func ShowModels(models []string, current string) {
	w := Stdout()
	fmt.Fprintln(w, headerStyle.Render("Available models"))
	for _, m := range models {
		if m == current {
			fmt.Fprintf(w, "  %s %s\n", successStyle.Render("*"), m)
		} else {
			fmt.Fprintf(w, "    %s\n", m)
		}
	}
}
