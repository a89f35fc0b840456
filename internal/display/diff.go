package display

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/quocvuong92/omni-cli/internal/files"
)

var (
	addStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	delStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pathStyle = lipgloss.NewStyle().Bold(true)
)

// ShowDiff prints a colored line diff for path with its change summary.
func ShowDiff(path string, lines []files.DiffLine, stats files.DiffStats) {
	w := Stdout()
	fmt.Fprintf(w, "%s %s\n", pathStyle.Render(path), dimStyle.Render("("+stats.String()+")"))
	for _, l := range lines {
		switch l.Op {
		case files.LineInsert:
			fmt.Fprintln(w, addStyle.Render("+ "+l.Text))
		case files.LineDelete:
			fmt.Fprintln(w, delStyle.Render("- "+l.Text))
		case files.LineSkip:
			fmt.Fprintln(w, dimStyle.Render(l.Text))
		default:
			fmt.Fprintln(w, "  "+l.Text)
		}
	}
}
