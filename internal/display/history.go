package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quocvuong92/omni-cli/internal/history"
)

var roleStyles = map[history.Role]lipgloss.Style{
	history.RoleSystem:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
	history.RoleUser:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	history.RoleAssistant: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
}

// MessageText returns the printable body of m. Image parts show as [image].
func MessageText(m history.Message) string {
	parts, ok := m.Content.(history.MultipartContent)
	if !ok {
		return m.Text()
	}
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString("\n")
		}
		if p.Type == history.PartImageURL {
			b.WriteString("[image]")
		} else {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// ShowHistory prints each message as "role: content".
func ShowHistory(msgs []history.Message, render bool) {
	w := Stdout()
	for _, m := range msgs {
		role := roleStyles[m.Role].Render(string(m.Role) + ":")
		body := MessageText(m)
		if render {
			fmt.Fprintln(w, role)
			fmt.Fprint(w, Render(body))
			continue
		}
		fmt.Fprintf(w, "%s %s\n", role, body)
	}
}

// ShowStoredImages lists the images attached this session.
func ShowStoredImages(imgs []history.StoredImage) {
	w := Stdout()
	if len(imgs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No images stored."))
		return
	}
	for i, img := range imgs {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, img.Key, dimStyle.Render(fmt.Sprintf("(%s, %s, %d bytes base64)", img.Source, img.MIMEType, len(img.Content))))
	}
}

// ShowStoredSearches lists the searches made this session.
func ShowStoredSearches(searches []history.StoredSearch) {
	w := Stdout()
	if len(searches) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No searches yet."))
		return
	}
	for _, s := range searches {
		fmt.Fprintf(w, "%d. %q %s\n", s.Index, s.Query, dimStyle.Render(fmt.Sprintf("(%d results, %s)", len(s.Results), s.At.Format("15:04:05"))))
		for _, r := range s.Results {
			fmt.Fprintf(w, "   - %s\n", r.Title)
		}
	}
}

// ShowArchive lists archived sessions, newest first.
func ShowArchive(entries []history.Entry) {
	w := Stdout()
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %s\n", dimStyle.Render(e.UpdatedAt.Format("2006-01-02 15:04")), e.Model, e.Preview(60))
	}
}
