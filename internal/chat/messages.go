package chat

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quocvuong92/omni-cli/internal/history"
	"github.com/quocvuong92/omni-cli/internal/images"
	"github.com/quocvuong92/omni-cli/internal/search"
)

const fence = "```"

// FileMessage labels content as the file at path inside a fenced block.
func FileMessage(path, content string) string {
	return fmt.Sprintf("File: %s\n\n%s\n", path, fenced(filepath.Ext(path), content))
}

// EditMessage is the editor turn asking for a new version of path.
func EditMessage(path, content, instructions string) string {
	body := "(empty file)"
	if content != "" {
		body = fenced(filepath.Ext(path), content)
	}
	return fmt.Sprintf("File: %s\n\n%s\n\nInstructions: %s", path, body, instructions)
}

func fenced(ext, content string) string {
	lang := strings.TrimPrefix(ext, ".")
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return fence + lang + "\n" + content + fence
}

// ExtractCode returns the body of the first fenced code block in reply, or
// the whole reply when it has none. A reply that opens with a fence is one
// block closed by its last fence; nested blocks stay in the body.
func ExtractCode(reply string) string {
	start := strings.Index(reply, fence)
	if start < 0 {
		return strings.TrimSpace(reply) + "\n"
	}
	body := reply[start+len(fence):]
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return strings.TrimSpace(reply) + "\n"
	}
	body = body[nl+1:]

	if body == fence || strings.HasPrefix(body, fence+"\n") {
		return ""
	}
	closeAt := strings.Index
	if strings.HasPrefix(strings.TrimSpace(reply), fence) {
		closeAt = strings.LastIndex
	}
	if end := closeAt(body, "\n"+fence); end >= 0 {
		return body[:end+1]
	}
	return body
}

// SearchMessage formats results as the user turn added by /search.
func SearchMessage(query string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n\n", query)
	if len(results) == 0 {
		b.WriteString("No results.\n")
	}
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.Body != "" {
			b.WriteString(r.Body + "\n")
		}
		if r.URL != "" {
			b.WriteString(r.URL + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ImageMessage is a user turn with one image part per image, followed by a
// text part naming them.
func ImageMessage(imgs []images.Image) history.Message {
	parts := make(history.MultipartContent, 0, len(imgs)+1)
	names := make([]string, 0, len(imgs))
	for _, img := range imgs {
		parts = append(parts, history.ImagePart(img.DataURL()))
		names = append(names, img.Key)
	}
	parts = append(parts, history.TextPart("Attached images: "+strings.Join(names, ", ")))
	return history.Message{Role: history.RoleUser, Content: parts}
}
