package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
)

// linePrompter answers nested prompts on a terminal. Ctrl+C and Ctrl+D
// both return an error, which the dispatcher treats as cancellation.
type linePrompter struct {
	models []string
}

func newLinePrompter(models []string) *linePrompter {
	return &linePrompter{models: models}
}

// Prompt reads one line with label as the prompt. Model names complete
// with Tab.
func (p *linePrompter) Prompt(label string) (string, error) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(p.complete)
	return line.Prompt(label)
}

func (p *linePrompter) complete(prefix string) []string {
	var out []string
	for _, m := range p.models {
		if strings.HasPrefix(m, prefix) {
			out = append(out, m)
		}
	}
	return out
}

// readerPrompter answers nested prompts from piped input, sharing the
// reader the REPL reads commands from.
type readerPrompter struct {
	r *bufio.Reader
	w io.Writer
}

func newReaderPrompter(r *bufio.Reader, w io.Writer) *readerPrompter {
	return &readerPrompter{r: r, w: w}
}

// Prompt prints label and returns the next line without its newline. At
// end of input it returns io.EOF.
func (p *readerPrompter) Prompt(label string) (string, error) {
	fmt.Fprint(p.w, label)
	line, err := p.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
