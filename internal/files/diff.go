package files

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffContext is the number of unchanged lines kept around each change.
const DiffContext = 3

// LineOp is the kind of a DiffLine.
type LineOp int

const (
	LineEqual LineOp = iota
	LineInsert
	LineDelete
	// LineSkip stands for a run of unchanged lines left out of the output.
	LineSkip
)

// DiffLine is one line of a rendered diff.
type DiffLine struct {
	Op   LineOp
	Text string
}

// DiffStats counts changed lines.
type DiffStats struct {
	Added   int
	Removed int
}

func (s DiffStats) String() string {
	return fmt.Sprintf("+%d -%d", s.Added, s.Removed)
}

// Changed reports whether any line differs.
func (s DiffStats) Changed() bool { return s.Added > 0 || s.Removed > 0 }

// Diff computes a line-level diff of oldText against newText, collapsing
// unchanged runs longer than twice DiffContext.
func Diff(oldText, newText string) ([]DiffLine, DiffStats) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []DiffLine
	var stats DiffStats
	for i, d := range diffs {
		chunk := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Added += len(chunk)
			for _, l := range chunk {
				out = append(out, DiffLine{Op: LineInsert, Text: l})
			}
		case diffmatchpatch.DiffDelete:
			stats.Removed += len(chunk)
			for _, l := range chunk {
				out = append(out, DiffLine{Op: LineDelete, Text: l})
			}
		case diffmatchpatch.DiffEqual:
			out = append(out, collapseEqual(chunk, i == 0, i == len(diffs)-1)...)
		}
	}
	return out, stats
}

func collapseEqual(chunk []string, first, last bool) []DiffLine {
	head, tail := DiffContext, DiffContext
	if first {
		head = 0
	}
	if last {
		tail = 0
	}

	var out []DiffLine
	if len(chunk) <= head+tail+1 {
		for _, l := range chunk {
			out = append(out, DiffLine{Op: LineEqual, Text: l})
		}
		return out
	}
	for _, l := range chunk[:head] {
		out = append(out, DiffLine{Op: LineEqual, Text: l})
	}
	skipped := len(chunk) - head - tail
	out = append(out, DiffLine{Op: LineSkip, Text: fmt.Sprintf("@@ %d unchanged lines @@", skipped)})
	for _, l := range chunk[len(chunk)-tail:] {
		out = append(out, DiffLine{Op: LineEqual, Text: l})
	}
	return out
}

// UnifiedDiff renders Diff as plain text with +/- markers under a header
// naming path.
func UnifiedDiff(path, oldText, newText string) string {
	lines, _ := Diff(oldText, newText)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for _, l := range lines {
		switch l.Op {
		case LineInsert:
			sb.WriteString("+ ")
		case LineDelete:
			sb.WriteString("- ")
		case LineEqual:
			sb.WriteString("  ")
		}
		sb.WriteString(l.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}
