package files

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_Stats(t *testing.T) {
	oldText := "a\nb\nc\n"
	newText := "a\nB\nc\nd\n"

	lines, stats := Diff(oldText, newText)

	assert.Equal(t, DiffStats{Added: 2, Removed: 1}, stats)
	assert.True(t, stats.Changed())
	assert.Equal(t, "+2 -1", stats.String())

	var inserted, deleted []string
	for _, l := range lines {
		switch l.Op {
		case LineInsert:
			inserted = append(inserted, l.Text)
		case LineDelete:
			deleted = append(deleted, l.Text)
		}
	}
	assert.Equal(t, []string{"B", "d"}, inserted)
	assert.Equal(t, []string{"b"}, deleted)
}

func TestDiff_Identical(t *testing.T) {
	_, stats := Diff("same\n", "same\n")
	assert.False(t, stats.Changed())
}

func TestDiff_FromEmptyFile(t *testing.T) {
	lines, stats := Diff("", "package main\n\nfunc main() {}\n")
	assert.Equal(t, 3, stats.Added)
	assert.Equal(t, 0, stats.Removed)
	for _, l := range lines {
		assert.Equal(t, LineInsert, l.Op)
	}
}

func TestDiff_CollapsesLongUnchangedRuns(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("line\n")
	}
	body := sb.String()

	lines, _ := Diff("start\n"+body+"end\n", "START\n"+body+"end\n")

	var skips int
	for _, l := range lines {
		if l.Op == LineSkip {
			skips++
			assert.Contains(t, l.Text, "unchanged lines")
		}
	}
	assert.Equal(t, 1, skips)
	assert.Less(t, len(lines), 20)
}

func TestUnifiedDiff(t *testing.T) {
	out := UnifiedDiff("main.go", "x := 1\n", "x := 2\n")

	assert.True(t, strings.HasPrefix(out, "--- a/main.go\n+++ b/main.go\n"))
	assert.Contains(t, out, "- x := 1\n")
	assert.Contains(t, out, "+ x := 2\n")
}
