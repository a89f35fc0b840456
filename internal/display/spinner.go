package display

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner is a stderr activity indicator.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a stopped spinner with msg after the animation.
func NewSpinner(msg string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(stderr()))
	s.Suffix = " " + msg
	return &Spinner{s: s}
}

func (sp *Spinner) Start() { sp.s.Start() }
func (sp *Spinner) Stop()  { sp.s.Stop() }

// Progress shows a spinner until the first fragment arrives, then one dot
// per fragment.
type Progress struct {
	label   string
	spinner *Spinner
	dots    int
	quiet   bool
}

// NewProgress returns a progress sink labelled msg.
func NewProgress(msg string) *Progress {
	return &Progress{label: msg}
}

// NewQuietProgress returns a progress sink that prints nothing, for
// non-interactive runs.
func NewQuietProgress() *Progress {
	return &Progress{quiet: true}
}

// Waiting starts the spinner.
func (p *Progress) Waiting() {
	p.dots = 0
	if p.quiet {
		return
	}
	p.spinner = NewSpinner(p.label)
	p.spinner.Start()
}

// Fragment prints a dot, stopping the spinner on the first one.
func (p *Progress) Fragment(string) {
	if p.quiet {
		return
	}
	p.stopSpinner()
	p.dots++
	fmt.Fprint(stderr(), ".")
}

// Done stops the spinner and ends the dot line.
func (p *Progress) Done() {
	if p.quiet {
		return
	}
	p.stopSpinner()
	if p.dots > 0 {
		fmt.Fprintln(stderr())
	}
}

// Dots returns how many fragments the current stream has produced.
func (p *Progress) Dots() int { return p.dots }

func (p *Progress) stopSpinner() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}
