// Package ui renders extraction progress and results on a terminal.
package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Caia-Tech/caia-extractor/pkg/extractor"
	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar wraps a progressbar instance for deterministic progress display.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a percentage bar writing to w.
func NewProgressBar(w io.Writer, description string) *ProgressBar {
	bar := progressbar.NewOptions(
		100,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar}
}

// Set moves the bar to percent.
func (p *ProgressBar) Set(percent int) {
	_ = p.bar.Set(percent)
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}

// Spinner wraps a spinner instance for indeterminate progress display.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	s.spinner.Start()
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// UpdateMessage updates the spinner's message.
func (s *Spinner) UpdateMessage(message string) {
	s.spinner.Lock()
	s.spinner.Suffix = " " + message
	s.spinner.Unlock()
}

// FileProgress shows the progress of one file's extraction. Messages replace
// each other; OCR percentages switch the display to a progress bar.
type FileProgress struct {
	mu      sync.Mutex
	w       io.Writer
	name    string
	spinner *Spinner
	bar     *ProgressBar
	latest  string
	quiet   bool
}

// NewFileProgress starts a display for name. A quiet display only tracks the
// latest message.
func NewFileProgress(w io.Writer, name string, quiet bool) *FileProgress {
	p := &FileProgress{w: w, name: name, quiet: quiet}
	if !quiet {
		p.spinner = NewSpinner(w, name)
		p.spinner.Start()
	}
	return p
}

// Report is an extractor.ProgressFunc.
func (p *FileProgress) Report(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest = msg
	if p.quiet {
		return
	}

	if percent, ok := extractor.ParseOCRProgress(msg); ok {
		if p.bar == nil {
			p.spinner.Stop()
			p.bar = NewProgressBar(p.w, p.name)
		}
		p.bar.Set(percent)
		return
	}
	if p.bar == nil {
		p.spinner.UpdateMessage(p.name + ": " + msg)
	}
}

// Latest returns the most recent progress message.
func (p *FileProgress) Latest() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Done stops whatever is on screen.
func (p *FileProgress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.quiet {
		return
	}
	if p.bar != nil {
		p.bar.Finish()
		return
	}
	p.spinner.Stop()
}
