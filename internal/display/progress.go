package display

import (
	"fmt"
	"io"
	"path/filepath"
)

// ProgressIndicator manages multi-step progress display with ANSI colors.
type ProgressIndicator struct {
	writer    io.Writer
	totalDocs int
	current   int
}

// NewProgressIndicator creates a progress indicator for total documents.
func NewProgressIndicator(w io.Writer, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer:    w,
		totalDocs: total,
	}
}

// Start displays the header message.
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "Verifying documents:\n")
}

// Step displays progress for the current document: [N/Total] filename (cyan).
func (p *ProgressIndicator) Step(filename string) {
	p.current++
	fmt.Fprintf(p.writer, "\x1b[36m  [%d/%d] %s\x1b[0m\n", p.current, p.totalDocs, filepath.Base(filename))
}

// Complete displays the success message with a green checkmark.
func (p *ProgressIndicator) Complete() {
	fmt.Fprintf(p.writer, "\x1b[32m✓\x1b[0m Verified %d documents\n", p.totalDocs)
}
