package display

import (
	"fmt"
	"io"
	"strings"
)

// Warning is a user-facing notice about documents that could not be fully
// verified, rendered in yellow on the error stream.
type Warning struct {
	Title      string   // What went wrong
	Files      []string // Documents the warning applies to
	Suggestion string   // Optional remediation hint
}

// Display writes the warning to out.
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("\x1b[33m")
	fmt.Fprintf(&b, "⚠ %s\n", w.Title)
	for _, file := range w.Files {
		fmt.Fprintf(&b, "  - %s\n", file)
	}
	if w.Suggestion != "" {
		fmt.Fprintf(&b, "  hint: %s\n", w.Suggestion)
	}
	b.WriteString("\x1b[0m")

	fmt.Fprint(out, b.String())
}
