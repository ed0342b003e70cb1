// Package report renders verification results. Two forms are produced: a
// machine-readable stream of line-delimited JSON records, and a
// human-readable summary with colored pass/fail markers.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/hollis/snipcheck/internal/filelock"
	"github.com/hollis/snipcheck/internal/models"
)

// Record is the machine-readable form of one snippet verdict.
type Record struct {
	Document   string `json:"document"`
	Section    string `json:"section,omitempty"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Status     string `json:"status"`
	Expected   string `json:"expected"`
	Actual     string `json:"actual"`
	Detail     string `json:"detail,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// newRecord flattens a snippet report for serialization.
func newRecord(docPath string, r models.SnippetReport) Record {
	return Record{
		Document:   docPath,
		Section:    r.Snippet.Section,
		StartLine:  r.Snippet.StartLine,
		EndLine:    r.Snippet.EndLine,
		Status:     r.Status(),
		Expected:   r.Snippet.Expectation.Describe(),
		Actual:     r.Actual.Describe(),
		Detail:     r.Detail,
		DurationMS: r.Actual.Duration.Milliseconds(),
	}
}

// WriteJSONL writes one JSON record per verified snippet.
func WriteJSONL(w io.Writer, summary models.RunSummary) error {
	enc := json.NewEncoder(w)
	for _, r := range summary.Reports {
		if err := enc.Encode(newRecord(summary.DocumentPath, r)); err != nil {
			return fmt.Errorf("failed to encode report record: %w", err)
		}
	}
	return nil
}

// WriteText writes the human-readable report for one document.
func WriteText(w io.Writer, summary models.RunSummary, useColor bool) {
	pass := "✓"
	fail := "✗"
	if useColor {
		pass = color.GreenString("✓")
		fail = color.RedString("✗")
	}

	fmt.Fprintf(w, "%s\n", summary.DocumentPath)
	for _, r := range summary.Reports {
		location := r.Snippet.Ref()
		if r.Snippet.Section != "" {
			location = fmt.Sprintf("%s (%s)", location, r.Snippet.Section)
		}
		if r.Pass {
			fmt.Fprintf(w, "  %s %s: %s\n", pass, location, r.Snippet.Expectation.Describe())
		} else {
			fmt.Fprintf(w, "  %s %s: %s\n", fail, location, r.Detail)
		}
	}
}

// WriteSummary writes the aggregate counts across all documents.
func WriteSummary(w io.Writer, summaries []models.RunSummary, useColor bool) {
	var passed, failed, skipped int
	var duration time.Duration
	partial := false
	for _, s := range summaries {
		passed += s.Passed
		failed += s.Failed
		skipped += s.Skipped
		partial = partial || s.Partial
		duration += s.Duration
	}

	line := fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped)
	if partial {
		line += " (partial: run was canceled)"
	}
	line = fmt.Sprintf("\n%s in %s\n", line, duration.Round(time.Millisecond))

	if useColor {
		if failed > 0 || partial {
			line = color.RedString("%s", line)
		} else {
			line = color.GreenString("%s", line)
		}
	}
	fmt.Fprint(w, line)
}

// WriteFile writes the JSONL report for all summaries to path. The write is
// atomic and guarded by a file lock so concurrent invocations never
// interleave records.
func WriteFile(path string, summaries []models.RunSummary) error {
	var buf []byte
	for _, summary := range summaries {
		for _, r := range summary.Reports {
			record, err := json.Marshal(newRecord(summary.DocumentPath, r))
			if err != nil {
				return fmt.Errorf("failed to encode report record: %w", err)
			}
			buf = append(buf, record...)
			buf = append(buf, '\n')
		}
	}
	return filelock.LockAndWrite(path, buf)
}

// UseColor reports whether colored output should be used for the writer.
// Only real terminals get colors; pipes and files never do.
func UseColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
