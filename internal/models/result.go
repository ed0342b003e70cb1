package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/hollis/snipcheck/internal/value"
)

// Snippet verification status constants.
const (
	StatusPass = "PASS" // Actual outcome matched the expectation
	StatusFail = "FAIL" // Actual outcome diverged from the expectation
)

// Evaluation error kinds produced by the sandbox itself rather than the
// snippet's own code.
const (
	ErrorKindTimeout  = "Timeout"     // Execution exceeded the configured bound
	ErrorKindCanceled = "Canceled"    // Run-level cancellation aborted the evaluation
	ErrorKindSyntax   = "SyntaxError" // Source failed to compile
)

// ResultKind selects the variant held by an EvaluationResult.
type ResultKind int

// Evaluation result variants.
const (
	ResultValue ResultKind = iota // Evaluation completed with a value
	ResultError                   // Evaluation raised or was interrupted
)

// EvaluationResult is the outcome of running one snippet in the sandbox.
// Console output is always captured, whether or not the snippet completed.
type EvaluationResult struct {
	Kind         ResultKind
	Value        value.Value   // ResultValue: the program's completion value
	ErrorKind    string        // ResultError: e.g. "TypeError", "Timeout"
	ErrorMessage string        // ResultError: the error's message
	ConsoleLines []string      // Captured console output, one entry per call
	Duration     time.Duration // Wall-clock evaluation time
}

// Describe renders the result for human-readable reports.
func (r EvaluationResult) Describe() string {
	if r.Kind == ResultError {
		if r.ErrorMessage != "" {
			return fmt.Sprintf("threw %s: %s", r.ErrorKind, r.ErrorMessage)
		}
		return fmt.Sprintf("threw %s", r.ErrorKind)
	}
	if r.Value.Kind == value.Undefined && len(r.ConsoleLines) > 0 {
		return fmt.Sprintf("logged %q", strings.Join(r.ConsoleLines, " | "))
	}
	return r.Value.String()
}

// SnippetReport is the verdict for one verified snippet: the expectation,
// the actual outcome, and whether they matched.
type SnippetReport struct {
	Snippet Snippet
	Actual  EvaluationResult
	Pass    bool
	Detail  string // Populated on failure with the first point of divergence
}

// Status returns the report's status constant.
func (r SnippetReport) Status() string {
	if r.Pass {
		return StatusPass
	}
	return StatusFail
}

// RunSummary aggregates the reports of one document verification run.
type RunSummary struct {
	DocumentPath string
	Total        int // Number of verified (annotated) snippets
	Passed       int
	Failed       int
	Skipped      int  // Illustrative-only blocks excluded from verification
	Partial      bool // True when cancellation prevented some evaluations
	Duration     time.Duration
	Reports      []SnippetReport // Ordered by snippet position
}

// AllPassed reports whether every verified snippet passed. A document with
// zero verified snippets counts as passing.
func (s RunSummary) AllPassed() bool {
	return s.Failed == 0 && !s.Partial
}
