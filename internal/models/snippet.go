// Package models defines the core data types shared across the extraction,
// evaluation, and comparison pipeline.
package models

import (
	"fmt"

	"github.com/hollis/snipcheck/internal/value"
)

// Document is one parsed markdown file with its extracted snippets grouped
// by section.
type Document struct {
	Path     string // As given on the command line; "<stdin>" for piped input
	Title    string // First H1 heading, if any
	Sections []Section
}

// Section groups the snippets under one H2/H3 heading. Snippets appearing
// before the first heading belong to an untitled section.
type Section struct {
	Title    string
	Snippets []Snippet
}

// Snippets returns every snippet in document order.
func (d *Document) Snippets() []Snippet {
	var all []Snippet
	for _, section := range d.Sections {
		all = append(all, section.Snippets...)
	}
	return all
}

// VerifiableSnippets returns the snippets carrying an expectation, in
// document order. Illustrative-only blocks are excluded.
func (d *Document) VerifiableSnippets() []Snippet {
	var verifiable []Snippet
	for _, s := range d.Snippets() {
		if s.Verifiable() {
			verifiable = append(verifiable, s)
		}
	}
	return verifiable
}

// Snippet is one fenced code block extracted from a document.
type Snippet struct {
	Source    string // Fence body, trailing newline included
	Language  string // Normalized fence info string ("" for bare fences)
	StartLine int    // 1-based line of the first body line
	EndLine   int    // 1-based line of the last body line
	Section   string // Title of the enclosing section, if any
	// Expectation is nil for illustrative-only blocks.
	Expectation *Expectation
}

// Verifiable reports whether the snippet carries an expectation and should
// be evaluated.
func (s Snippet) Verifiable() bool {
	return s.Expectation != nil
}

// Ref renders the snippet's position for reports, e.g. "lines 12-15".
func (s Snippet) Ref() string {
	if s.StartLine == s.EndLine {
		return fmt.Sprintf("line %d", s.StartLine)
	}
	return fmt.Sprintf("lines %d-%d", s.StartLine, s.EndLine)
}

// ExpectationKind selects which outcome an annotation asserts.
type ExpectationKind int

// Annotation kinds. A snippet's trailing comments assert exactly one.
const (
	ExpectValue ExpectationKind = iota // "// => <literal>"
	ExpectError                        // "// throws <Kind>[: prefix]"
	ExpectLogs                         // "// logs: <line>" (repeatable)
)

// Expectation is a parsed expected-output annotation.
type Expectation struct {
	Kind         ExpectationKind
	Value        value.Value // ExpectValue: the asserted completion value
	ErrorKind    string      // ExpectError: e.g. "TypeError"
	ErrorMessage string      // ExpectError: optional message prefix
	Logs         []string    // ExpectLogs: asserted console lines, in order
}

// Describe renders the expectation for human-readable reports.
func (e Expectation) Describe() string {
	switch e.Kind {
	case ExpectError:
		if e.ErrorMessage != "" {
			return fmt.Sprintf("throws %s: %s", e.ErrorKind, e.ErrorMessage)
		}
		return fmt.Sprintf("throws %s", e.ErrorKind)
	case ExpectLogs:
		return fmt.Sprintf("logs %d line(s)", len(e.Logs))
	default:
		return e.Value.String()
	}
}
