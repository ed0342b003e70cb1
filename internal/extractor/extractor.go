// Package extractor parses markdown documentation and extracts the fenced
// code snippets to verify, together with their expected-output annotations.
//
// Extraction is a pure function of the document bytes: re-parsing the same
// input yields identical snippets. A fenced block becomes a verifiable
// snippet only when its trailing line comments contain an expected-output
// annotation; blocks without one are kept as illustrative-only and excluded
// from verification.
package extractor

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hollis/snipcheck/internal/models"
)

// Default fence languages treated as evaluatable JavaScript. Blocks with any
// other info string are never snippets.
var defaultLanguages = []string{"", "js", "javascript"}

// Extractor turns markdown source into a models.Document.
type Extractor struct {
	markdown  goldmark.Markdown
	languages map[string]bool
}

// New creates an Extractor. languages lists the fence info strings accepted
// as evaluatable snippets; nil selects the defaults ("", "js", "javascript").
func New(languages []string) *Extractor {
	if len(languages) == 0 {
		languages = defaultLanguages
	}
	accepted := make(map[string]bool, len(languages))
	for _, lang := range languages {
		accepted[strings.ToLower(strings.TrimSpace(lang))] = true
	}
	return &Extractor{
		markdown:  goldmark.New(),
		languages: accepted,
	}
}

// Extract reads the full document from r and extracts its snippets.
// path is used only for error messages and reporting.
func (e *Extractor) Extract(path string, r io.Reader) (*models.Document, error) {
	source, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return e.ExtractBytes(path, source)
}

// ExtractBytes extracts snippets from in-memory document source.
func (e *Extractor) ExtractBytes(path string, source []byte) (*models.Document, error) {
	doc := &models.Document{Path: path}
	lines := newLineIndex(source)

	root := e.markdown.Parser().Parse(text.NewReader(source))

	current := models.Section{}
	flush := func() {
		if len(current.Snippets) > 0 || current.Title != "" {
			doc.Sections = append(doc.Sections, current)
		}
	}

	var extractErr error
	walkErr := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			title := headingText(node, source)
			if node.Level == 1 && doc.Title == "" {
				doc.Title = title
				return ast.WalkSkipChildren, nil
			}
			if node.Level == 2 || node.Level == 3 {
				flush()
				current = models.Section{Title: title}
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			snippet, ok, err := e.extractSnippet(node, source, lines)
			if err != nil {
				extractErr = &Error{Path: path, Line: snippet.StartLine, Err: err}
				return ast.WalkStop, nil
			}
			if ok {
				snippet.Section = current.Title
				current.Snippets = append(current.Snippets, snippet)
			}
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk markdown tree: %w", walkErr)
	}
	if extractErr != nil {
		return nil, extractErr
	}

	flush()
	return doc, nil
}

// extractSnippet converts one fenced block into a Snippet. The bool result is
// false for blocks that are not snippets at all (wrong language, empty body).
func (e *Extractor) extractSnippet(node *ast.FencedCodeBlock, source []byte, lines *lineIndex) (models.Snippet, bool, error) {
	lang := ""
	if node.Info != nil {
		lang = strings.ToLower(strings.TrimSpace(string(node.Info.Value(source))))
		// Only the first word of the info string names the language.
		if i := strings.IndexByte(lang, ' '); i >= 0 {
			lang = lang[:i]
		}
	}
	if !e.languages[lang] {
		return models.Snippet{}, false, nil
	}

	segments := node.Lines()
	if segments.Len() == 0 {
		return models.Snippet{}, false, nil
	}

	var body strings.Builder
	for i := 0; i < segments.Len(); i++ {
		seg := segments.At(i)
		body.Write(seg.Value(source))
	}

	first := segments.At(0)
	last := segments.At(segments.Len() - 1)
	snippet := models.Snippet{
		Source:    body.String(),
		Language:  lang,
		StartLine: lines.lineOf(first.Start),
		EndLine:   lines.lineOf(last.Stop - 1),
	}

	expectation, err := parseAnnotation(snippet.Source)
	if err != nil {
		return snippet, false, err
	}
	snippet.Expectation = expectation
	return snippet, true, nil
}

// headingText extracts the plain text of a heading node.
func headingText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return strings.TrimSpace(sb.String())
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(source []byte) *lineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) lineOf(offset int) int {
	if offset < 0 {
		offset = 0
	}
	return sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	})
}
