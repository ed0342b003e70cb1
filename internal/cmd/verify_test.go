package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollis/snipcheck/internal/extractor"
	"github.com/hollis/snipcheck/internal/history"
)

const passingDoc = `# Guide

## Arithmetic

` + "```js" + `
const a = 2;
a + a;
// => 4
` + "```" + `

## Errors

` + "```js" + `
const x = 1;
x = 2;
// throws TypeError
` + "```" + `
`

const failingDoc = `# Guide

` + "```js" + `
1 + 1;
// => 3
` + "```" + `
`

const malformedDoc = `# Guide

` + "```js" + `
1 + 1;
// => {unclosed
` + "```" + `
`

// writeDoc writes markdown content to a temp file and returns its path.
func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout, stderr, and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVerifyCommandAllPass(t *testing.T) {
	path := writeDoc(t, passingDoc)

	out, _, err := execute(t, "verify", path, "--no-history")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ lines 6-8 (Arithmetic): 4")
	assert.Contains(t, out, "✓ lines 14-16 (Errors): throws TypeError")
	assert.Contains(t, out, "2 passed, 0 failed, 0 skipped")
}

func TestVerifyCommandFailure(t *testing.T) {
	path := writeDoc(t, failingDoc)

	out, _, err := execute(t, "verify", path, "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 snippet(s) failed")

	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "0 passed, 1 failed, 0 skipped")
}

func TestVerifyCommandMalformedAnnotation(t *testing.T) {
	path := writeDoc(t, malformedDoc)

	_, _, err := execute(t, "verify", path, "--no-history")
	require.Error(t, err)

	var extractErr *extractor.Error
	require.ErrorAs(t, err, &extractErr, "malformed annotations surface as extraction errors")
	assert.ErrorIs(t, err, extractor.ErrMalformedAnnotation)
}

func TestVerifyCommandJSONLFormat(t *testing.T) {
	path := writeDoc(t, passingDoc)

	out, _, err := execute(t, "verify", path, "--no-history", "--format", "jsonl")
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &record))
		assert.Equal(t, path, record["document"])
		assert.Equal(t, "PASS", record["status"])
	}
}

func TestVerifyCommandOutputFile(t *testing.T) {
	path := writeDoc(t, passingDoc)
	reportPath := filepath.Join(t.TempDir(), "report.jsonl")

	_, _, err := execute(t, "verify", path, "--no-history", "--output", reportPath)
	require.NoError(t, err)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	assert.Len(t, lines, 2)
}

func TestVerifyCommandInvalidFlags(t *testing.T) {
	path := writeDoc(t, passingDoc)

	_, _, err := execute(t, "verify", path, "--timeout", "soon")
	assert.ErrorContains(t, err, "invalid timeout")

	_, _, err = execute(t, "verify", path, "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestVerifyCommandMissingDocument(t *testing.T) {
	_, _, err := execute(t, "verify", filepath.Join(t.TempDir(), "absent.md"), "--no-history")
	assert.ErrorContains(t, err, "failed to open document")
}

func TestVerifyCommandRecordsHistory(t *testing.T) {
	docPath := writeDoc(t, passingDoc)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	configPath := filepath.Join(dir, "config.yaml")
	configYAML := fmt.Sprintf("history:\n  enabled: true\n  db_path: %s\n", dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0644))

	_, _, err := execute(t, "verify", docPath, "--config", configPath)
	require.NoError(t, err)

	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, docPath, runs[0].Document)
	assert.Equal(t, 2, runs[0].Passed)
	assert.False(t, runs[0].Partial)
}

func TestVerifyCommandRecordsPartialRunAfterCancel(t *testing.T) {
	docPath := writeDoc(t, passingDoc)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	configPath := filepath.Join(dir, "config.yaml")
	configYAML := fmt.Sprintf("history:\n  enabled: true\n  db_path: %s\n", dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0644))

	// An already-canceled context mirrors an interrupt arriving before the
	// run: no snippets launch and the summary is partial.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"verify", docPath, "--config", configPath})
	err := root.ExecuteContext(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partial")

	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1, "canceled runs must still be recorded")
	assert.True(t, runs[0].Partial)
	assert.Equal(t, 0, runs[0].Total)
}

func TestVerifyCommandStdin(t *testing.T) {
	// Replace os.Stdin with a pipe carrying the document.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	oldStdin := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = oldStdin })

	go func() {
		w.Write([]byte(failingDoc))
		w.Close()
	}()

	out, _, err := execute(t, "verify", "-", "--no-history")
	require.Error(t, err)
	assert.Contains(t, out, "<stdin>")
}

func TestVerifyCommandUnannotatedWarning(t *testing.T) {
	doc := "# Guide\n\n```js\nconst f = () => {};\n```\n"
	path := writeDoc(t, doc)

	out, errOut, err := execute(t, "verify", path, "--no-history")
	require.NoError(t, err, "a document with zero verified snippets passes")
	assert.Contains(t, errOut, "no annotated snippets")
	assert.Contains(t, out, "0 passed, 0 failed, 1 skipped")
}

func TestVerifyCommandErrorsAsExtractorError(t *testing.T) {
	path := writeDoc(t, malformedDoc)

	_, _, err := execute(t, "verify", path, "--no-history")
	var extractErr *extractor.Error
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, path, extractErr.Path)
}
