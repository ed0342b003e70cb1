package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollis/snipcheck/internal/models"
	"github.com/hollis/snipcheck/internal/value"
)

const sampleDoc = "# Modern Syntax Guide\n" +
	"\n" +
	"## Destructuring\n" +
	"\n" +
	"Array destructuring with defaults:\n" +
	"\n" +
	"```js\n" +
	"const [a, b = 3] = [1];\n" +
	"[a, b]\n" +
	"// => [1, 3]\n" +
	"```\n" +
	"\n" +
	"An illustrative block without an annotation:\n" +
	"\n" +
	"```js\n" +
	"const { name } = user;\n" +
	"```\n" +
	"\n" +
	"## Constants\n" +
	"\n" +
	"```javascript\n" +
	"const user = { name: 'John Doe', age: 42 };\n" +
	"user = {};\n" +
	"// throws TypeError: Assignment to constant variable\n" +
	"```\n" +
	"\n" +
	"```bash\n" +
	"echo not-javascript\n" +
	"```\n"

func TestExtractSampleDocument(t *testing.T) {
	e := New(nil)
	doc, err := e.Extract("guide.md", strings.NewReader(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "Modern Syntax Guide", doc.Title)
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "Destructuring", doc.Sections[0].Title)
	assert.Equal(t, "Constants", doc.Sections[1].Title)

	// The bash block is not a snippet; the unannotated js block is
	// illustrative-only.
	assert.Len(t, doc.Snippets(), 3)
	verifiable := doc.VerifiableSnippets()
	require.Len(t, verifiable, 2)

	first := verifiable[0]
	assert.Equal(t, models.ExpectValue, first.Expectation.Kind)
	assert.True(t, first.Expectation.Value.Equal(
		value.NewArray(value.NewNumber(1), value.NewNumber(3))))
	assert.Equal(t, 8, first.StartLine)
	assert.Equal(t, 10, first.EndLine)
	assert.Contains(t, first.Source, "const [a, b = 3] = [1];")

	second := verifiable[1]
	assert.Equal(t, models.ExpectError, second.Expectation.Kind)
	assert.Equal(t, "TypeError", second.Expectation.ErrorKind)
	assert.Equal(t, "Assignment to constant variable", second.Expectation.ErrorMessage)
	assert.Equal(t, "Constants", second.Section)
}

func TestExtractIsRestartable(t *testing.T) {
	e := New(nil)
	first, err := e.ExtractBytes("guide.md", []byte(sampleDoc))
	require.NoError(t, err)
	second, err := e.ExtractBytes("guide.md", []byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-parsing the same bytes must yield identical results")
}

func TestExtractMalformedAnnotation(t *testing.T) {
	doc := "# T\n\n```js\n1 + 1\n// => {broken\n```\n"

	e := New(nil)
	_, err := e.ExtractBytes("bad.md", []byte(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedAnnotation))

	var extractErr *Error
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "bad.md", extractErr.Path)
}

func TestExtractLogsAnnotation(t *testing.T) {
	doc := "```js\n" +
		"console.log('hello');\n" +
		"console.log('world');\n" +
		"// logs: hello\n" +
		"// logs: world\n" +
		"```\n"

	e := New(nil)
	parsed, err := e.ExtractBytes("logs.md", []byte(doc))
	require.NoError(t, err)

	verifiable := parsed.VerifiableSnippets()
	require.Len(t, verifiable, 1)
	exp := verifiable[0].Expectation
	assert.Equal(t, models.ExpectLogs, exp.Kind)
	assert.Equal(t, []string{"hello", "world"}, exp.Logs)
}

func TestExtractMultilineValueAnnotation(t *testing.T) {
	doc := "```js\n" +
		"const user = { name: 'John Doe', age: 42 };\n" +
		"user\n" +
		"// => { name: 'John Doe',\n" +
		"//      age: 42 }\n" +
		"```\n"

	e := New(nil)
	parsed, err := e.ExtractBytes("multi.md", []byte(doc))
	require.NoError(t, err)

	verifiable := parsed.VerifiableSnippets()
	require.Len(t, verifiable, 1)
	want := value.NewObject(map[string]value.Value{
		"name": value.NewString("John Doe"),
		"age":  value.NewNumber(42),
	})
	assert.True(t, want.Equal(verifiable[0].Expectation.Value))
}

func TestExtractEmptyDocument(t *testing.T) {
	e := New(nil)
	doc, err := e.ExtractBytes("empty.md", []byte("# Only prose\n\nNo code here.\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Snippets())
	assert.Empty(t, doc.VerifiableSnippets())
}

func TestExtractLanguageFilter(t *testing.T) {
	doc := "```ts\nlet x: number = 1;\nx\n// => 1\n```\n"

	// TypeScript fences are excluded by default but can be opted in.
	defaultExtractor := New(nil)
	parsed, err := defaultExtractor.ExtractBytes("ts.md", []byte(doc))
	require.NoError(t, err)
	assert.Empty(t, parsed.Snippets())

	tsExtractor := New([]string{"ts"})
	parsed, err = tsExtractor.ExtractBytes("ts.md", []byte(doc))
	require.NoError(t, err)
	assert.Len(t, parsed.VerifiableSnippets(), 1)
}

func TestTrailingComments(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"no comments", "1 + 1\n", 0},
		{"one trailing comment", "1 + 1\n// => 2\n", 1},
		{"comment group", "1 + 1\n// a\n// b\n", 2},
		{"comment interrupted by code", "// a\n1 + 1\n", 0},
		{"trailing blank lines ignored", "1 + 1\n// => 2\n\n", 1},
		{"blank line ends the group", "// a\n\n1 + 1\n// b\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, trailingComments(tt.source), tt.want)
		})
	}
}

func TestParseAnnotationErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"mixed value and throws", "x\n// => 1\n// throws TypeError\n"},
		{"mixed logs and throws", "x\n// logs: a\n// throws TypeError\n"},
		{"two value directives", "x\n// => 1\n// => 2\n"},
		{"empty literal", "x\n// =>\n"},
		{"bad literal", "x\n// => not-a-literal\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAnnotation(tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedAnnotation))
		})
	}
}

func TestParseAnnotationPlainCommentsAreNotAnnotations(t *testing.T) {
	exp, err := parseAnnotation("const f = () => {};\n// just a note about arrow functions\n")
	require.NoError(t, err)
	assert.Nil(t, exp)
}
