package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hollis/snipcheck/internal/models"
	"github.com/hollis/snipcheck/internal/value"
)

// Annotation directive patterns. An expected-output annotation is the run of
// trailing line comments at the end of a snippet:
//
//	// => <literal>              value expectation
//	// throws <Kind>[: message]  error expectation
//	// logs: <text>              console-line expectation, repeatable
var (
	commentRegex = regexp.MustCompile(`^\s*//(.*)$`)
	valueRegex   = regexp.MustCompile(`^\s*//\s*=>\s*(.*)$`)
	throwsRegex  = regexp.MustCompile(`^\s*//\s*throws\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*(?::\s*(.*))?$`)
	logsRegex    = regexp.MustCompile(`^\s*//\s*logs:\s?(.*)$`)
)

// parseAnnotation inspects the trailing comment lines of snippet source and
// parses them into an Expectation. It returns (nil, nil) when the snippet has
// no annotation at all, and ErrMalformedAnnotation when an annotation is
// present but cannot be parsed.
func parseAnnotation(source string) (*models.Expectation, error) {
	group := trailingComments(source)
	if len(group) == 0 {
		return nil, nil
	}

	var (
		exp        *models.Expectation
		valueText  strings.Builder
		inValue    bool
		sawLiteral bool
	)

	fail := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrMalformedAnnotation, fmt.Sprintf(format, args...))
	}

	for _, line := range group {
		switch {
		case logsRegex.MatchString(line):
			m := logsRegex.FindStringSubmatch(line)
			if exp != nil && exp.Kind != models.ExpectLogs {
				return nil, fail("cannot mix 'logs:' with other directives")
			}
			if exp == nil {
				exp = &models.Expectation{Kind: models.ExpectLogs}
			}
			exp.Logs = append(exp.Logs, m[1])
			inValue = false

		case throwsRegex.MatchString(line):
			m := throwsRegex.FindStringSubmatch(line)
			if exp != nil {
				return nil, fail("multiple expectations declared")
			}
			exp = &models.Expectation{
				Kind:         models.ExpectError,
				ErrorKind:    m[1],
				ErrorMessage: strings.TrimSpace(m[2]),
			}
			inValue = false

		case valueRegex.MatchString(line):
			m := valueRegex.FindStringSubmatch(line)
			if exp != nil {
				return nil, fail("multiple expectations declared")
			}
			exp = &models.Expectation{Kind: models.ExpectValue}
			valueText.WriteString(m[1])
			inValue = true
			sawLiteral = true

		default:
			// A plain comment: either a continuation of a multi-line value
			// literal, or ordinary prose before any directive.
			m := commentRegex.FindStringSubmatch(line)
			if inValue {
				valueText.WriteString(" ")
				valueText.WriteString(strings.TrimSpace(m[1]))
			} else if exp != nil {
				return nil, fail("unexpected comment after %q directive", directiveName(exp.Kind))
			}
		}
	}

	if exp == nil {
		return nil, nil
	}

	if sawLiteral {
		literal := strings.TrimSpace(valueText.String())
		if literal == "" {
			return nil, fail("'=>' directive has no literal")
		}
		parsed, err := value.ParseLiteral(literal)
		if err != nil {
			return nil, fail("invalid literal %q: %v", literal, err)
		}
		exp.Value = parsed
	}

	return exp, nil
}

// trailingComments returns the run of comment lines at the end of the
// snippet, in source order. Blank lines after the comments are ignored;
// a blank line or code line above them ends the run.
func trailingComments(source string) []string {
	lines := strings.Split(strings.TrimRight(source, "\n"), "\n")

	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}

	start := end
	for start > 0 && commentRegex.MatchString(lines[start-1]) {
		start--
	}

	if start == end {
		return nil
	}
	return lines[start:end]
}

func directiveName(kind models.ExpectationKind) string {
	switch kind {
	case models.ExpectValue:
		return "=>"
	case models.ExpectError:
		return "throws"
	case models.ExpectLogs:
		return "logs:"
	default:
		return "unknown"
	}
}
