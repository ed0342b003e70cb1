// Package comparator matches evaluation results against expected-output
// annotations. Comparison is a pure function: it never returns an error, and
// every outcome is represented as a pass/fail report.
package comparator

import (
	"fmt"
	"strings"

	"github.com/hollis/snipcheck/internal/models"
)

// Compare produces the verdict for one verified snippet. The snippet must
// carry an expectation; callers filter illustrative-only blocks beforehand.
func Compare(snippet models.Snippet, actual models.EvaluationResult) models.SnippetReport {
	report := models.SnippetReport{
		Snippet: snippet,
		Actual:  actual,
	}

	exp := snippet.Expectation
	if exp == nil {
		report.Detail = "snippet has no expectation"
		return report
	}

	switch exp.Kind {
	case models.ExpectValue:
		report.Pass, report.Detail = compareValue(exp, actual)
	case models.ExpectError:
		report.Pass, report.Detail = compareError(exp, actual)
	case models.ExpectLogs:
		report.Pass, report.Detail = compareLogs(exp, actual)
	default:
		report.Detail = fmt.Sprintf("unknown expectation kind %d", exp.Kind)
	}

	return report
}

func compareValue(exp *models.Expectation, actual models.EvaluationResult) (bool, string) {
	if actual.Kind == models.ResultError {
		return false, fmt.Sprintf("expected %s but evaluation %s", exp.Value, actual.Describe())
	}
	if !exp.Value.Equal(actual.Value) {
		return false, fmt.Sprintf("expected %s but got %s", exp.Value, actual.Value)
	}
	return true, ""
}

func compareError(exp *models.Expectation, actual models.EvaluationResult) (bool, string) {
	if actual.Kind != models.ResultError {
		return false, fmt.Sprintf("expected %s but evaluation completed with %s", exp.Describe(), actual.Value)
	}
	if actual.ErrorKind != exp.ErrorKind {
		return false, fmt.Sprintf("expected %s but evaluation %s", exp.Describe(), actual.Describe())
	}
	// The declared message, when present, is a prefix of the actual one so
	// annotations can elide engine-specific detail.
	if exp.ErrorMessage != "" && !strings.HasPrefix(actual.ErrorMessage, exp.ErrorMessage) {
		return false, fmt.Sprintf("error message %q does not start with %q", actual.ErrorMessage, exp.ErrorMessage)
	}
	return true, ""
}

func compareLogs(exp *models.Expectation, actual models.EvaluationResult) (bool, string) {
	if actual.Kind == models.ResultError {
		return false, fmt.Sprintf("expected console output but evaluation %s", actual.Describe())
	}
	if len(actual.ConsoleLines) != len(exp.Logs) {
		return false, fmt.Sprintf("expected %d console line(s), got %d", len(exp.Logs), len(actual.ConsoleLines))
	}
	for i, want := range exp.Logs {
		if actual.ConsoleLines[i] != want {
			return false, fmt.Sprintf("console line %d: expected %q, got %q", i+1, want, actual.ConsoleLines[i])
		}
	}
	return true, ""
}
