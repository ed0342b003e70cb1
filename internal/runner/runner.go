// Package runner coordinates parallel snippet verification.
//
// Snippets are independent, so they evaluate concurrently under a bounded
// worker pool. The aggregate summary is assembled only after every launched
// evaluation has finished (a join barrier); reports keep document order
// regardless of completion order. Run-level cancellation aborts pending
// evaluations while preserving completed results in a partial summary.
package runner

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/hollis/snipcheck/internal/comparator"
	"github.com/hollis/snipcheck/internal/models"
)

// Evaluator is the sandbox dependency. Implementations must be safe for
// concurrent use.
type Evaluator interface {
	Evaluate(ctx context.Context, snippet models.Snippet) models.EvaluationResult
}

// Logger receives per-snippet progress. May be nil to disable logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Runner verifies documents using a bounded pool of evaluation workers.
type Runner struct {
	evaluator      Evaluator
	maxConcurrency int
	logger         Logger
}

// New creates a Runner. maxConcurrency bounds parallel evaluations; a
// non-positive value selects the available hardware parallelism.
func New(eval Evaluator, maxConcurrency int, logger Logger) *Runner {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}
	return &Runner{
		evaluator:      eval,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Verify evaluates every annotated snippet in the document and returns the
// aggregate summary. The run always attempts all snippets: individual
// timeouts and runtime faults become failing reports, never run errors.
func (r *Runner) Verify(ctx context.Context, doc *models.Document) models.RunSummary {
	start := time.Now()
	verifiable := doc.VerifiableSnippets()

	summary := models.RunSummary{
		DocumentPath: doc.Path,
		Skipped:      len(doc.Snippets()) - len(verifiable),
	}
	if len(verifiable) == 0 {
		summary.Duration = time.Since(start)
		return summary
	}

	maxConcurrency := r.maxConcurrency
	if maxConcurrency > len(verifiable) {
		maxConcurrency = len(verifiable)
	}

	semaphore := make(chan struct{}, maxConcurrency)
	reports := make([]models.SnippetReport, len(verifiable))
	done := make([]bool, len(verifiable))

	var wg sync.WaitGroup
launch:
	for i, snippet := range verifiable {
		// Check before blocking on the semaphore so a canceled run stops
		// launching instead of waiting for a slot.
		select {
		case <-ctx.Done():
			break launch
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, snippet models.Snippet) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result := r.evaluator.Evaluate(ctx, snippet)
			reports[i] = comparator.Compare(snippet, result)
			done[i] = true

			if r.logger != nil {
				r.logger.Debugf("%s (%s): %s in %s",
					snippet.Ref(), snippet.Section, reports[i].Status(), result.Duration.Round(time.Millisecond))
				for _, line := range result.ConsoleLines {
					r.logger.Debugf("%s console: %s", snippet.Ref(), line)
				}
			}
		}(i, snippet)
	}

	// Join barrier: the summary only exists once all launched work is done.
	wg.Wait()

	for i := range verifiable {
		if !done[i] {
			summary.Partial = true
			continue
		}
		report := reports[i]
		if report.Actual.ErrorKind == models.ErrorKindCanceled {
			// Aborted mid-flight by run-level cancellation; not a verdict.
			summary.Partial = true
			continue
		}
		summary.Reports = append(summary.Reports, report)
		summary.Total++
		if report.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	summary.Duration = time.Since(start)
	return summary
}
