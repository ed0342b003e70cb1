package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollis/snipcheck/internal/models"
	"github.com/hollis/snipcheck/internal/value"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSummary(doc string, passed, failed int) models.RunSummary {
	summary := models.RunSummary{
		DocumentPath: doc,
		Total:        passed + failed,
		Passed:       passed,
		Failed:       failed,
		Duration:     50 * time.Millisecond,
	}
	for i := 0; i < passed+failed; i++ {
		summary.Reports = append(summary.Reports, models.SnippetReport{
			Snippet: models.Snippet{
				StartLine:   i*4 + 1,
				EndLine:     i*4 + 2,
				Section:     "Examples",
				Expectation: &models.Expectation{Kind: models.ExpectValue, Value: value.NewNumber(float64(i))},
			},
			Actual: models.EvaluationResult{Kind: models.ResultValue, Value: value.NewNumber(float64(i)), Duration: time.Millisecond},
			Pass:   i < passed,
		})
	}
	return summary
}

func TestSaveAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.SaveRun(ctx, sampleSummary("guide.md", 2, 1))
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "guide.md", runs[0].Document)
	assert.Equal(t, 3, runs[0].Total)
	assert.Equal(t, 2, runs[0].Passed)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestRunResults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.SaveRun(ctx, sampleSummary("guide.md", 1, 1))
	require.NoError(t, err)

	results, err := store.RunResults(ctx, runID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, models.StatusPass, results[0].Status)
	assert.Equal(t, models.StatusFail, results[1].Status)
	assert.Equal(t, 1, results[0].StartLine)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveRun(ctx, sampleSummary("a.md", 2, 0))
	require.NoError(t, err)
	_, err = store.SaveRun(ctx, sampleSummary("b.md", 1, 2))
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Runs)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 3, stats.TotalPassed)
	assert.Equal(t, 2, stats.TotalFailed)
	assert.False(t, stats.LastRunAt.IsZero())
}

func TestPruneKeepsNewestRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.SaveRun(ctx, sampleSummary("guide.md", 1, 0))
		require.NoError(t, err)
	}

	require.NoError(t, store.Prune(ctx, 2))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveRun(ctx, sampleSummary("guide.md", 1, 0))
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Runs)
}

func TestInMemoryStore(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.SaveRun(context.Background(), sampleSummary("m.md", 1, 0))
	assert.NoError(t, err)
}
