// internal/trend/chunker_test.go
package trend

import (
	"testing"
	"time"

	"coaching-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkSizes(chunks [][]models.CallEvaluation) []int {
	sizes := make([]int, len(chunks))
	for i, chunk := range chunks {
		sizes[i] = len(chunk)
	}
	return sizes
}

func totalRecords(chunks [][]models.CallEvaluation) int {
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	return total
}

func TestSplitIntoWeeklyChunks_MergesSmallWeeks(t *testing.T) {
	// Three consecutive weeks with one call each: below min individually,
	// merged into a single chunk of 3.
	base := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC) // Sunday
	evals := []models.CallEvaluation{
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base.AddDate(0, 0, 7)},
		{ID: "c", CreatedAt: base.AddDate(0, 0, 14)},
	}

	chunks := SplitIntoWeeklyChunks(evals, 3, 25)

	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 3)
}

func TestSplitIntoWeeklyChunks_SlicesOversizedWeek(t *testing.T) {
	// 30 records in the same week, max 10: sliced into pieces of <= 10
	// covering all 30 exactly once.
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC) // Monday
	evals := makeEvals(30, base, 2*time.Hour)

	chunks := SplitIntoWeeklyChunks(evals, 5, 10)

	assert.GreaterOrEqual(t, len(chunks), 3)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 10, "chunk %d oversized", i)
	}
	assert.Equal(t, 30, totalRecords(chunks))

	// Exactly-once coverage
	seen := map[string]int{}
	for _, chunk := range chunks {
		for _, eval := range chunk {
			seen[eval.ID]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "record %s appears %d times", id, n)
	}
}

func TestSplitIntoWeeklyChunks_AccumulatesWeeksUpToMax(t *testing.T) {
	// Four weeks of 8 records, max 25: first chunk takes three weeks (24),
	// the fourth week starts a new chunk.
	base := time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC)
	var evals []models.CallEvaluation
	for week := 0; week < 4; week++ {
		evals = append(evals, makeEvals(8, base.AddDate(0, 0, week*7), time.Hour)...)
	}

	chunks := SplitIntoWeeklyChunks(evals, 5, 25)

	require.Len(t, chunks, 2)
	assert.Equal(t, []int{24, 8}, chunkSizes(chunks))
}

func TestSplitIntoWeeklyChunks_TrailingLeftoverMergesBackward(t *testing.T) {
	// 25 records in one week then 2 in the next: the trailing 2 are below
	// min and merge into the previous chunk.
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	evals := makeEvals(25, base, time.Hour)
	evals = append(evals, makeEvals(2, base.AddDate(0, 0, 7), time.Hour)...)

	chunks := SplitIntoWeeklyChunks(evals, 5, 25)

	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 27)
}

func TestSplitIntoWeeklyChunks_SoleUndersizedChunkKept(t *testing.T) {
	evals := makeEvals(2, time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC), time.Hour)

	chunks := SplitIntoWeeklyChunks(evals, 5, 25)

	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 2)
}

func TestSplitIntoWeeklyChunks_Empty(t *testing.T) {
	assert.Nil(t, SplitIntoWeeklyChunks(nil, 5, 25))
}

func TestSplitIntoWeeklyChunks_DateOrdered(t *testing.T) {
	base := time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC)
	var evals []models.CallEvaluation
	for week := 0; week < 12; week++ {
		evals = append(evals, makeEvals(11, base.AddDate(0, 0, week*7), time.Hour)...)
	}

	chunks := SplitIntoWeeklyChunks(evals, 5, 25)

	var prev time.Time
	for i, chunk := range chunks {
		require.NotEmpty(t, chunk)
		assert.False(t, chunk[0].CreatedAt.Before(prev), "chunk %d out of order", i)
		prev = chunk[len(chunk)-1].CreatedAt
	}
	assert.Equal(t, 132, totalRecords(chunks))
}

func BenchmarkSplitIntoWeeklyChunks(b *testing.B) {
	evals := makeEvals(5000, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SplitIntoWeeklyChunks(evals, 5, 25)
	}
}
