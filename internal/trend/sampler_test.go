// internal/trend/sampler_test.go
package trend

import (
	"testing"
	"time"

	"coaching-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStratifiedSample_IdentityWhenUnderTarget(t *testing.T) {
	evals := makeEvals(30, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 6*time.Hour)

	result := StratifiedSample(evals, 50)

	assert.Equal(t, 30, result.OriginalCount)
	assert.Equal(t, evals, result.Records)
}

func TestStratifiedSample_IdentityAtExactTarget(t *testing.T) {
	evals := makeEvals(50, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 6*time.Hour)

	result := StratifiedSample(evals, 50)

	assert.Len(t, result.Records, 50)
	assert.Equal(t, 50, result.OriginalCount)
}

func TestStratifiedSample_BoundsTheOutput(t *testing.T) {
	// 75 evaluations across ~19 days, target 50
	evals := makeEvals(75, time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC), 6*time.Hour)

	result := StratifiedSample(evals, 50)

	assert.Equal(t, 75, result.OriginalCount)
	assert.LessOrEqual(t, len(result.Records), 50)
	assert.GreaterOrEqual(t, len(result.Records), 1)
}

func TestStratifiedSample_PreservesTemporalSpread(t *testing.T) {
	// 100 records spanning two distinct months: 50 in January, 50 in March
	jan := makeEvals(50, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 12*time.Hour)
	mar := makeEvals(50, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 12*time.Hour)
	evals := append(append([]models.CallEvaluation{}, jan...), mar...)

	result := StratifiedSample(evals, 10)

	require.NotEmpty(t, result.Records)
	assert.LessOrEqual(t, len(result.Records), 10)

	var hasJan, hasMar bool
	for _, eval := range result.Records {
		switch eval.CreatedAt.Month() {
		case time.January:
			hasJan = true
		case time.March:
			hasMar = true
		}
	}
	assert.True(t, hasJan, "sample lost the early month")
	assert.True(t, hasMar, "sample lost the late month")
}

func TestStratifiedSample_EveryWeekRepresented(t *testing.T) {
	// 8 weeks, uneven density: the quiet weeks must still contribute at
	// least one record each.
	var evals []models.CallEvaluation
	base := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC) // a Sunday
	for week := 0; week < 8; week++ {
		perWeek := 3
		if week%2 == 0 {
			perWeek = 20
		}
		evals = append(evals, makeEvals(perWeek, base.AddDate(0, 0, week*7), 2*time.Hour)...)
	}

	result := StratifiedSample(evals, 30)

	seen := map[time.Time]bool{}
	for _, eval := range result.Records {
		seen[weekStart(eval.CreatedAt)] = true
	}
	assert.Equal(t, 8, len(seen), "every week should be represented")
}

func TestStratifiedSample_HardTruncatesOvershoot(t *testing.T) {
	// Many tiny weeks force the minimum-one-per-week clamp to overshoot.
	var evals []models.CallEvaluation
	base := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	for week := 0; week < 30; week++ {
		evals = append(evals, makeEvals(3, base.AddDate(0, 0, week*7), time.Hour)...)
	}
	require.Len(t, evals, 90)

	result := StratifiedSample(evals, 20)

	assert.Len(t, result.Records, 20)
	assert.Equal(t, 90, result.OriginalCount)

	// The trim keeps the earliest and latest material verbatim.
	assert.Equal(t, weekStart(evals[0].CreatedAt), weekStart(result.Records[0].CreatedAt))
	last := result.Records[len(result.Records)-1]
	assert.Equal(t, weekStart(evals[len(evals)-1].CreatedAt), weekStart(last.CreatedAt))
}

func BenchmarkStratifiedSample(b *testing.B) {
	evals := makeEvals(5000, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		StratifiedSample(evals, 50)
	}
}
