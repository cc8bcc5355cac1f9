// internal/trend/weeks.go
package trend

import (
	"sort"
	"time"

	"coaching-workers/internal/models"
)

// weekStart truncates a timestamp to the Sunday that starts its week.
func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// bucketByWeek groups evaluations into weeks, returned in chronological
// order. Within a week the store's ascending order is preserved.
func bucketByWeek(evals []models.CallEvaluation) [][]models.CallEvaluation {
	buckets := map[time.Time][]models.CallEvaluation{}
	for _, eval := range evals {
		key := weekStart(eval.CreatedAt)
		buckets[key] = append(buckets[key], eval)
	}

	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	weeks := make([][]models.CallEvaluation, 0, len(starts))
	for _, start := range starts {
		weeks = append(weeks, buckets[start])
	}
	return weeks
}
