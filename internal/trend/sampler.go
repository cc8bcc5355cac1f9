// internal/trend/sampler.go
package trend

import (
	"math"

	"coaching-workers/internal/models"
)

// SampleResult is the sampler output: the chosen records plus the size of the
// set they were drawn from.
type SampleResult struct {
	Records       []models.CallEvaluation
	OriginalCount int
}

// StratifiedSample reduces an over-sized evaluation set to at most target
// records while preserving temporal spread. Records are bucketed by week and
// each week contributes a quota proportional to its share of the input, so an
// improving/declining judgment downstream is not biased toward whichever part
// of the range happens to be denser. Safe to call unconditionally: inputs at
// or under target are returned unchanged.
func StratifiedSample(evals []models.CallEvaluation, target int) SampleResult {
	if target <= 0 {
		target = DefaultDirectMax
	}

	total := len(evals)
	if total <= target {
		return SampleResult{Records: evals, OriginalCount: total}
	}

	weeks := bucketByWeek(evals)

	var sampled []models.CallEvaluation
	for _, week := range weeks {
		quota := proportionalQuota(len(week), total, target)
		sampled = append(sampled, pickEvenlySpaced(week, quota)...)
	}

	// Per-week rounding can overshoot the target by a few records.
	if len(sampled) > target {
		sampled = trimOvershoot(sampled, target)
	}

	return SampleResult{Records: sampled, OriginalCount: total}
}

// proportionalQuota rounds weekSize/total*target, clamped to [1, weekSize] so
// every week is represented and no week is over-drawn.
func proportionalQuota(weekSize, total, target int) int {
	quota := int(math.Round(float64(weekSize) / float64(total) * float64(target)))
	if quota < 1 {
		quota = 1
	}
	if quota > weekSize {
		quota = weekSize
	}
	return quota
}

// pickEvenlySpaced selects quota records at a fixed stride across the week,
// keeping intra-week temporal spread instead of taking a prefix.
func pickEvenlySpaced(week []models.CallEvaluation, quota int) []models.CallEvaluation {
	if quota >= len(week) {
		return week
	}

	stride := float64(len(week)) / float64(quota)
	picks := make([]models.CallEvaluation, 0, quota)
	for i := 0; i < quota; i++ {
		idx := int(float64(i) * stride)
		if idx >= len(week) {
			idx = len(week) - 1
		}
		picks = append(picks, week[idx])
	}
	return picks
}

// trimOvershoot cuts a slightly-too-large sample down to exactly target:
// the earliest 30% and latest 40% of the target are kept verbatim (range
// endpoints anchor the trend), and the remaining slots are filled with
// evenly-spaced picks from the middle.
func trimOvershoot(sampled []models.CallEvaluation, target int) []models.CallEvaluation {
	headCount := int(float64(target) * 0.3)
	tailCount := int(float64(target) * 0.4)
	middleCount := target - headCount - tailCount

	head := sampled[:headCount]
	tail := sampled[len(sampled)-tailCount:]
	middle := sampled[headCount : len(sampled)-tailCount]

	result := make([]models.CallEvaluation, 0, target)
	result = append(result, head...)
	result = append(result, pickEvenlySpaced(middle, middleCount)...)
	result = append(result, tail...)

	if len(result) > target {
		result = result[:target]
	}
	return result
}
