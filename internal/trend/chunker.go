// internal/trend/chunker.go
package trend

import (
	"coaching-workers/internal/models"
)

// Default chunk size bounds for the hierarchical tier.
const (
	DefaultMinChunkSize = 5
	DefaultMaxChunkSize = 25
)

// SplitIntoWeeklyChunks partitions evaluations into contiguous, date-ordered
// chunks for map-stage summarization. Whole weeks are accumulated until the
// next week would overflow maxChunkSize; a week larger than maxChunkSize is
// sliced into maxChunkSize pieces. Material below minChunkSize is carried
// forward and merged rather than emitted as an undersized chunk, so chunk
// summaries carry roughly comparable statistical weight. Every input record
// lands in exactly one chunk; the only chunk allowed below minChunkSize is a
// sole chunk when the whole input is that small.
func SplitIntoWeeklyChunks(evals []models.CallEvaluation, minChunkSize, maxChunkSize int) [][]models.CallEvaluation {
	if minChunkSize <= 0 {
		minChunkSize = DefaultMinChunkSize
	}
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if len(evals) == 0 {
		return nil
	}

	weeks := bucketByWeek(evals)

	var chunks [][]models.CallEvaluation
	var current []models.CallEvaluation

	for _, week := range weeks {
		if len(current)+len(week) <= maxChunkSize {
			current = append(current, week...)
			continue
		}

		// The running chunk would overflow. Flush it if it is big enough;
		// otherwise it is merged forward into this week's material.
		if len(current) >= minChunkSize {
			chunks = append(chunks, current)
			current = nil
		}

		combined := append(current, week...)
		current = nil

		if len(combined) <= maxChunkSize {
			current = combined
			continue
		}

		// Oversized week (possibly with a small holdover prepended): slice
		// into maxChunkSize pieces.
		for len(combined) > maxChunkSize {
			chunk := make([]models.CallEvaluation, maxChunkSize)
			copy(chunk, combined[:maxChunkSize])
			chunks = append(chunks, chunk)
			combined = combined[maxChunkSize:]
		}

		if len(combined) >= minChunkSize {
			chunks = append(chunks, combined)
		} else {
			current = combined
		}
	}

	if len(current) > 0 {
		if len(current) >= minChunkSize || len(chunks) == 0 {
			chunks = append(chunks, current)
		} else {
			// Trailing leftover below the minimum merges backward.
			chunks[len(chunks)-1] = append(chunks[len(chunks)-1], current...)
		}
	}

	return chunks
}
