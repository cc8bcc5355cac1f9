// internal/trend/format.go
package trend

import (
	"coaching-workers/internal/models"
)

// FormatRecords projects evaluations down to the fields the synthesis
// service consumes. Built fresh per run, never persisted.
func FormatRecords(evals []models.CallEvaluation) []models.FormattedRecord {
	records := make([]models.FormattedRecord, 0, len(evals))
	for _, eval := range evals {
		record := models.FormattedRecord{
			Date:         eval.CreatedAt.Format("2006-01-02"),
			HeatScore:    eval.HeatScore,
			MissingInfo:  eval.MissingInfo,
			FollowUps:    eval.FollowUpQuestions,
			Improvements: eval.ImprovementSuggestions,
		}

		if frameworks := eval.PrimaryFrameworks(); len(frameworks) > 0 {
			record.Scores = make(map[string]float64, len(frameworks))
			for name, fs := range frameworks {
				record.Scores[name] = fs.Score
			}
		}

		records = append(records, record)
	}
	return records
}
