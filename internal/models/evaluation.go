// internal/models/evaluation.go
package models

import "time"

// FrameworkScore is one graded dimension of a qualification framework:
// a 0-100 score plus the grader's justification.
type FrameworkScore struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification,omitempty"`
}

// CallEvaluation is one graded sales call. Evaluations are produced by the
// upstream grading pipeline and are immutable once written.
type CallEvaluation struct {
	ID                     string                    `json:"id"`
	RepID                  string                    `json:"repId"`
	CallID                 string                    `json:"callId,omitempty"`
	CreatedAt              time.Time                 `json:"createdAt"`
	Frameworks             map[string]FrameworkScore `json:"frameworks,omitempty"`
	LegacyBANT             map[string]FrameworkScore `json:"bantScores,omitempty"`
	HeatScore              *float64                  `json:"heatScore,omitempty"`
	MissingInfo            []string                  `json:"missingInfo,omitempty"`
	FollowUpQuestions      []string                  `json:"followUpQuestions,omitempty"`
	ImprovementSuggestions string                    `json:"improvementSuggestions,omitempty"`
}

// PrimaryFrameworks resolves the duplicated framework-score shape: newer
// evaluations carry Frameworks, older rows only LegacyBANT. This is the only
// place that picks between the two.
func (e *CallEvaluation) PrimaryFrameworks() map[string]FrameworkScore {
	if len(e.Frameworks) > 0 {
		return e.Frameworks
	}
	return e.LegacyBANT
}

// FormattedRecord is the projection of a CallEvaluation sent to the
// synthesis service. Built fresh per analysis run, never persisted.
type FormattedRecord struct {
	Date         string             `json:"date"`
	Scores       map[string]float64 `json:"scores,omitempty"`
	HeatScore    *float64           `json:"heatScore,omitempty"`
	MissingInfo  []string           `json:"missingInfo,omitempty"`
	FollowUps    []string           `json:"followUpQuestions,omitempty"`
	Improvements string             `json:"improvements,omitempty"`
}

// DateRange bounds an analysis run. Both ends are inclusive.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Rep identifies a sales representative in the directory.
type Rep struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TeamID string `json:"teamId,omitempty"`
}

// Team is a sales team in the directory.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
