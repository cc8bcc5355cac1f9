// internal/store/evaluations/postgres.go
package evaluations

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/models"

	"github.com/lib/pq"
)

// PostgresStore reads call evaluations from the primary PostgreSQL store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Count returns the number of non-deleted evaluations for the given reps
// inside the date range.
func (s *PostgresStore) Count(ctx context.Context, repIDs []string, dr models.DateRange) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM call_evaluations
		WHERE rep_id = ANY($1)
		  AND created_at >= $2
		  AND created_at <= $3
		  AND deleted_at IS NULL`

	var count int
	err := s.db.QueryRowContext(ctx, query, pq.Array(repIDs), dr.From, dr.To).Scan(&count)
	if err != nil {
		if err == context.DeadlineExceeded || ctx.Err() == context.DeadlineExceeded {
			return 0, errors.NewQueryTimeoutError("count_evaluations")
		}
		return 0, errors.NewQueryExecutionFailedError("count_evaluations", err)
	}

	return count, nil
}

// Fetch returns the evaluations for the given reps inside the date range,
// ascending by creation time.
func (s *PostgresStore) Fetch(ctx context.Context, repIDs []string, dr models.DateRange) ([]models.CallEvaluation, error) {
	query := `
		SELECT id, rep_id, call_id, created_at,
		       frameworks, bant_scores, heat_score,
		       missing_info, follow_up_questions, improvement_suggestions
		FROM call_evaluations
		WHERE rep_id = ANY($1)
		  AND created_at >= $2
		  AND created_at <= $3
		  AND deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(repIDs), dr.From, dr.To)
	if err != nil {
		if err == context.DeadlineExceeded || ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError("fetch_evaluations")
		}
		return nil, errors.NewQueryExecutionFailedError("fetch_evaluations", err)
	}
	defer rows.Close()

	var evals []models.CallEvaluation
	for rows.Next() {
		eval, err := scanEvaluation(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("fetch_evaluations", err)
		}
		evals = append(evals, eval)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("fetch_evaluations", err)
	}

	return evals, nil
}

func scanEvaluation(rows *sql.Rows) (models.CallEvaluation, error) {
	var (
		eval          models.CallEvaluation
		callID        sql.NullString
		createdAt     time.Time
		frameworksRaw []byte
		bantRaw       []byte
		heatScore     sql.NullFloat64
		missingInfo   pq.StringArray
		followUps     pq.StringArray
		improvements  sql.NullString
	)

	if err := rows.Scan(
		&eval.ID, &eval.RepID, &callID, &createdAt,
		&frameworksRaw, &bantRaw, &heatScore,
		&missingInfo, &followUps, &improvements,
	); err != nil {
		return models.CallEvaluation{}, err
	}

	eval.CallID = callID.String
	eval.CreatedAt = createdAt
	eval.MissingInfo = []string(missingInfo)
	eval.FollowUpQuestions = []string(followUps)
	eval.ImprovementSuggestions = improvements.String

	if heatScore.Valid {
		v := heatScore.Float64
		eval.HeatScore = &v
	}

	// JSONB score blocks may be NULL for either shape
	if len(frameworksRaw) > 0 {
		if err := json.Unmarshal(frameworksRaw, &eval.Frameworks); err != nil {
			return models.CallEvaluation{}, err
		}
	}
	if len(bantRaw) > 0 {
		if err := json.Unmarshal(bantRaw, &eval.LegacyBANT); err != nil {
			return models.CallEvaluation{}, err
		}
	}

	return eval, nil
}
