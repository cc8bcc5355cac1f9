// internal/store/evaluations/postgres_test.go
package evaluations

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func testRange() models.DateRange {
	return models.DateRange{
		From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
	}
}

func evaluationColumns() []string {
	return []string{
		"id", "rep_id", "call_id", "created_at",
		"frameworks", "bant_scores", "heat_score",
		"missing_info", "follow_up_questions", "improvement_suggestions",
	}
}

// ==========================
// Count Tests
// ==========================

func TestPostgresStore_Count(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(pq.Array([]string{"rep-1"}), testRange().From, testRange().To).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	store := NewPostgresStore(db)
	count, err := store.Count(context.Background(), []string{"rep-1"}, testRange())

	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Count_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnError(sql.ErrConnDone)

	store := NewPostgresStore(db)
	_, err := store.Count(context.Background(), []string{"rep-1"}, testRange())

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// ==========================
// Fetch Tests
// ==========================

func TestPostgresStore_Fetch(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	dr := testRange()
	created := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows(evaluationColumns()).
		AddRow(
			"eval-1", "rep-1", "call-1", created,
			[]byte(`{"budget":{"score":70,"justification":"clear budget"}}`),
			nil,
			85.5,
			pq.StringArray{"decision timeline"},
			pq.StringArray{"who signs off?"},
			"Ask about budget earlier",
		).
		AddRow(
			"eval-2", "rep-1", "call-2", created.Add(24*time.Hour),
			nil,
			[]byte(`{"need":{"score":55}}`),
			nil,
			pq.StringArray{},
			pq.StringArray{},
			"",
		)

	mock.ExpectQuery(`SELECT id, rep_id, call_id, created_at`).
		WithArgs(pq.Array([]string{"rep-1"}), dr.From, dr.To).
		WillReturnRows(rows)

	store := NewPostgresStore(db)
	evals, err := store.Fetch(context.Background(), []string{"rep-1"}, dr)

	require.NoError(t, err)
	require.Len(t, evals, 2)

	// First row: current frameworks shape with heat score
	assert.Equal(t, "eval-1", evals[0].ID)
	require.NotNil(t, evals[0].HeatScore)
	assert.InDelta(t, 85.5, *evals[0].HeatScore, 0.001)
	assert.Equal(t, 70.0, evals[0].PrimaryFrameworks()["budget"].Score)
	assert.Equal(t, []string{"decision timeline"}, evals[0].MissingInfo)

	// Second row: legacy shape only, PrimaryFrameworks falls back
	assert.Nil(t, evals[1].HeatScore)
	assert.Empty(t, evals[1].Frameworks)
	assert.Equal(t, 55.0, evals[1].PrimaryFrameworks()["need"].Score)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Fetch_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, rep_id, call_id, created_at`).
		WillReturnRows(sqlmock.NewRows(evaluationColumns()))

	store := NewPostgresStore(db)
	evals, err := store.Fetch(context.Background(), []string{"rep-1"}, testRange())

	require.NoError(t, err)
	assert.Empty(t, evals)
}

func TestPostgresStore_Fetch_MultiRep(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	dr := testRange()
	reps := []string{"rep-1", "rep-2", "rep-3"}

	mock.ExpectQuery(`SELECT id, rep_id, call_id, created_at`).
		WithArgs(pq.Array(reps), dr.From, dr.To).
		WillReturnRows(sqlmock.NewRows(evaluationColumns()).
			AddRow("eval-1", "rep-2", "call-1", dr.From.Add(time.Hour),
				nil, nil, nil, pq.StringArray{}, pq.StringArray{}, ""))

	store := NewPostgresStore(db)
	evals, err := store.Fetch(context.Background(), reps, dr)

	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, "rep-2", evals[0].RepID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
