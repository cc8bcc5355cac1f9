// internal/store/directory/postgres.go
package directory

import (
	"context"
	"database/sql"

	"coaching-workers/internal/common/errors"
	"coaching-workers/internal/models"
)

// Scope values accepted by ListReps.
const (
	ScopeTeam         = "team"
	ScopeOrganization = "organization"
)

// PostgresDirectory resolves reps and teams for aggregate analysis runs.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// ListReps returns the active reps in scope. For team scope teamID is
// required; for organization scope it is ignored.
func (d *PostgresDirectory) ListReps(ctx context.Context, scope string, teamID string) ([]models.Rep, error) {
	var (
		rows *sql.Rows
		err  error
	)

	switch scope {
	case ScopeTeam:
		if teamID == "" {
			return nil, errors.NewInvalidScopeError("team scope requires teamId")
		}
		rows, err = d.db.QueryContext(ctx, `
			SELECT id, name, team_id
			FROM reps
			WHERE team_id = $1 AND deleted_at IS NULL
			ORDER BY name ASC`, teamID)

	case ScopeOrganization:
		rows, err = d.db.QueryContext(ctx, `
			SELECT id, name, team_id
			FROM reps
			WHERE deleted_at IS NULL
			ORDER BY name ASC`)

	default:
		return nil, errors.NewInvalidScopeError(scope)
	}

	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_reps", err)
	}
	defer rows.Close()

	var reps []models.Rep
	for rows.Next() {
		var rep models.Rep
		var team sql.NullString
		if err := rows.Scan(&rep.ID, &rep.Name, &team); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_reps", err)
		}
		rep.TeamID = team.String
		reps = append(reps, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_reps", err)
	}

	return reps, nil
}

// ListTeams returns all active teams, used to resolve team names for
// contribution rows.
func (d *PostgresDirectory) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name
		FROM teams
		WHERE deleted_at IS NULL
		ORDER BY name ASC`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_teams", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.Name); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_teams", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_teams", err)
	}

	return teams, nil
}
