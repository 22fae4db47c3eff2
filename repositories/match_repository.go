package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchDuplicate         = errors.New("match already exists for this pairing and kickoff")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, id int, home, away int, penaltyWinner *string, status models.MatchStatus) error
	Exists(ctx context.Context, tournamentID int, homeTeam, awayTeam string) (bool, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, home_team, away_team, home_score, away_score, penalty_winner, stage, status, kickoff_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID,
		match.HomeTeam,
		match.AwayTeam,
		match.HomeScore,
		match.AwayScore,
		match.PenaltyWinner,
		match.Stage,
		match.Status,
		match.KickoffAt,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `
		SELECT id, tournament_id, home_team, away_team, home_score, away_score,
		       penalty_winner, stage, status, kickoff_at, created_at, updated_at
		FROM matches
		WHERE id = $1`

	match := &models.Match{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&match.ID,
		&match.TournamentID,
		&match.HomeTeam,
		&match.AwayTeam,
		&match.HomeScore,
		&match.AwayScore,
		&match.PenaltyWinner,
		&match.Stage,
		&match.Status,
		&match.KickoffAt,
		&match.CreatedAt,
		&match.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, tournament_id, home_team, away_team, home_score, away_score,
		       penalty_winner, stage, status, kickoff_at, created_at, updated_at
		FROM matches
		WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *statusFilter)
	}

	queryBuilder.WriteString(" ORDER BY kickoff_at ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := rows.Scan(
			&match.ID,
			&match.TournamentID,
			&match.HomeTeam,
			&match.AwayTeam,
			&match.HomeScore,
			&match.AwayScore,
			&match.PenaltyWinner,
			&match.Stage,
			&match.Status,
			&match.KickoffAt,
			&match.CreatedAt,
			&match.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &match)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

// UpdateScore перезаписывает счёт и статус одним запросом.
// updated_at обновляется даже при повторной записи того же счёта.
func (r *postgresMatchRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id int, home, away int, penaltyWinner *string, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET home_score = $1, away_score = $2, penalty_winner = $3, status = $4, updated_at = NOW()
		WHERE id = $5`

	result, err := executor.ExecContext(ctx, query, home, away, penaltyWinner, status, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Exists(ctx context.Context, tournamentID int, homeTeam, awayTeam string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM matches WHERE tournament_id = $1 AND home_team = $2 AND away_team = $3)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tournamentID, homeTeam, awayTeam).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check match existence: %w", err)
	}
	return exists, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		// "23503": foreign_key_violation, "23505": unique_violation
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_tournament_pairing_key":
			return ErrMatchDuplicate
		}
	}
	return err
}
