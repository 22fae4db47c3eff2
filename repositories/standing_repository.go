package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/lib/pq"
)

var (
	ErrGroupStandingNotFound          = errors.New("group standing not found")
	ErrGroupStandingTournamentInvalid = errors.New("group standing tournament conflict or invalid")
)

type GroupStandingRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, standing *models.GroupStanding) error
	GetByGroup(ctx context.Context, exec SQLExecutor, tournamentID int, groupName string) (*models.GroupStanding, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.GroupStanding, error)
}

type postgresGroupStandingRepository struct {
	db *sql.DB
}

func NewPostgresGroupStandingRepository(db *sql.DB) GroupStandingRepository {
	return &postgresGroupStandingRepository{db: db}
}

func (r *postgresGroupStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert пишет официальную таблицу группы целиком.
// Повторная запись по той же группе заменяет список команд.
func (r *postgresGroupStandingRepository) Upsert(ctx context.Context, exec SQLExecutor, standing *models.GroupStanding) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO group_standings (tournament_id, group_name, teams, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tournament_id, group_name)
		DO UPDATE SET teams = EXCLUDED.teams, updated_at = NOW()
		RETURNING id, updated_at`

	err := executor.QueryRowContext(ctx, query,
		standing.TournamentID,
		standing.GroupName,
		pq.Array(standing.Teams),
	).Scan(&standing.ID, &standing.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "group_standings_tournament_id_fkey" {
			return ErrGroupStandingTournamentInvalid
		}
		return fmt.Errorf("failed to upsert group standing %s: %w", standing.GroupName, err)
	}
	return nil
}

func (r *postgresGroupStandingRepository) GetByGroup(ctx context.Context, exec SQLExecutor, tournamentID int, groupName string) (*models.GroupStanding, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, group_name, teams, updated_at
		FROM group_standings
		WHERE tournament_id = $1 AND group_name = $2`

	standing := &models.GroupStanding{}
	err := executor.QueryRowContext(ctx, query, tournamentID, groupName).Scan(
		&standing.ID,
		&standing.TournamentID,
		&standing.GroupName,
		pq.Array(&standing.Teams),
		&standing.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupStandingNotFound
		}
		return nil, fmt.Errorf("failed to scan group standing %s: %w", groupName, err)
	}
	return standing, nil
}

func (r *postgresGroupStandingRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.GroupStanding, error) {
	query := `
		SELECT id, tournament_id, group_name, teams, updated_at
		FROM group_standings
		WHERE tournament_id = $1
		ORDER BY group_name ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := make([]*models.GroupStanding, 0)
	for rows.Next() {
		var s models.GroupStanding
		if scanErr := rows.Scan(&s.ID, &s.TournamentID, &s.GroupName, pq.Array(&s.Teams), &s.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group standing row: %w", scanErr)
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group standing rows iteration: %w", err)
	}
	return standings, nil
}
