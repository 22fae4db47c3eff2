package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/lib/pq"
)

var ErrGroupPredictionNotFound = errors.New("group standing prediction not found")

type GroupPredictionRepository interface {
	ListByGroup(ctx context.Context, tournamentID int, groupName string) ([]*models.GroupStandingPrediction, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.GroupStandingPrediction, error)
	UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int) error
}

type postgresGroupPredictionRepository struct {
	db *sql.DB
}

func NewPostgresGroupPredictionRepository(db *sql.DB) GroupPredictionRepository {
	return &postgresGroupPredictionRepository{db: db}
}

func (r *postgresGroupPredictionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const groupPredictionColumns = `id, pool_id, user_id, tournament_id, group_name, teams, points_earned, created_at`

func (r *postgresGroupPredictionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.GroupStandingPrediction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query group predictions: %w", err)
	}
	defer rows.Close()

	predictions := make([]*models.GroupStandingPrediction, 0)
	for rows.Next() {
		var p models.GroupStandingPrediction
		if scanErr := rows.Scan(
			&p.ID, &p.PoolID, &p.UserID, &p.TournamentID, &p.GroupName,
			pq.Array(&p.Teams), &p.PointsEarned, &p.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group prediction row: %w", scanErr)
		}
		predictions = append(predictions, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group prediction rows iteration: %w", err)
	}
	return predictions, nil
}

func (r *postgresGroupPredictionRepository) ListByGroup(ctx context.Context, tournamentID int, groupName string) ([]*models.GroupStandingPrediction, error) {
	query := `SELECT ` + groupPredictionColumns + `
		FROM group_standing_predictions
		WHERE tournament_id = $1 AND group_name = $2
		ORDER BY id ASC`
	return r.list(ctx, query, tournamentID, groupName)
}

func (r *postgresGroupPredictionRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.GroupStandingPrediction, error) {
	query := `SELECT ` + groupPredictionColumns + `
		FROM group_standing_predictions
		WHERE tournament_id = $1
		ORDER BY group_name ASC, id ASC`
	return r.list(ctx, query, tournamentID)
}

func (r *postgresGroupPredictionRepository) UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE group_standing_predictions SET points_earned = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, points, id)
	if err != nil {
		return fmt.Errorf("failed to update points for group prediction %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGroupPredictionNotFound)
}
