package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

var (
	ErrTopscorerPredictionNotFound = errors.New("topscorer prediction not found")
	ErrWinnerPredictionNotFound    = errors.New("winner prediction not found")
)

// TopscorerPredictionRepository и WinnerPredictionRepository - прогнозы
// "на исход турнира": один прогноз на участника пула.

type TopscorerPredictionRepository interface {
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.TopscorerPrediction, error)
	UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int) error
}

type WinnerPredictionRepository interface {
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.WinnerPrediction, error)
	UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int) error
}

type postgresTopscorerPredictionRepository struct {
	db *sql.DB
}

func NewPostgresTopscorerPredictionRepository(db *sql.DB) TopscorerPredictionRepository {
	return &postgresTopscorerPredictionRepository{db: db}
}

func (r *postgresTopscorerPredictionRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TopscorerPrediction, error) {
	query := `
		SELECT id, pool_id, user_id, tournament_id, player_name, points_earned, created_at
		FROM topscorer_predictions
		WHERE tournament_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query topscorer predictions for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	predictions := make([]*models.TopscorerPrediction, 0)
	for rows.Next() {
		var p models.TopscorerPrediction
		if scanErr := rows.Scan(&p.ID, &p.PoolID, &p.UserID, &p.TournamentID, &p.PlayerName, &p.PointsEarned, &p.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan topscorer prediction row: %w", scanErr)
		}
		predictions = append(predictions, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during topscorer prediction rows iteration: %w", err)
	}
	return predictions, nil
}

func (r *postgresTopscorerPredictionRepository) UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	query := `UPDATE topscorer_predictions SET points_earned = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, points, id)
	if err != nil {
		return fmt.Errorf("failed to update points for topscorer prediction %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTopscorerPredictionNotFound)
}

type postgresWinnerPredictionRepository struct {
	db *sql.DB
}

func NewPostgresWinnerPredictionRepository(db *sql.DB) WinnerPredictionRepository {
	return &postgresWinnerPredictionRepository{db: db}
}

func (r *postgresWinnerPredictionRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.WinnerPrediction, error) {
	query := `
		SELECT id, pool_id, user_id, tournament_id, country, points_earned, created_at
		FROM winner_predictions
		WHERE tournament_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query winner predictions for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	predictions := make([]*models.WinnerPrediction, 0)
	for rows.Next() {
		var p models.WinnerPrediction
		if scanErr := rows.Scan(&p.ID, &p.PoolID, &p.UserID, &p.TournamentID, &p.Country, &p.PointsEarned, &p.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan winner prediction row: %w", scanErr)
		}
		predictions = append(predictions, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during winner prediction rows iteration: %w", err)
	}
	return predictions, nil
}

func (r *postgresWinnerPredictionRepository) UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	query := `UPDATE winner_predictions SET points_earned = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, points, id)
	if err != nil {
		return fmt.Errorf("failed to update points for winner prediction %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrWinnerPredictionNotFound)
}
