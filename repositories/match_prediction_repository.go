package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

var ErrMatchPredictionNotFound = errors.New("match prediction not found")

type MatchPredictionRepository interface {
	GetByID(ctx context.Context, id int) (*models.MatchPrediction, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.MatchPrediction, error)
	// UpdatePoints - атомарная запись очков одной строки прогноза.
	// Повторный вызов с теми же значениями идемпотентен.
	UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int, kind models.MatchOutcomeKind) error
}

type postgresMatchPredictionRepository struct {
	db *sql.DB
}

func NewPostgresMatchPredictionRepository(db *sql.DB) MatchPredictionRepository {
	return &postgresMatchPredictionRepository{db: db}
}

func (r *postgresMatchPredictionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchPredictionColumns = `id, pool_id, user_id, match_id, predicted_home, predicted_away,
	       predicted_penalty_winner, points_earned, outcome_kind, is_ai_generated, created_at`

func (r *postgresMatchPredictionRepository) scanPrediction(rowScanner interface{ Scan(...interface{}) error }) (*models.MatchPrediction, error) {
	var p models.MatchPrediction
	err := rowScanner.Scan(
		&p.ID, &p.PoolID, &p.UserID, &p.MatchID, &p.PredictedHome, &p.PredictedAway,
		&p.PredictedPenaltyWinner, &p.PointsEarned, &p.OutcomeKind, &p.IsAIGenerated, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchPredictionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresMatchPredictionRepository) GetByID(ctx context.Context, id int) (*models.MatchPrediction, error) {
	query := `SELECT ` + matchPredictionColumns + ` FROM match_predictions WHERE id = $1`
	p, err := r.scanPrediction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrMatchPredictionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match prediction %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresMatchPredictionRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchPrediction, error) {
	query := `SELECT ` + matchPredictionColumns + ` FROM match_predictions WHERE match_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match predictions for match %d: %w", matchID, err)
	}
	defer rows.Close()

	predictions := make([]*models.MatchPrediction, 0)
	for rows.Next() {
		p, scanErr := r.scanPrediction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match prediction row: %w", scanErr)
		}
		predictions = append(predictions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match prediction rows iteration: %w", err)
	}
	return predictions, nil
}

func (r *postgresMatchPredictionRepository) UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int, kind models.MatchOutcomeKind) error {
	executor := r.getExecutor(exec)
	query := `UPDATE match_predictions SET points_earned = $1, outcome_kind = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, points, kind, id)
	if err != nil {
		return fmt.Errorf("failed to update points for match prediction %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchPredictionNotFound)
}
