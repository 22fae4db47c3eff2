package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/lib/pq"
)

var ErrTournamentResultNotFound = errors.New("tournament result not found")

// TournamentResultRepository работает с единственной на турнир записью
// официального результата (победитель/финалист/бомбардир + статус).
type TournamentResultRepository interface {
	GetOrCreate(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentResult, error)
	GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentResult, error)
	UpdateWinnerFinalist(ctx context.Context, exec SQLExecutor, tournamentID int, winner, finalist string) error
	UpdateTopscorer(ctx context.Context, exec SQLExecutor, tournamentID int, topScorer string, topThree []string) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, tournamentID int, status models.ResultStatus, lockedAt *time.Time, lockedBy *int) error
}

type postgresTournamentResultRepository struct {
	db *sql.DB
}

func NewPostgresTournamentResultRepository(db *sql.DB) TournamentResultRepository {
	return &postgresTournamentResultRepository{db: db}
}

func (r *postgresTournamentResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentResultRepository) scanResult(row *sql.Row) (*models.TournamentResult, error) {
	res := &models.TournamentResult{}
	err := row.Scan(
		&res.ID,
		&res.TournamentID,
		&res.Winner,
		&res.Finalist,
		&res.TopScorer,
		pq.Array(&res.TopThree),
		&res.Status,
		&res.LockedAt,
		&res.LockedBy,
		&res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentResultNotFound
		}
		return nil, err
	}
	return res, nil
}

const tournamentResultColumns = `id, tournament_id, winner, finalist, top_scorer, top_three, status, locked_at, locked_by, updated_at`

func (r *postgresTournamentResultRepository) GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentResult, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentResultColumns + ` FROM tournament_results WHERE tournament_id = $1`
	res, err := r.scanResult(executor.QueryRowContext(ctx, query, tournamentID))
	if err != nil {
		if errors.Is(err, ErrTournamentResultNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan tournament result for tournament %d: %w", tournamentID, err)
	}
	return res, nil
}

// GetOrCreate возвращает запись результата, создавая черновик при первом обращении.
func (r *postgresTournamentResultRepository) GetOrCreate(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.TournamentResult, error) {
	executor := r.getExecutor(exec)
	res, err := r.GetByTournament(ctx, executor, tournamentID)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, ErrTournamentResultNotFound) {
		return nil, err
	}

	query := `
		INSERT INTO tournament_results (tournament_id, status, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tournament_id) DO UPDATE SET tournament_id = EXCLUDED.tournament_id
		RETURNING ` + tournamentResultColumns
	res, err = r.scanResult(executor.QueryRowContext(ctx, query, tournamentID, models.ResultStatusDraft))
	if err != nil {
		return nil, fmt.Errorf("failed to create draft result for tournament %d: %w", tournamentID, err)
	}
	return res, nil
}

func (r *postgresTournamentResultRepository) UpdateWinnerFinalist(ctx context.Context, exec SQLExecutor, tournamentID int, winner, finalist string) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_results
		SET winner = $1, finalist = $2, updated_at = NOW()
		WHERE tournament_id = $3`
	result, err := executor.ExecContext(ctx, query, winner, finalist, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update winner/finalist for tournament %d: %w", tournamentID, err)
	}
	return checkAffectedRows(result, ErrTournamentResultNotFound)
}

func (r *postgresTournamentResultRepository) UpdateTopscorer(ctx context.Context, exec SQLExecutor, tournamentID int, topScorer string, topThree []string) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_results
		SET top_scorer = $1, top_three = $2, updated_at = NOW()
		WHERE tournament_id = $3`
	result, err := executor.ExecContext(ctx, query, topScorer, pq.Array(topThree), tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update top scorer for tournament %d: %w", tournamentID, err)
	}
	return checkAffectedRows(result, ErrTournamentResultNotFound)
}

// UpdateStatus пишет статус и поля блокировки одним запросом:
// locked_at и locked_by либо заданы вместе, либо оба NULL.
func (r *postgresTournamentResultRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, tournamentID int, status models.ResultStatus, lockedAt *time.Time, lockedBy *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_results
		SET status = $1, locked_at = $2, locked_by = $3, updated_at = NOW()
		WHERE tournament_id = $4`
	result, err := executor.ExecContext(ctx, query, status, lockedAt, lockedBy, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update result status for tournament %d: %w", tournamentID, err)
	}
	return checkAffectedRows(result, ErrTournamentResultNotFound)
}
