package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

var ErrMemberStatsNotFound = errors.New("member stats not found")

// MemberStatsRepository - накопительная статистика за всё время.
// Accumulate только добавляет: отката нет, защита от повторного
// начисления лежит уровнем выше (stats_finalized_at турнира).
type MemberStatsRepository interface {
	Accumulate(ctx context.Context, exec SQLExecutor, userID, points int, won, podium bool) error
	GetByUser(ctx context.Context, userID int) (*models.MemberStats, error)
}

type postgresMemberStatsRepository struct {
	db *sql.DB
}

func NewPostgresMemberStatsRepository(db *sql.DB) MemberStatsRepository {
	return &postgresMemberStatsRepository{db: db}
}

func (r *postgresMemberStatsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMemberStatsRepository) Accumulate(ctx context.Context, exec SQLExecutor, userID, points int, won, podium bool) error {
	executor := r.getExecutor(exec)
	winInc := 0
	if won {
		winInc = 1
	}
	podiumInc := 0
	if podium {
		podiumInc = 1
	}

	query := `
		INSERT INTO member_stats (user_id, total_points, tournaments_played, wins, podiums, updated_at)
		VALUES ($1, $2, 1, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = member_stats.total_points + EXCLUDED.total_points,
			tournaments_played = member_stats.tournaments_played + 1,
			wins = member_stats.wins + EXCLUDED.wins,
			podiums = member_stats.podiums + EXCLUDED.podiums,
			updated_at = NOW()`

	if _, err := executor.ExecContext(ctx, query, userID, points, winInc, podiumInc); err != nil {
		return fmt.Errorf("failed to accumulate stats for user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresMemberStatsRepository) GetByUser(ctx context.Context, userID int) (*models.MemberStats, error) {
	query := `
		SELECT user_id, total_points, tournaments_played, wins, podiums, updated_at
		FROM member_stats
		WHERE user_id = $1`

	stats := &models.MemberStats{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID, &stats.TotalPoints, &stats.TournamentsPlayed, &stats.Wins, &stats.Podiums, &stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberStatsNotFound
		}
		return nil, fmt.Errorf("failed to scan member stats for user %d: %w", userID, err)
	}
	return stats, nil
}
