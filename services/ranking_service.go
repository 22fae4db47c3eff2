package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"github.com/Dosada05/prediction-pool/scoring"
)

// RankingService пересобирает агрегаты пула: суммы очков и плотные ранги.
// Всегда пересчитывает от текущих points_earned, поэтому повторный запуск
// на неизменных данных даёт тот же результат.
type RankingService interface {
	RebuildPoolStandings(ctx context.Context, poolID int) error
	GetLeaderboard(ctx context.Context, poolID int) ([]*models.PoolMember, error)
}

type rankingService struct {
	db       *sql.DB
	poolRepo repositories.PoolRepository
	logger   *slog.Logger
}

func NewRankingService(db *sql.DB, poolRepo repositories.PoolRepository, logger *slog.Logger) RankingService {
	return &rankingService{
		db:       db,
		poolRepo: poolRepo,
		logger:   logger,
	}
}

func (s *rankingService) RebuildPoolStandings(ctx context.Context, poolID int) error {
	totals, err := s.poolRepo.MemberTotals(ctx, poolID)
	if err != nil {
		return fmt.Errorf("failed to aggregate totals for pool %d: %w", poolID, err)
	}
	if len(totals) == 0 {
		return nil
	}

	memberIDByUser := make(map[int]int, len(totals))
	rows := make([]scoring.MemberTotal, 0, len(totals))
	for _, t := range totals {
		memberIDByUser[t.UserID] = t.MemberID
		rows = append(rows, scoring.MemberTotal{
			UserID:    t.UserID,
			Points:    t.Points,
			ExactHits: t.ExactHits,
		})
	}

	ranked := scoring.DenseRank(rows)

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, row := range ranked {
			memberID := memberIDByUser[row.UserID]
			if err := s.poolRepo.UpdateMemberPointsRank(ctx, tx, memberID, row.Points, row.Rank); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist standings for pool %d: %w", poolID, err)
	}

	s.logger.InfoContext(ctx, "pool standings rebuilt",
		slog.Int("pool_id", poolID),
		slog.Int("members", len(ranked)),
	)
	return nil
}

func (s *rankingService) GetLeaderboard(ctx context.Context, poolID int) ([]*models.PoolMember, error) {
	if _, err := s.poolRepo.GetByID(ctx, poolID); err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool %d: %w", poolID, err)
	}

	members, err := s.poolRepo.ListMembers(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members for pool %d: %w", poolID, err)
	}
	return members, nil
}
