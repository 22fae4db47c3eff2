package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"github.com/Dosada05/prediction-pool/storage"
)

const entityTournament = "tournament"

// StatsService переносит итоги завершённого турнира в накопительную
// статистику участников. Операция одноразовая: повторный вызов для того же
// турнира отклоняется по stats_finalized_at.
type StatsService interface {
	FinalizeTournament(ctx context.Context, tournamentID, actorID int) error
	GetUserStats(ctx context.Context, userID int) (*models.MemberStats, error)
}

type statsService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	poolRepo       repositories.PoolRepository
	statsRepo      repositories.MemberStatsRepository
	auditRepo      repositories.AuditLogRepository
	objectStorage  storage.ObjectStorage
	logger         *slog.Logger
}

func NewStatsService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	poolRepo repositories.PoolRepository,
	statsRepo repositories.MemberStatsRepository,
	auditRepo repositories.AuditLogRepository,
	objectStorage storage.ObjectStorage,
	logger *slog.Logger,
) StatsService {
	return &statsService{
		db:             db,
		tournamentRepo: tournamentRepo,
		poolRepo:       poolRepo,
		statsRepo:      statsRepo,
		auditRepo:      auditRepo,
		objectStorage:  objectStorage,
		logger:         logger,
	}
}

func (s *statsService) FinalizeTournament(ctx context.Context, tournamentID, actorID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if tournament.Status != models.TournamentStatusCompleted {
		return ErrTournamentNotCompleted
	}

	poolIDs, err := s.poolRepo.ListIDsByTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to list pools for tournament %d: %w", tournamentID, err)
	}

	membersByPool := make(map[int][]*models.PoolMember, len(poolIDs))
	for _, poolID := range poolIDs {
		members, err := s.poolRepo.ListMembers(ctx, poolID)
		if err != nil {
			return fmt.Errorf("failed to list members for pool %d: %w", poolID, err)
		}
		membersByPool[poolID] = members
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		finalized, err := s.tournamentRepo.MarkStatsFinalized(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if !finalized {
			return ErrStatsAlreadyFinalized
		}

		memberCount := 0
		for _, members := range membersByPool {
			for _, m := range members {
				rank := 0
				if m.Rank != nil {
					rank = *m.Rank
				}
				won := rank == 1
				podium := rank >= 1 && rank <= 3
				if err := s.statsRepo.Accumulate(ctx, tx, m.UserID, m.Points, won, podium); err != nil {
					return err
				}
				memberCount++
			}
		}

		entry := &models.AuditLogEntry{
			EntityType: entityTournament,
			EntityID:   tournamentID,
			Action:     models.AuditActionStatsFinalized,
			NewValue: mustJSON(map[string]int{
				"pools":   len(poolIDs),
				"members": memberCount,
			}),
			ActorID: actorID,
		}
		return s.auditRepo.Append(ctx, tx, entry)
	})
	if err != nil {
		return err
	}

	// Снимок таблиц - побочный артефакт, его сбой не откатывает финализацию.
	if s.objectStorage != nil {
		if err := s.exportSnapshots(ctx, tournamentID, membersByPool); err != nil {
			s.logger.ErrorContext(ctx, "failed to export leaderboard snapshots",
				slog.Int("tournament_id", tournamentID),
				slog.Any("error", err),
			)
		}
	}

	s.logger.InfoContext(ctx, "tournament stats finalized",
		slog.Int("tournament_id", tournamentID),
		slog.Int("pools", len(poolIDs)),
	)
	return nil
}

type leaderboardSnapshotRow struct {
	UserID int  `json:"user_id"`
	Points int  `json:"points"`
	Rank   *int `json:"rank"`
}

type leaderboardSnapshot struct {
	TournamentID int                      `json:"tournament_id"`
	PoolID       int                      `json:"pool_id"`
	ExportedAt   time.Time                `json:"exported_at"`
	Rows         []leaderboardSnapshotRow `json:"rows"`
}

func (s *statsService) exportSnapshots(ctx context.Context, tournamentID int, membersByPool map[int][]*models.PoolMember) error {
	for poolID, members := range membersByPool {
		snapshot := leaderboardSnapshot{
			TournamentID: tournamentID,
			PoolID:       poolID,
			ExportedAt:   time.Now().UTC(),
			Rows:         make([]leaderboardSnapshotRow, 0, len(members)),
		}
		for _, m := range members {
			snapshot.Rows = append(snapshot.Rows, leaderboardSnapshotRow{
				UserID: m.UserID,
				Points: m.Points,
				Rank:   m.Rank,
			})
		}

		key := fmt.Sprintf("snapshots/tournaments/%d/pools/%d.json", tournamentID, poolID)
		if _, err := s.objectStorage.Put(ctx, key, "application/json", bytes.NewReader(mustJSON(snapshot))); err != nil {
			return err
		}
	}
	return nil
}

func (s *statsService) GetUserStats(ctx context.Context, userID int) (*models.MemberStats, error) {
	stats, err := s.statsRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberStatsNotFound) {
			// Пустая статистика для пользователя без сыгранных турниров.
			return &models.MemberStats{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to load stats for user %d: %w", userID, err)
	}
	return stats, nil
}
