package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

const entityTournamentResult = "tournament_result"

// LifecycleService управляет машиной статусов официальных результатов:
// draft -> final -> locked, с обратными переходами final -> draft и
// locked -> final (последний - только через явный Unlock).
type LifecycleService interface {
	GetResult(ctx context.Context, tournamentID int) (*models.TournamentResult, error)
	TransitionStatus(ctx context.Context, tournamentID, actorID int, next models.ResultStatus, notes *string) (*models.TournamentResult, error)
	Unlock(ctx context.Context, tournamentID, actorID int, actorRole models.UserRole, notes string) (*models.TournamentResult, error)
}

type lifecycleService struct {
	db         *sql.DB
	resultRepo repositories.TournamentResultRepository
	auditRepo  repositories.AuditLogRepository
	logger     *slog.Logger
}

func NewLifecycleService(
	db *sql.DB,
	resultRepo repositories.TournamentResultRepository,
	auditRepo repositories.AuditLogRepository,
	logger *slog.Logger,
) LifecycleService {
	return &lifecycleService{
		db:         db,
		resultRepo: resultRepo,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

func (s *lifecycleService) GetResult(ctx context.Context, tournamentID int) (*models.TournamentResult, error) {
	result, err := s.resultRepo.GetOrCreate(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament result: %w", err)
	}
	return result, nil
}

// isValidResultTransition - обычные переходы. Выход из locked сюда
// намеренно не входит: это отдельная операция Unlock.
func isValidResultTransition(current, next models.ResultStatus) bool {
	allowed := map[models.ResultStatus][]models.ResultStatus{
		models.ResultStatusDraft:  {models.ResultStatusFinal},
		models.ResultStatusFinal:  {models.ResultStatusLocked, models.ResultStatusDraft},
		models.ResultStatusLocked: {},
	}
	for _, status := range allowed[current] {
		if next == status {
			return true
		}
	}
	return false
}

func (s *lifecycleService) TransitionStatus(ctx context.Context, tournamentID, actorID int, next models.ResultStatus, notes *string) (*models.TournamentResult, error) {
	switch next {
	case models.ResultStatusDraft, models.ResultStatusFinal, models.ResultStatusLocked:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, next)
	}

	var updated *models.TournamentResult
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := s.resultRepo.GetOrCreate(ctx, tx, tournamentID)
		if err != nil {
			return err
		}

		if result.Status == next {
			updated = result
			return nil
		}
		if !isValidResultTransition(result.Status, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, result.Status, next)
		}
		// Переход в final требует заполненного победителя.
		if next == models.ResultStatusFinal && result.Status == models.ResultStatusDraft && derefString(result.Winner) == "" {
			return ErrWinnerNotSet
		}

		var lockedAt *time.Time
		var lockedBy *int
		if next == models.ResultStatusLocked {
			now := time.Now()
			lockedAt = &now
			lockedBy = &actorID
		}
		// final -> draft сбрасывает поля блокировки, если они остались.

		if err := s.resultRepo.UpdateStatus(ctx, tx, tournamentID, next, lockedAt, lockedBy); err != nil {
			return err
		}

		entry := &models.AuditLogEntry{
			EntityType: entityTournamentResult,
			EntityID:   result.ID,
			Action:     models.AuditActionStatusChanged,
			OldValue:   statusSnapshot(result.Status),
			NewValue:   statusSnapshot(next),
			ActorID:    actorID,
			Notes:      notes,
		}
		if err := s.auditRepo.Append(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to record status transition: %w", err)
		}

		result.Status = next
		result.LockedAt = lockedAt
		result.LockedBy = lockedBy
		updated = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "result status transition",
		slog.Int("tournament_id", tournamentID),
		slog.String("status", string(updated.Status)),
		slog.Int("actor_id", actorID),
	)
	return updated, nil
}

// Unlock - единственный путь из locked обратно в final.
// Требует роли superadmin и обязательного пояснения.
func (s *lifecycleService) Unlock(ctx context.Context, tournamentID, actorID int, actorRole models.UserRole, notes string) (*models.TournamentResult, error) {
	if actorRole != models.RoleSuperadmin {
		return nil, ErrUnlockForbidden
	}
	if strings.TrimSpace(notes) == "" {
		return nil, ErrUnlockNotesRequired
	}

	var updated *models.TournamentResult
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := s.resultRepo.GetByTournament(ctx, tx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentResultNotFound) {
				return ErrResultNotFound
			}
			return err
		}
		if result.Status != models.ResultStatusLocked {
			return ErrNotLocked
		}

		if err := s.resultRepo.UpdateStatus(ctx, tx, tournamentID, models.ResultStatusFinal, nil, nil); err != nil {
			return err
		}

		entry := &models.AuditLogEntry{
			EntityType: entityTournamentResult,
			EntityID:   result.ID,
			Action:     models.AuditActionUnlocked,
			OldValue:   statusSnapshot(models.ResultStatusLocked),
			NewValue:   statusSnapshot(models.ResultStatusFinal),
			ActorID:    actorID,
			Notes:      &notes,
		}
		if err := s.auditRepo.Append(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to record unlock: %w", err)
		}

		result.Status = models.ResultStatusFinal
		result.LockedAt = nil
		result.LockedBy = nil
		updated = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WarnContext(ctx, "results unlocked",
		slog.Int("tournament_id", tournamentID),
		slog.Int("actor_id", actorID),
	)
	return updated, nil
}
