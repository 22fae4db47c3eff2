package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"github.com/Dosada05/prediction-pool/storage"
)

var (
	ErrScheduleNotFound     = errors.New("schedule file not found in storage")
	ErrScheduleInvalid      = errors.New("schedule file is malformed")
	ErrStorageNotConfigured = errors.New("object storage is not configured")
)

// ScheduleImportSummary - итог импорта расписания из хранилища.
type ScheduleImportSummary struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// ScheduleService загружает расписание матчей турнира из объектного
// хранилища. Импорт идемпотентен: уже существующая пара команд
// пропускается, повторный запуск ничего не дублирует.
type ScheduleService interface {
	ImportFromStorage(ctx context.Context, tournamentID int, key string) (*ScheduleImportSummary, error)
}

type scheduleEntry struct {
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Stage     string    `json:"stage"`
	KickoffAt time.Time `json:"kickoff_at"`
}

type scheduleFile struct {
	Matches []scheduleEntry `json:"matches"`
}

type scheduleService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	objectStorage  storage.ObjectStorage
	logger         *slog.Logger
}

func NewScheduleService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	objectStorage storage.ObjectStorage,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		objectStorage:  objectStorage,
		logger:         logger,
	}
}

func (s *scheduleService) ImportFromStorage(ctx context.Context, tournamentID int, key string) (*ScheduleImportSummary, error) {
	// Хранилище опционально: без него импорт недоступен, а не падает.
	if s.objectStorage == nil {
		return nil, ErrStorageNotConfigured
	}

	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	body, err := s.objectStorage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to fetch schedule %q: %w", key, err)
	}
	defer body.Close()

	var file scheduleFile
	if err := json.NewDecoder(body).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScheduleInvalid, err)
	}

	summary := &ScheduleImportSummary{Errors: []string{}}
	for i, entry := range file.Matches {
		home := strings.TrimSpace(entry.HomeTeam)
		away := strings.TrimSpace(entry.AwayTeam)
		if home == "" || away == "" || home == away {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("entry %d: invalid pairing %q vs %q", i, entry.HomeTeam, entry.AwayTeam))
			continue
		}

		stage := models.MatchStage(entry.Stage)
		if stage != models.StageGroup && stage != models.StageKnockout {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("entry %d: unknown stage %q", i, entry.Stage))
			continue
		}

		exists, err := s.matchRepo.Exists(ctx, tournamentID, home, away)
		if err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		if exists {
			summary.Skipped++
			continue
		}

		match := &models.Match{
			TournamentID: tournamentID,
			HomeTeam:     home,
			AwayTeam:     away,
			Stage:        stage,
			Status:       models.MatchStatusPending,
			KickoffAt:    entry.KickoffAt,
		}
		if err := s.matchRepo.Create(ctx, nil, match); err != nil {
			if errors.Is(err, repositories.ErrMatchDuplicate) {
				summary.Skipped++
				continue
			}
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		summary.Created++
	}

	s.logger.InfoContext(ctx, "schedule imported",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", key),
		slog.Int("created", summary.Created),
		slog.Int("skipped", summary.Skipped),
	)
	return summary, nil
}
