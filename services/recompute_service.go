package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"github.com/Dosada05/prediction-pool/scoring"
	"golang.org/x/sync/errgroup"
)

const rankingRebuildConcurrency = 4

// RecomputeSummary - итог батча: сколько строк переписано, сколько
// пропущено и список ошибок по отдельным строкам. Ошибка одной строки
// никогда не прерывает батч.
type RecomputeSummary struct {
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

func (s *RecomputeSummary) fail(msg string) {
	s.Skipped++
	s.Errors = append(s.Errors, msg)
}

// LeaderboardNotifier извещает внешний слой (websocket-хаб) о том,
// что таблицу пула пора перечитать. Ядро только шлёт сигнал.
type LeaderboardNotifier interface {
	NotifyLeaderboardUpdated(poolID int)
}

// RecomputeService - батчевый пересчёт очков по категориям прогнозов.
// Каждый запуск идемпотентен: очки всегда выводятся заново из пары
// (прогноз, результат), а рейтинг - суммированием, не инкрементом.
type RecomputeService interface {
	CalculateMatchPoints(ctx context.Context, tournamentID, actorID int) (*RecomputeSummary, error)
	CalculateGroupPoints(ctx context.Context, tournamentID, actorID int) (*RecomputeSummary, error)
	CalculateWinnerPoints(ctx context.Context, tournamentID, actorID int) (*RecomputeSummary, error)
	CalculateTopscorerPoints(ctx context.Context, tournamentID, actorID int) (*RecomputeSummary, error)
}

type recomputeService struct {
	matchRepo         repositories.MatchRepository
	matchPredRepo     repositories.MatchPredictionRepository
	standingRepo      repositories.GroupStandingRepository
	groupPredRepo     repositories.GroupPredictionRepository
	topscorerPredRepo repositories.TopscorerPredictionRepository
	winnerPredRepo    repositories.WinnerPredictionRepository
	resultRepo        repositories.TournamentResultRepository
	auditRepo         repositories.AuditLogRepository
	rankingService    RankingService
	notifier          LeaderboardNotifier
	policy            scoring.PointPolicy
	logger            *slog.Logger
}

// Пересчёт намеренно не оборачивается в одну большую транзакцию:
// единица атомарности - одна строка прогноза.
func NewRecomputeService(
	matchRepo repositories.MatchRepository,
	matchPredRepo repositories.MatchPredictionRepository,
	standingRepo repositories.GroupStandingRepository,
	groupPredRepo repositories.GroupPredictionRepository,
	topscorerPredRepo repositories.TopscorerPredictionRepository,
	winnerPredRepo repositories.WinnerPredictionRepository,
	resultRepo repositories.TournamentResultRepository,
	auditRepo repositories.AuditLogRepository,
	rankingService RankingService,
	notifier LeaderboardNotifier,
	policy scoring.PointPolicy,
	logger *slog.Logger,
) RecomputeService {
	return &recomputeService{
		matchRepo:         matchRepo,
		matchPredRepo:     matchPredRepo,
		standingRepo:      standingRepo,
		groupPredRepo:     groupPredRepo,
		topscorerPredRepo: topscorerPredRepo,
		winnerPredRepo:    winnerPredRepo,
		resultRepo:        resultRepo,
		auditRepo:         auditRepo,
		rankingService:    rankingService,
		notifier:          notifier,
		policy:            policy,
		logger:            logger,
	}
}

// CalculateMatchPoints пересчитывает очки всех прогнозов по завершённым
// матчам турнира. Запись очков - однострочный UPDATE, критическая секция
// "прочитал результат - посчитал - записал" на уровне строки.
func (s *recomputeService) CalculateMatchPoints(ctx context.Context, tournamentID, actorID int) (*RecomputeSummary, error) {
	finished := models.MatchStatusFinished
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, &finished)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished matches: %w", err)
	}

	summary := &RecomputeSummary{Errors: []string{}}
	affectedPools := make(map[int]struct{})

	for _, match := range matches {
		if !match.Scored() {
			// finished без счёта - данные ещё не введены, не ошибка
			continue
		}
		facts := scoring.MatchFacts{
			Home:          *match.HomeScore,
			Away:          *match.AwayScore,
			Knockout:      match.Stage == models.StageKnockout,
			PenaltyWinner: match.PenaltyWinner,
		}

		predictions, err := s.matchPredRepo.ListByMatch(ctx, match.ID)
		if err != nil {
			summary.fail(fmt.Sprintf("match %d: %v", match.ID, err))
			continue
		}

		for _, p := range predictions {
			forecast := scoring.MatchForecast{
				Home:          p.PredictedHome,
				Away:          p.PredictedAway,
				PenaltyWinner: p.PredictedPenaltyWinner,
			}
			points, kind := scoring.ScoreMatch(forecast, facts, s.policy)
			if err := s.matchPredRepo.UpdatePoints(ctx, nil, p.ID, points, kind); err != nil {
				summary.fail(fmt.Sprintf("match prediction %d: %v", p.ID, err))
				continue
			}
			summary.Updated++
			affectedPools[p.PoolID] = struct{}{}
		}
	}

	s.rebuildAffectedPools(ctx, affectedPools, summary)

	s.logger.InfoContext(ctx, "match points recomputed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (s *recomputeService) CalculateGroupPoints(ctx context.Context, tournamentID, actorID int) (*RecomputeSummary, error) {
	standings, err := s.standingRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group standings: %w", err)
	}

	summary := &RecomputeSummary{Errors: []string{}}
	affectedPools := make(map[int]struct{})

	for _, standing := range standings {
		if !standing.Complete() {
			summary.fail(fmt.Sprintf("group %s: standing incomplete, not eligible for scoring", standing.GroupName))
			continue
		}

		predictions, err := s.groupPredRepo.ListByGroup(ctx, tournamentID, standing.GroupName)
		if err != nil {
			summary.fail(fmt.Sprintf("group %s: %v", standing.GroupName, err))
			continue
		}

		for _, p := range predictions {
			points, _, err := scoring.ScoreGroupStanding(p.Teams, standing.Teams, s.policy)
			if err != nil {
				// Прогноз с неполным списком - изолированная ошибка строки.
				summary.fail(fmt.Sprintf("group prediction %d: %v", p.ID, err))
				continue
			}
			if err := s.groupPredRepo.UpdatePoints(ctx, nil, p.ID, points); err != nil {
				summary.fail(fmt.Sprintf("group prediction %d: %v", p.ID, err))
				continue
			}
			summary.Updated++
			affectedPools[p.PoolID] = struct{}{}
		}
	}

	s.rebuildAffectedPools(ctx, affectedPools, summary)

	if err := s.appendRecomputeAudit(ctx, tournamentID, actorID, "group_standings", summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to append recompute audit entry", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "group points recomputed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (s *recomputeService) CalculateWinnerPoints(ctx context.Context, tournamentID, actorID int) (*RecomputeSummary, error) {
	result, err := s.resultRepo.GetByTournament(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load tournament result: %w", err)
	}
	winner := derefString(result.Winner)
	finalist := derefString(result.Finalist)
	if winner == "" || finalist == "" {
		return nil, ErrWinnerNotSet
	}

	predictions, err := s.winnerPredRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winner predictions: %w", err)
	}

	summary := &RecomputeSummary{Errors: []string{}}
	affectedPools := make(map[int]struct{})

	for _, p := range predictions {
		points := scoring.ScoreWinner(p.Country, winner, finalist, s.policy)
		if err := s.winnerPredRepo.UpdatePoints(ctx, nil, p.ID, points); err != nil {
			summary.fail(fmt.Sprintf("winner prediction %d: %v", p.ID, err))
			continue
		}
		summary.Updated++
		affectedPools[p.PoolID] = struct{}{}
	}

	s.rebuildAffectedPools(ctx, affectedPools, summary)

	if err := s.appendRecomputeAudit(ctx, tournamentID, actorID, "winner", summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to append recompute audit entry", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "winner points recomputed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (s *recomputeService) CalculateTopscorerPoints(ctx context.Context, tournamentID, actorID int) (*RecomputeSummary, error) {
	result, err := s.resultRepo.GetByTournament(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load tournament result: %w", err)
	}
	topScorer := derefString(result.TopScorer)
	if topScorer == "" {
		return nil, ErrTopscorerRequired
	}

	predictions, err := s.topscorerPredRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list topscorer predictions: %w", err)
	}

	summary := &RecomputeSummary{Errors: []string{}}
	affectedPools := make(map[int]struct{})

	for _, p := range predictions {
		points := scoring.ScoreTopscorer(p.PlayerName, topScorer, result.TopThree, s.policy)
		if err := s.topscorerPredRepo.UpdatePoints(ctx, nil, p.ID, points); err != nil {
			summary.fail(fmt.Sprintf("topscorer prediction %d: %v", p.ID, err))
			continue
		}
		summary.Updated++
		affectedPools[p.PoolID] = struct{}{}
	}

	s.rebuildAffectedPools(ctx, affectedPools, summary)

	if err := s.appendRecomputeAudit(ctx, tournamentID, actorID, "topscorer", summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to append recompute audit entry", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "topscorer points recomputed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// rebuildAffectedPools пересобирает рейтинги затронутых пулов с ограниченным
// параллелизмом и извещает подписчиков. Ошибка пересборки одного пула
// попадает в сводку, но не прерывает остальные.
func (s *recomputeService) rebuildAffectedPools(ctx context.Context, pools map[int]struct{}, summary *RecomputeSummary) {
	if len(pools) == 0 {
		return
	}

	poolIDs := make([]int, 0, len(pools))
	for id := range pools {
		poolIDs = append(poolIDs, id)
	}
	sort.Ints(poolIDs)

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(rankingRebuildConcurrency)

	for _, poolID := range poolIDs {
		poolID := poolID
		g.Go(func() error {
			if err := s.rankingService.RebuildPoolStandings(gCtx, poolID); err != nil {
				mu.Lock()
				summary.Errors = append(summary.Errors, fmt.Sprintf("pool %d ranking: %v", poolID, err))
				mu.Unlock()
				return nil
			}
			if s.notifier != nil {
				s.notifier.NotifyLeaderboardUpdated(poolID)
			}
			return nil
		})
	}
	// Горутины не возвращают ошибок - Wait нужен только как барьер.
	_ = g.Wait()
}

func (s *recomputeService) appendRecomputeAudit(ctx context.Context, tournamentID, actorID int, scope string, summary *RecomputeSummary) error {
	entry := &models.AuditLogEntry{
		EntityType: entityTournamentResult,
		EntityID:   tournamentID,
		Action:     models.AuditActionPointsCalculated,
		NewValue: mustJSON(map[string]interface{}{
			"scope":   scope,
			"updated": summary.Updated,
			"skipped": summary.Skipped,
		}),
		ActorID: actorID,
	}
	return s.auditRepo.Append(ctx, nil, entry)
}
