package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

const (
	entityMatch         = "match"
	entityGroupStanding = "group_standing"
)

// ResultService - единственная точка записи официальных результатов.
// Каждая успешная запись сопровождается записью в журнал аудита.
type ResultService interface {
	SetMatchScore(ctx context.Context, matchID, actorID int, input SetMatchScoreInput) (*models.Match, error)
	SetGroupStanding(ctx context.Context, tournamentID int, groupName string, actorID int, orderedTeams []string) (*models.GroupStanding, error)
	SetTournamentResult(ctx context.Context, tournamentID, actorID int, winner, finalist string) (*models.TournamentResult, error)
	SetTopscorer(ctx context.Context, tournamentID, actorID int, topScorer string, topThree []string) (*models.TournamentResult, error)
}

type SetMatchScoreInput struct {
	Home          int     `json:"home"`
	Away          int     `json:"away"`
	PenaltyWinner *string `json:"penalty_winner,omitempty"`
	Finish        bool    `json:"finish"`
}

type resultService struct {
	db           *sql.DB
	matchRepo    repositories.MatchRepository
	standingRepo repositories.GroupStandingRepository
	resultRepo   repositories.TournamentResultRepository
	auditRepo    repositories.AuditLogRepository
	logger       *slog.Logger
}

func NewResultService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.GroupStandingRepository,
	resultRepo repositories.TournamentResultRepository,
	auditRepo repositories.AuditLogRepository,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:           db,
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
		resultRepo:   resultRepo,
		auditRepo:    auditRepo,
		logger:       logger,
	}
}

// SetMatchScore пишет счёт матча. Блокировка турнирных результатов здесь
// не проверяется: счета матчей вводятся непрерывно по ходу турнира,
// а winner/standings подтверждаются один раз в конце.
func (s *resultService) SetMatchScore(ctx context.Context, matchID, actorID int, input SetMatchScoreInput) (*models.Match, error) {
	if input.Home < 0 || input.Away < 0 {
		return nil, ErrInvalidScore
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}

	newStatus := match.Status
	if input.Finish {
		newStatus = models.MatchStatusFinished
	} else if match.Status == models.MatchStatusPending {
		newStatus = models.MatchStatusLive
	}

	oldSnapshot := mustJSON(map[string]interface{}{
		"home_score":     match.HomeScore,
		"away_score":     match.AwayScore,
		"penalty_winner": match.PenaltyWinner,
		"status":         match.Status,
	})

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.UpdateScore(ctx, tx, matchID, input.Home, input.Away, input.PenaltyWinner, newStatus); err != nil {
			return err
		}
		entry := &models.AuditLogEntry{
			EntityType: entityMatch,
			EntityID:   matchID,
			Action:     models.AuditActionScoreSet,
			OldValue:   oldSnapshot,
			NewValue: mustJSON(map[string]interface{}{
				"home_score":     input.Home,
				"away_score":     input.Away,
				"penalty_winner": input.PenaltyWinner,
				"status":         newStatus,
			}),
			ActorID: actorID,
		}
		return s.auditRepo.Append(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	match.HomeScore = &input.Home
	match.AwayScore = &input.Away
	match.PenaltyWinner = input.PenaltyWinner
	match.Status = newStatus

	s.logger.InfoContext(ctx, "match score set",
		slog.Int("match_id", matchID),
		slog.Int("home", input.Home),
		slog.Int("away", input.Away),
		slog.Bool("finished", newStatus == models.MatchStatusFinished),
	)
	return match, nil
}

func validateOrderedTeams(orderedTeams []string) error {
	if len(orderedTeams) != models.GroupStandingSize {
		return ErrIncompleteStanding
	}
	seen := make(map[string]struct{}, models.GroupStandingSize)
	for _, team := range orderedTeams {
		team = strings.TrimSpace(team)
		if team == "" {
			return ErrIncompleteStanding
		}
		if _, dup := seen[team]; dup {
			return ErrDuplicateTeamInStanding
		}
		seen[team] = struct{}{}
	}
	return nil
}

func (s *resultService) SetGroupStanding(ctx context.Context, tournamentID int, groupName string, actorID int, orderedTeams []string) (*models.GroupStanding, error) {
	if err := validateOrderedTeams(orderedTeams); err != nil {
		return nil, err
	}

	standing := &models.GroupStanding{
		TournamentID: tournamentID,
		GroupName:    groupName,
		Teams:        orderedTeams,
	}

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := s.resultRepo.GetOrCreate(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if result.Locked() {
			return ErrResultsLocked
		}

		var oldTeams []string
		previous, err := s.standingRepo.GetByGroup(ctx, tx, tournamentID, groupName)
		if err != nil && !errors.Is(err, repositories.ErrGroupStandingNotFound) {
			return err
		}
		if previous != nil {
			oldTeams = previous.Teams
		}

		if err := s.standingRepo.Upsert(ctx, tx, standing); err != nil {
			return err
		}

		entry := &models.AuditLogEntry{
			EntityType: entityGroupStanding,
			EntityID:   standing.ID,
			Action:     models.AuditActionStandingSet,
			OldValue:   mustJSON(map[string]interface{}{"group": groupName, "teams": oldTeams}),
			NewValue:   mustJSON(map[string]interface{}{"group": groupName, "teams": orderedTeams}),
			ActorID:    actorID,
		}
		return s.auditRepo.Append(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "group standing set",
		slog.Int("tournament_id", tournamentID),
		slog.String("group", groupName),
	)
	return standing, nil
}

func (s *resultService) SetTournamentResult(ctx context.Context, tournamentID, actorID int, winner, finalist string) (*models.TournamentResult, error) {
	winner = strings.TrimSpace(winner)
	finalist = strings.TrimSpace(finalist)
	if winner == "" || finalist == "" || winner == finalist {
		return nil, ErrInvalidFinalistPair
	}

	var updated *models.TournamentResult
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := s.resultRepo.GetOrCreate(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if result.Locked() {
			return ErrResultsLocked
		}

		oldSnapshot := mustJSON(map[string]interface{}{
			"winner":   result.Winner,
			"finalist": result.Finalist,
		})

		if err := s.resultRepo.UpdateWinnerFinalist(ctx, tx, tournamentID, winner, finalist); err != nil {
			return err
		}

		entry := &models.AuditLogEntry{
			EntityType: entityTournamentResult,
			EntityID:   result.ID,
			Action:     models.AuditActionResultSet,
			OldValue:   oldSnapshot,
			NewValue:   mustJSON(map[string]string{"winner": winner, "finalist": finalist}),
			ActorID:    actorID,
		}
		if err := s.auditRepo.Append(ctx, tx, entry); err != nil {
			return err
		}

		result.Winner = &winner
		result.Finalist = &finalist
		updated = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament result set",
		slog.Int("tournament_id", tournamentID),
		slog.String("winner", winner),
		slog.String("finalist", finalist),
	)
	return updated, nil
}

func (s *resultService) SetTopscorer(ctx context.Context, tournamentID, actorID int, topScorer string, topThree []string) (*models.TournamentResult, error) {
	topScorer = strings.TrimSpace(topScorer)
	if topScorer == "" {
		return nil, ErrTopscorerRequired
	}

	var updated *models.TournamentResult
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := s.resultRepo.GetOrCreate(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if result.Locked() {
			return ErrResultsLocked
		}

		oldSnapshot := mustJSON(map[string]interface{}{
			"top_scorer": result.TopScorer,
			"top_three":  result.TopThree,
		})

		if err := s.resultRepo.UpdateTopscorer(ctx, tx, tournamentID, topScorer, topThree); err != nil {
			return err
		}

		entry := &models.AuditLogEntry{
			EntityType: entityTournamentResult,
			EntityID:   result.ID,
			Action:     models.AuditActionTopscorerSet,
			OldValue:   oldSnapshot,
			NewValue:   mustJSON(map[string]interface{}{"top_scorer": topScorer, "top_three": topThree}),
			ActorID:    actorID,
		}
		if err := s.auditRepo.Append(ctx, tx, entry); err != nil {
			return err
		}

		result.TopScorer = &topScorer
		result.TopThree = topThree
		updated = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "top scorer set",
		slog.Int("tournament_id", tournamentID),
		slog.String("top_scorer", topScorer),
	)
	return updated, nil
}
