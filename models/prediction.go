package models

import "time"

// MatchOutcomeKind - категория начисления за прогноз матча.
// Храним явно, а не выводим из числа очков: при смене таблицы
// очков история категорий не должна "поплыть".
type MatchOutcomeKind string

const (
	OutcomeKindExact   MatchOutcomeKind = "exact"
	OutcomeKindResult  MatchOutcomeKind = "result"
	OutcomeKindPenalty MatchOutcomeKind = "penalty"
	OutcomeKindMiss    MatchOutcomeKind = "miss"
)

// MatchPrediction - прогноз счёта матча внутри пула.
// PointsEarned == nil означает "ещё не пересчитывалось", не ноль очков.
type MatchPrediction struct {
	ID                     int               `json:"id" db:"id"`
	PoolID                 int               `json:"pool_id" db:"pool_id"`
	UserID                 int               `json:"user_id" db:"user_id"`
	MatchID                int               `json:"match_id" db:"match_id"`
	PredictedHome          int               `json:"predicted_home" db:"predicted_home"`
	PredictedAway          int               `json:"predicted_away" db:"predicted_away"`
	PredictedPenaltyWinner *string           `json:"predicted_penalty_winner,omitempty" db:"predicted_penalty_winner"`
	PointsEarned           *int              `json:"points_earned,omitempty" db:"points_earned"`
	OutcomeKind            *MatchOutcomeKind `json:"outcome_kind,omitempty" db:"outcome_kind"`
	IsAIGenerated          bool              `json:"is_ai_generated" db:"is_ai_generated"`
	CreatedAt              time.Time         `json:"created_at" db:"created_at"`
}

// GroupStandingPrediction - прогноз итоговой таблицы группы (4 команды по местам).
type GroupStandingPrediction struct {
	ID           int       `json:"id" db:"id"`
	PoolID       int       `json:"pool_id" db:"pool_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	GroupName    string    `json:"group_name" db:"group_name"`
	Teams        []string  `json:"teams" db:"teams"`
	PointsEarned *int      `json:"points_earned,omitempty" db:"points_earned"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type TopscorerPrediction struct {
	ID           int       `json:"id" db:"id"`
	PoolID       int       `json:"pool_id" db:"pool_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	PlayerName   string    `json:"player_name" db:"player_name"`
	PointsEarned *int      `json:"points_earned,omitempty" db:"points_earned"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type WinnerPrediction struct {
	ID           int       `json:"id" db:"id"`
	PoolID       int       `json:"pool_id" db:"pool_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Country      string    `json:"country" db:"country"`
	PointsEarned *int      `json:"points_earned,omitempty" db:"points_earned"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
