package models

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusLive     MatchStatus = "live"
	MatchStatusFinished MatchStatus = "finished"
)

// MatchStage различает групповые матчи и матчи плей-офф.
// Для плей-офф дополнительно учитывается победитель серии пенальти.
type MatchStage string

const (
	StageGroup    MatchStage = "group"
	StageKnockout MatchStage = "knockout"
)

type Match struct {
	ID            int         `json:"id" db:"id"`
	TournamentID  int         `json:"tournament_id" db:"tournament_id"`
	HomeTeam      string      `json:"home_team" db:"home_team"`
	AwayTeam      string      `json:"away_team" db:"away_team"`
	HomeScore     *int        `json:"home_score,omitempty" db:"home_score"`
	AwayScore     *int        `json:"away_score,omitempty" db:"away_score"`
	PenaltyWinner *string     `json:"penalty_winner,omitempty" db:"penalty_winner"`
	Stage         MatchStage  `json:"stage" db:"stage"`
	Status        MatchStatus `json:"status" db:"status"`
	KickoffAt     time.Time   `json:"kickoff_at" db:"kickoff_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// Scored сообщает, введён ли окончательный счёт матча.
func (m *Match) Scored() bool {
	return m.Status == MatchStatusFinished && m.HomeScore != nil && m.AwayScore != nil
}
