package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
// Отдельная машина статусов результатов (draft/final/locked) живёт в TournamentResult.
type TournamentStatus string

const (
	TournamentStatusSoon      TournamentStatus = "soon"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID               int              `json:"id" db:"id"`
	Name             string           `json:"name" db:"name"`
	Status           TournamentStatus `json:"status" db:"status"`
	StartDate        time.Time        `json:"start_date" db:"start_date"`
	EndDate          time.Time        `json:"end_date" db:"end_date"`
	StatsFinalizedAt *time.Time       `json:"stats_finalized_at,omitempty" db:"stats_finalized_at"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}
