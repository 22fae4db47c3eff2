package models

import "time"

// ResultStatus - машина состояний официальных результатов турнира.
// draft: свободно редактируются, final: подтверждены админом,
// locked: заморожены, выход только через явный unlock.
type ResultStatus string

const (
	ResultStatusDraft  ResultStatus = "draft"
	ResultStatusFinal  ResultStatus = "final"
	ResultStatusLocked ResultStatus = "locked"
)

// TournamentResult - единственная на турнир запись с официальной правдой:
// победитель, финалист, лучший бомбардир и топ-3 бомбардиров.
type TournamentResult struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	Winner       *string      `json:"winner,omitempty" db:"winner"`
	Finalist     *string      `json:"finalist,omitempty" db:"finalist"`
	TopScorer    *string      `json:"top_scorer,omitempty" db:"top_scorer"`
	TopThree     []string     `json:"top_three,omitempty" db:"top_three"`
	Status       ResultStatus `json:"status" db:"status"`
	LockedAt     *time.Time   `json:"locked_at,omitempty" db:"locked_at"`
	LockedBy     *int         `json:"locked_by,omitempty" db:"locked_by"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// Locked - пока true, любые изменения результатов запрещены.
func (tr *TournamentResult) Locked() bool {
	return tr.Status == ResultStatusLocked
}
