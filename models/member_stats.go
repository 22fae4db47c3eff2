package models

import "time"

// MemberStats - накопительная статистика игрока за всё время.
// Пополняется один раз при закрытии турнира (FinalizeTournament),
// автоматического отката нет.
type MemberStats struct {
	UserID            int       `json:"user_id" db:"user_id"`
	TotalPoints       int       `json:"total_points" db:"total_points"`
	TournamentsPlayed int       `json:"tournaments_played" db:"tournaments_played"`
	Wins              int       `json:"wins" db:"wins"`
	Podiums           int       `json:"podiums" db:"podiums"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
