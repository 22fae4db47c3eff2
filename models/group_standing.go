package models

import "time"

// GroupStandingSize - итоговая таблица группы всегда содержит ровно 4 команды.
const GroupStandingSize = 4

// GroupStanding хранит официальный итог группы: команды в порядке мест 1-4.
type GroupStanding struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	GroupName    string    `json:"group_name" db:"group_name"`
	Teams        []string  `json:"teams" db:"teams"` // позиция в слайсе = место в группе (0 -> 1-е место)
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Complete проверяет, что таблица пригодна для начисления очков:
// ровно 4 позиции, без дубликатов и пустых имён.
func (gs *GroupStanding) Complete() bool {
	if len(gs.Teams) != GroupStandingSize {
		return false
	}
	seen := make(map[string]struct{}, GroupStandingSize)
	for _, team := range gs.Teams {
		if team == "" {
			return false
		}
		if _, dup := seen[team]; dup {
			return false
		}
		seen[team] = struct{}{}
	}
	return true
}
