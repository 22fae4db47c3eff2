package models

import "time"

// Pool - изолированный прогноз-контест со своим списком участников и таблицей.
type Pool struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	InviteCode   string    `json:"invite_code" db:"invite_code"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// PoolMember хранит агрегат участника внутри пула.
// Points всегда пересчитывается суммированием points_earned,
// Rank == nil до первого прохода рейтинга.
type PoolMember struct {
	ID        int       `json:"id" db:"id"`
	PoolID    int       `json:"pool_id" db:"pool_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Points    int       `json:"points" db:"points"`
	Rank      *int      `json:"rank,omitempty" db:"rank"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Опциональные связанные данные, заполняются сервисом
	User *User `json:"user,omitempty" db:"-"`
}
