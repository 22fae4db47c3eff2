package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации результатов
	ErrIncompleteStanding      = errors.New("group standing must contain exactly 4 teams with positions 1-4")
	ErrDuplicateTeamInStanding = errors.New("group standing contains a duplicate team")
	ErrInvalidFinalistPair     = errors.New("finalist must differ from winner")
	ErrInvalidScore            = errors.New("match score must be non-negative")
	ErrTopscorerRequired       = errors.New("top scorer name is required")

	// Блокировка результатов: ошибка не временная, ретраи неуместны.
	ErrResultsLocked = errors.New("results are locked and cannot be modified")

	// Ошибки машины статусов результатов
	ErrInvalidStatusTransition = errors.New("invalid result status transition")
	ErrWinnerNotSet            = errors.New("tournament winner must be set before finalizing")
	ErrUnlockNotesRequired     = errors.New("unlock requires explanatory notes")
	ErrUnlockForbidden         = errors.New("unlock requires elevated privilege")
	ErrNotLocked               = errors.New("results are not locked")

	// Ошибки накопительной статистики
	ErrTournamentNotCompleted = errors.New("tournament is not completed yet")
	ErrStatsAlreadyFinalized  = errors.New("tournament stats have already been finalized")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")

	// Ошибки, специфичные для сущностей
	ErrMatchNotFound      = errors.New("match not found")
	ErrPoolNotFound       = errors.New("pool not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrResultNotFound     = errors.New("tournament result not found")
)
