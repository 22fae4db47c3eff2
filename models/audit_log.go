package models

import (
	"encoding/json"
	"time"
)

// AuditAction - тип события в журнале.
type AuditAction string

const (
	AuditActionStatusChanged    AuditAction = "status_changed"
	AuditActionUnlocked         AuditAction = "unlocked"
	AuditActionScoreSet         AuditAction = "score_set"
	AuditActionStandingSet      AuditAction = "standing_set"
	AuditActionResultSet        AuditAction = "result_set"
	AuditActionTopscorerSet     AuditAction = "topscorer_set"
	AuditActionPointsCalculated AuditAction = "points_calculated"
	AuditActionStatsFinalized   AuditAction = "stats_finalized"
)

// AuditLogEntry - неизменяемая запись журнала: кто, когда и что поменял.
// OldValue/NewValue - JSON-снимки до и после изменения.
type AuditLogEntry struct {
	ID         int             `json:"id" db:"id"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   int             `json:"entity_id" db:"entity_id"`
	Action     AuditAction     `json:"action" db:"action"`
	OldValue   json.RawMessage `json:"old_value,omitempty" db:"old_value"`
	NewValue   json.RawMessage `json:"new_value,omitempty" db:"new_value"`
	ActorID    int             `json:"actor_id" db:"actor_id"`
	Notes      *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
