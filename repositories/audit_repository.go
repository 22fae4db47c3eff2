package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/prediction-pool/models"
)

// AuditLogRepository - журнал только на запись и постраничное чтение.
// Записи никогда не изменяются и не удаляются.
type AuditLogRepository interface {
	Append(ctx context.Context, exec SQLExecutor, entry *models.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) ([]*models.AuditLogEntry, error)
}

type AuditLogFilter struct {
	EntityType *string
	EntityID   *int
	Limit      int
	Offset     int
}

type postgresAuditLogRepository struct {
	db *sql.DB
}

func NewPostgresAuditLogRepository(db *sql.DB) AuditLogRepository {
	return &postgresAuditLogRepository{db: db}
}

func (r *postgresAuditLogRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAuditLogRepository) Append(ctx context.Context, exec SQLExecutor, entry *models.AuditLogEntry) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO audit_log (entity_type, entity_id, action, old_value, new_value, actor_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		nullableJSON(entry.OldValue),
		nullableJSON(entry.NewValue),
		entry.ActorID,
		entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append audit log entry (%s/%d): %w", entry.EntityType, entry.EntityID, err)
	}
	return nil
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func (r *postgresAuditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]*models.AuditLogEntry, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, entity_type, entity_id, action, old_value, new_value, actor_id, notes, created_at
		FROM audit_log`)

	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 2)

	if filter.EntityType != nil {
		args = append(args, *filter.EntityType)
		conditions = append(conditions, "entity_type = $"+strconv.Itoa(len(args)))
	}
	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		conditions = append(conditions, "entity_id = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	args = append(args, filter.Limit)
	queryBuilder.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	args = append(args, filter.Offset)
	queryBuilder.WriteString(" OFFSET $" + strconv.Itoa(len(args)))

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuditLogEntry, 0)
	for rows.Next() {
		var e models.AuditLogEntry
		var oldValue, newValue []byte
		if scanErr := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action,
			&oldValue, &newValue, &e.ActorID, &e.Notes, &e.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit log row: %w", scanErr)
		}
		e.OldValue = oldValue
		e.NewValue = newValue
		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during audit log rows iteration: %w", err)
	}
	return entries, nil
}
