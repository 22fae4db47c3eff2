package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

// runInTx выполняет fn внутри транзакции с откатом при ошибке или панике.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// statusSnapshot - JSON-снимок для audit_log: {"status": "..."}.
func statusSnapshot(status models.ResultStatus) json.RawMessage {
	raw, _ := json.Marshal(map[string]models.ResultStatus{"status": status})
	return raw
}

// mustJSON сериализует снимок значения для журнала.
// Паника невозможна для наших моделей, ошибку глотать безопасно.
func mustJSON(v interface{}) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
