package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditService - постраничное чтение журнала изменений.
type AuditService interface {
	List(ctx context.Context, input AuditListInput) ([]*models.AuditLogEntry, error)
}

type AuditListInput struct {
	EntityType *string
	EntityID   *int
	Limit      int
	Offset     int
}

type auditService struct {
	auditRepo repositories.AuditLogRepository
}

func NewAuditService(auditRepo repositories.AuditLogRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) List(ctx context.Context, input AuditListInput) ([]*models.AuditLogEntry, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	entries, err := s.auditRepo.List(ctx, repositories.AuditLogFilter{
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	return entries, nil
}
