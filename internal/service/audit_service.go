package service

import (
	"context"
	"fmt"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
)

// AuditPage is one page of the dispatch audit trail.
type AuditPage struct {
	Entries  []domain.AuditEntry `json:"entries"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

// AuditService exposes the read side of the audit trail.
type AuditService struct {
	audit repository.AuditRepository
}

func NewAuditService(audit repository.AuditRepository) (*AuditService, error) {
	if audit == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	return &AuditService{audit: audit}, nil
}

func (s *AuditService) List(ctx context.Context, params repository.AuditListParams) (*AuditPage, error) {
	entries, total, err := s.audit.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	return &AuditPage{
		Entries:  entries,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
