package repository

import (
	"context"
	"errors"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"gorm.io/gorm"
)

type AuditListParams struct {
	RuleID    *string
	ContactID *string
	Page      int
	PageSize  int
}

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, params AuditListParams) ([]domain.AuditEntry, int64, error)
}

type GormAuditRepo struct {
	db *gorm.DB
}

var _ AuditRepository = (*GormAuditRepo)(nil)

func NewGormAuditRepo(db *gorm.DB) *GormAuditRepo {
	return &GormAuditRepo{db: db}
}

func (r *GormAuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if entry == nil {
		return errors.New("audit entry is required")
	}
	return r.db.WithContext(ctx).Create(auditModelFromDomain(entry)).Error
}

func (r *GormAuditRepo) List(ctx context.Context, params AuditListParams) ([]domain.AuditEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&AuditEntryModel{})

	if params.RuleID != nil {
		query = query.Where("rule_id = ?", *params.RuleID)
	}
	if params.ContactID != nil {
		query = query.Where("contact_id = ?", *params.ContactID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []AuditEntryModel
	err := query.
		Order("sent_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	entries := make([]domain.AuditEntry, 0, len(models))
	for i := range models {
		entries = append(entries, *auditModelToDomain(&models[i]))
	}

	return entries, total, nil
}
