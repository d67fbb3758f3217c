package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"gorm.io/gorm"
)

// bulkEnqueueChunkSize bounds single-statement write latency under load.
const bulkEnqueueChunkSize = 500

type QueueRepository interface {
	Enqueue(ctx context.Context, item *domain.QueueItem) error
	BulkEnqueue(ctx context.Context, items []domain.QueueItem) error
	GetByID(ctx context.Context, id string) (*domain.QueueItem, error)
	FindPending(ctx context.Context, ruleID string) ([]domain.QueueItem, error)
	// PendingKeys returns the dedup keys of all pending items for the rule in
	// one round-trip, so candidate scans dedup with O(1) set lookups.
	PendingKeys(ctx context.Context, ruleID string) (map[string]struct{}, error)
	// SentKeysSince returns dedup keys of items sent at or after since.
	SentKeysSince(ctx context.Context, ruleID string, since time.Time) (map[string]struct{}, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkCancelled(ctx context.Context, id string) error
	// CancelOtherPending cancels pending items for the same contact and rule
	// other than exceptID. Repairs duplicates a dedup race let through.
	CancelOtherPending(ctx context.Context, ruleID, contactID, exceptID string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type GormQueueRepo struct {
	db *gorm.DB
}

var _ QueueRepository = (*GormQueueRepo)(nil)

func NewGormQueueRepo(db *gorm.DB) *GormQueueRepo {
	return &GormQueueRepo{db: db}
}

func (r *GormQueueRepo) Enqueue(ctx context.Context, item *domain.QueueItem) error {
	if item == nil {
		return errors.New("queue item is required")
	}
	if err := item.Validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Create(queueItemModelFromDomain(item)).Error
}

func (r *GormQueueRepo) BulkEnqueue(ctx context.Context, items []domain.QueueItem) error {
	if len(items) == 0 {
		return nil
	}

	models := make([]QueueItemModel, 0, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
		models = append(models, *queueItemModelFromDomain(&items[i]))
	}

	return r.db.WithContext(ctx).CreateInBatches(&models, bulkEnqueueChunkSize).Error
}

func (r *GormQueueRepo) GetByID(ctx context.Context, id string) (*domain.QueueItem, error) {
	var model QueueItemModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return queueItemModelToDomain(&model), nil
}

func (r *GormQueueRepo) FindPending(ctx context.Context, ruleID string) ([]domain.QueueItem, error) {
	var models []QueueItemModel
	err := r.db.WithContext(ctx).
		Where("rule_id = ? AND status = ?", ruleID, domain.ItemPending).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	items := make([]domain.QueueItem, 0, len(models))
	for i := range models {
		items = append(items, *queueItemModelToDomain(&models[i]))
	}

	return items, nil
}

func (r *GormQueueRepo) PendingKeys(ctx context.Context, ruleID string) (map[string]struct{}, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&QueueItemModel{}).
		Where("rule_id = ? AND status = ?", ruleID, domain.ItemPending).
		Pluck("dedup_key", &keys).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}

	return set, nil
}

func (r *GormQueueRepo) SentKeysSince(ctx context.Context, ruleID string, since time.Time) (map[string]struct{}, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&QueueItemModel{}).
		Where("rule_id = ? AND status = ? AND sent_at >= ?", ruleID, domain.ItemSent, since).
		Pluck("dedup_key", &keys).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}

	return set, nil
}

func (r *GormQueueRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&QueueItemModel{}).
		Where("id = ? AND status = ?", id, domain.ItemPending).
		Updates(map[string]any{
			"status":  domain.ItemSent,
			"sent_at": sentAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormQueueRepo) MarkCancelled(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&QueueItemModel{}).
		Where("id = ? AND status = ?", id, domain.ItemPending).
		Update("status", domain.ItemCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormQueueRepo) CancelOtherPending(ctx context.Context, ruleID, contactID, exceptID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&QueueItemModel{}).
		Where("rule_id = ? AND contact_id = ? AND status = ? AND id <> ?",
			ruleID, contactID, domain.ItemPending, exceptID).
		Update("status", domain.ItemCancelled)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormQueueRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&QueueItemModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
