package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"gorm.io/gorm"
)

type JobRepository interface {
	// CreateRunning atomically inserts a RUNNING job. A partial unique index on
	// status guarantees at most one RUNNING row; a unique violation surfaces as
	// ErrJobRunning so two concurrent triggers cannot both start.
	CreateRunning(ctx context.Context, job *domain.JobStatus) error
	GetRunning(ctx context.Context) (*domain.JobStatus, error)
	GetByID(ctx context.Context, id string) (*domain.JobStatus, error)
	GetLatest(ctx context.Context) (*domain.JobStatus, error)
	UpdateProgress(ctx context.Context, job *domain.JobStatus) error
	Finish(ctx context.Context, id string, state domain.JobState, results map[string]domain.RuleResult, lastError string) error
	RequestCancel(ctx context.Context, id string) error
	IsCancelRequested(ctx context.Context, id string) (bool, error)
}

type GormJobRepo struct {
	db *gorm.DB
}

var _ JobRepository = (*GormJobRepo)(nil)

func NewGormJobRepo(db *gorm.DB) *GormJobRepo {
	return &GormJobRepo{db: db}
}

func (r *GormJobRepo) CreateRunning(ctx context.Context, job *domain.JobStatus) error {
	if job == nil {
		return errors.New("job is required")
	}

	job.Status = domain.JobRunning
	if err := r.db.WithContext(ctx).Create(jobModelFromDomain(job)).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrJobRunning
		}
		return err
	}

	return nil
}

func (r *GormJobRepo) GetRunning(ctx context.Context) (*domain.JobStatus, error) {
	var model JobStatusModel
	err := r.db.WithContext(ctx).
		First(&model, "status = ?", domain.JobRunning).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return jobModelToDomain(&model), nil
}

func (r *GormJobRepo) GetByID(ctx context.Context, id string) (*domain.JobStatus, error) {
	var model JobStatusModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return jobModelToDomain(&model), nil
}

func (r *GormJobRepo) GetLatest(ctx context.Context) (*domain.JobStatus, error) {
	var model JobStatusModel
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return jobModelToDomain(&model), nil
}

func (r *GormJobRepo) UpdateProgress(ctx context.Context, job *domain.JobStatus) error {
	if job == nil {
		return errors.New("job is required")
	}

	model := jobModelFromDomain(job)
	result := r.db.WithContext(ctx).
		Model(&JobStatusModel{}).
		Where("id = ?", model.ID).
		Select("current_rule_index", "contacts_found_rule", "contacts_processed_rule",
			"total_queued", "results").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormJobRepo) Finish(ctx context.Context, id string, state domain.JobState, results map[string]domain.RuleResult, lastError string) error {
	if !state.Terminal() {
		return errors.New("finish requires a terminal job state")
	}

	now := time.Now().UTC()
	model := &JobStatusModel{
		Status:     state,
		Results:    results,
		FinishedAt: &now,
		LastError:  lastError,
	}

	result := r.db.WithContext(ctx).
		Model(&JobStatusModel{}).
		Where("id = ? AND status = ?", id, domain.JobRunning).
		Select("status", "results", "finished_at", "last_error").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormJobRepo) RequestCancel(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&JobStatusModel{}).
		Where("id = ? AND status = ?", id, domain.JobRunning).
		Update("cancel_requested", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormJobRepo) IsCancelRequested(ctx context.Context, id string) (bool, error) {
	var model JobStatusModel
	err := r.db.WithContext(ctx).
		Select("cancel_requested").
		First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return model.CancelRequested, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
