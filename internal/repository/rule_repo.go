package repository

import (
	"context"
	"errors"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"gorm.io/gorm"
)

type RuleRepository interface {
	List(ctx context.Context) ([]domain.Rule, error)
	Get(ctx context.Context, id string) (*domain.Rule, error)
	Count(ctx context.Context) (int64, error)
	CreateBatch(ctx context.Context, rules []domain.Rule) error
	Update(ctx context.Context, rule *domain.Rule) error
}

type GormRuleRepo struct {
	db *gorm.DB
}

var _ RuleRepository = (*GormRuleRepo)(nil)

func NewGormRuleRepo(db *gorm.DB) *GormRuleRepo {
	return &GormRuleRepo{db: db}
}

func (r *GormRuleRepo) List(ctx context.Context) ([]domain.Rule, error) {
	var models []RuleModel
	err := r.db.WithContext(ctx).
		Order("channel, id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	rules := make([]domain.Rule, 0, len(models))
	for i := range models {
		rules = append(rules, *ruleModelToDomain(&models[i]))
	}

	return rules, nil
}

func (r *GormRuleRepo) Get(ctx context.Context, id string) (*domain.Rule, error) {
	var model RuleModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ruleModelToDomain(&model), nil
}

func (r *GormRuleRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&RuleModel{}).Count(&count).Error
	return count, err
}

func (r *GormRuleRepo) CreateBatch(ctx context.Context, rules []domain.Rule) error {
	if len(rules) == 0 {
		return nil
	}

	models := make([]RuleModel, 0, len(rules))
	for i := range rules {
		models = append(models, *ruleModelFromDomain(&rules[i]))
	}

	return r.db.WithContext(ctx).CreateInBatches(&models, 50).Error
}

func (r *GormRuleRepo) Update(ctx context.Context, rule *domain.Rule) error {
	model := ruleModelFromDomain(rule)

	// Struct-based Updates with an explicit Select keeps the jsonb serializers
	// in play and pins the editable column set; id and trigger_type stay
	// structural.
	result := r.db.WithContext(ctx).
		Model(&RuleModel{}).
		Where("id = ?", model.ID).
		Select("cadence_days", "lookahead_days", "target_stages", "target_roles",
			"enabled", "description", "template").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
