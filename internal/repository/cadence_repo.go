package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CadenceRepository interface {
	Get(ctx context.Context, contactID, ruleID string) (*domain.CadenceState, error)
	// StatesForRule bulk-loads all cadence records for one rule keyed by
	// contact id, so the evaluator checks N candidates without N round-trips.
	StatesForRule(ctx context.Context, ruleID string) (map[string]domain.CadenceState, error)
	SetLastContacted(ctx context.Context, contactID, ruleID string, at time.Time) error
	SetSnoozedUntil(ctx context.Context, contactID, ruleID string, until time.Time) error
}

type GormCadenceRepo struct {
	db *gorm.DB
}

var _ CadenceRepository = (*GormCadenceRepo)(nil)

func NewGormCadenceRepo(db *gorm.DB) *GormCadenceRepo {
	return &GormCadenceRepo{db: db}
}

func (r *GormCadenceRepo) Get(ctx context.Context, contactID, ruleID string) (*domain.CadenceState, error) {
	var model ContactRuleStateModel
	err := r.db.WithContext(ctx).
		First(&model, "contact_id = ? AND rule_id = ?", contactID, ruleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return stateModelToDomain(&model), nil
}

func (r *GormCadenceRepo) StatesForRule(ctx context.Context, ruleID string) (map[string]domain.CadenceState, error) {
	var models []ContactRuleStateModel
	err := r.db.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	states := make(map[string]domain.CadenceState, len(models))
	for i := range models {
		state := stateModelToDomain(&models[i])
		states[state.ContactID] = *state
	}

	return states, nil
}

func (r *GormCadenceRepo) SetLastContacted(ctx context.Context, contactID, ruleID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contact_id"}, {Name: "rule_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_contacted_at", "updated_at"}),
		}).
		Create(&ContactRuleStateModel{
			ContactID:       contactID,
			RuleID:          ruleID,
			LastContactedAt: &at,
			UpdatedAt:       time.Now().UTC(),
		}).Error
}

func (r *GormCadenceRepo) SetSnoozedUntil(ctx context.Context, contactID, ruleID string, until time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contact_id"}, {Name: "rule_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"snoozed_until", "updated_at"}),
		}).
		Create(&ContactRuleStateModel{
			ContactID:    contactID,
			RuleID:       ruleID,
			SnoozedUntil: &until,
			UpdatedAt:    time.Now().UTC(),
		}).Error
}
