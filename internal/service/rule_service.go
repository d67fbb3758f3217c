package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"go.uber.org/zap"
)

// RuleService is the rule registry: seeded defaults, reads, and allow-listed
// admin edits. Rule id and trigger type are structural and never change.
type RuleService struct {
	rules  repository.RuleRepository
	logger *zap.Logger

	seedMu sync.Mutex
	seeded bool
}

func NewRuleService(rules repository.RuleRepository, logger *zap.Logger) (*RuleService, error) {
	if rules == nil {
		return nil, fmt.Errorf("rule repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RuleService{
		rules:  rules,
		logger: logger,
	}, nil
}

// ListRules returns all rules, seeding the default table on first read of an
// empty registry.
func (s *RuleService) ListRules(ctx context.Context) ([]domain.Rule, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	return s.rules.List(ctx)
}

func (s *RuleService) GetRule(ctx context.Context, id string) (*domain.Rule, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: rule id is required", domain.ErrValidation)
	}
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	return s.rules.Get(ctx, trimmed)
}

// UpsertRule applies an allow-listed patch to an existing rule. Structural
// fields (id, channel, trigger type) cannot be patched.
func (s *RuleService) UpsertRule(ctx context.Context, id string, patch domain.RulePatch) (*domain.Rule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.CadenceDays != nil {
		rule.CadenceDays = *patch.CadenceDays
	}
	if patch.LookaheadDays != nil {
		rule.LookaheadDays = *patch.LookaheadDays
	}
	if patch.TargetStages != nil {
		rule.TargetStages = *patch.TargetStages
	}
	if patch.TargetRoles != nil {
		rule.TargetRoles = *patch.TargetRoles
	}
	if patch.Enabled != nil {
		rule.Enabled = *patch.Enabled
	}
	if patch.Description != nil {
		rule.Description = *patch.Description
	}
	if patch.Template != nil {
		rule.Template = *patch.Template
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("rule updated", zap.String("ruleId", rule.ID))
	return rule, nil
}

func (s *RuleService) ToggleEnabled(ctx context.Context, id string) (*domain.Rule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	enabled := !rule.Enabled
	return s.UpsertRule(ctx, id, domain.RulePatch{Enabled: &enabled})
}

func (s *RuleService) ensureSeeded(ctx context.Context) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	if s.seeded {
		return nil
	}

	count, err := s.rules.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count rules: %w", err)
	}

	if count == 0 {
		seed := defaultRules()
		if err := s.rules.CreateBatch(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed default rules: %w", err)
		}
		s.logger.Info("seeded default rules", zap.Int("count", len(seed)))
	}

	s.seeded = true
	return nil
}
