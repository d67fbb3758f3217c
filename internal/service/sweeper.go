package service

import (
	"context"
	"fmt"

	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/observability"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"go.uber.org/zap"
)

// SweepResult reports what one cleanup pass did for a rule.
type SweepResult struct {
	RuleID   string `json:"ruleId"`
	Checked  int    `json:"checked"`
	Removed  int    `json:"removed"`
	Degraded bool   `json:"degraded,omitempty"`
}

// SweeperService removes pending items whose contact no longer satisfies the
// rule that queued them. Only volatile rules are swept; sent and cancelled
// items are history and never touched.
type SweeperService struct {
	queue    repository.QueueRepository
	contacts crm.ContactStore
	eval     *Evaluator
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewSweeperService(
	queue repository.QueueRepository,
	contacts crm.ContactStore,
	eval *Evaluator,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*SweeperService, error) {
	if queue == nil || contacts == nil || eval == nil {
		return nil, fmt.Errorf("queue repository, contact store and evaluator are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SweeperService{
		queue:    queue,
		contacts: contacts,
		eval:     eval,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// SweepRule re-checks the rule's pending items against the base stage/role
// predicate and the trigger-specific condition. Items failing either check are
// deleted. A collaborator failure degrades the trigger check to "keep", so a
// flaky calendar never wipes a reviewed queue.
func (s *SweeperService) SweepRule(ctx context.Context, rule *domain.Rule) (*SweepResult, error) {
	if rule == nil {
		return nil, fmt.Errorf("%w: rule is required", domain.ErrValidation)
	}

	strategy, err := strategyFor(rule.TriggerType)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{RuleID: rule.ID}
	if !strategy.volatile {
		return result, nil
	}

	items, err := s.queue.FindPending(ctx, rule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending items for rule %s: %w", rule.ID, err)
	}
	result.Checked = len(items)
	if len(items) == 0 {
		return result, nil
	}

	contactIDs := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ContactID]; ok {
			continue
		}
		seen[item.ContactID] = struct{}{}
		contactIDs = append(contactIDs, item.ContactID)
	}

	contacts, err := s.contacts.GetByIDs(ctx, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts for sweep of rule %s: %w", rule.ID, err)
	}

	var qualified map[string]bool
	if strategy.requalify != nil {
		qualified, err = strategy.requalify(ctx, s.eval, rule, items)
		if err != nil {
			result.Degraded = true
			qualified = nil
			s.logger.Warn("sweep trigger check degraded, keeping items",
				zap.String("ruleId", rule.ID),
				zap.Error(err),
			)
		}
	}

	var stale []string
	for _, item := range items {
		contact, ok := contacts[item.ContactID]
		if !ok || !matchesBasePredicate(&contact, rule) {
			stale = append(stale, item.ID)
			continue
		}
		if qualified != nil && !qualified[item.ID] {
			stale = append(stale, item.ID)
		}
	}

	if len(stale) > 0 {
		removed, err := s.queue.DeleteByIDs(ctx, stale)
		if err != nil {
			return nil, fmt.Errorf("failed to delete stale items for rule %s: %w", rule.ID, err)
		}
		result.Removed = int(removed)
		s.metrics.AddSweepRemoved(rule.ID, result.Removed)
		s.logger.Info("swept stale pending items",
			zap.String("ruleId", rule.ID),
			zap.Int("checked", result.Checked),
			zap.Int("removed", result.Removed),
		)
	}

	return result, nil
}

func matchesBasePredicate(contact *crm.Contact, rule *domain.Rule) bool {
	if len(rule.TargetStages) > 0 {
		matched := false
		for _, stage := range rule.TargetStages {
			if contact.Stage == stage {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return contact.HasAnyRole(rule.TargetRoles)
}
