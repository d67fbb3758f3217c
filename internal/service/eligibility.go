package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"go.uber.org/zap"
)

// candidateCeiling bounds memory even for "unbounded" eligibility calls.
const candidateCeiling = 50000

// Candidate is one contact the evaluator deemed eligible for a rule, together
// with the collaborator context that made it eligible.
type Candidate struct {
	Contact crm.Contact
	Context map[string]string
	// Followup selects the follow-up template variant (meeting reminders).
	Followup bool
}

// Evaluator computes the candidate contact set for a rule by combining the
// base stage/role predicate, the cadence gate, the trigger-specific
// collaborator joins, and the snooze gate.
type Evaluator struct {
	contacts crm.ContactStore
	quotes   crm.QuoteStore
	webinars crm.WebinarStore
	cases    crm.CaseStore
	calendar crm.CalendarProvider
	cadence  repository.CadenceRepository
	logger   *zap.Logger
	ceiling  int
	now      func() time.Time
}

func NewEvaluator(
	contacts crm.ContactStore,
	quotes crm.QuoteStore,
	webinars crm.WebinarStore,
	cases crm.CaseStore,
	calendar crm.CalendarProvider,
	cadence repository.CadenceRepository,
	ceiling int,
	logger *zap.Logger,
) (*Evaluator, error) {
	if contacts == nil {
		return nil, fmt.Errorf("contact store is required")
	}
	if cadence == nil {
		return nil, fmt.Errorf("cadence repository is required")
	}
	if ceiling <= 0 || ceiling > candidateCeiling {
		ceiling = candidateCeiling
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Evaluator{
		contacts: contacts,
		quotes:   quotes,
		webinars: webinars,
		cases:    cases,
		calendar: calendar,
		cadence:  cadence,
		logger:   logger,
		ceiling:  ceiling,
		now:      time.Now,
	}, nil
}

// FindEligible returns candidates for the rule capped at limit (limit <= 0
// means the configured ceiling). Warnings carry operator-facing notes such as
// dual-variant matches; they are not errors.
func (e *Evaluator) FindEligible(ctx context.Context, rule *domain.Rule, limit int) ([]Candidate, []string, error) {
	if rule == nil {
		return nil, nil, fmt.Errorf("%w: rule is required", domain.ErrValidation)
	}

	strategy, err := strategyFor(rule.TriggerType)
	if err != nil {
		return nil, nil, err
	}

	maxCandidates := e.ceiling
	if limit > 0 && limit < maxCandidates {
		maxCandidates = limit
	}

	base, err := e.contacts.ListByStageRoles(ctx, rule.TargetStages, rule.TargetRoles, e.ceiling)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load base contacts for rule %s: %w", rule.ID, err)
	}

	states, err := e.cadence.StatesForRule(ctx, rule.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cadence states for rule %s: %w", rule.ID, err)
	}

	raw, warnings, err := strategy.eligible(ctx, e, rule, base, states)
	if err != nil {
		return nil, nil, err
	}

	now := e.now().UTC()
	candidates := make([]Candidate, 0, len(raw))
	for _, cand := range raw {
		state, ok := states[cand.Contact.ID]
		var statePtr *domain.CadenceState
		if ok {
			statePtr = &state
		}

		if rule.CadenceGated() && !statePtr.Contactable(rule.CadenceDays, now) {
			continue
		}
		if statePtr.Snoozed(now) {
			continue
		}

		candidates = append(candidates, cand)
		if len(candidates) >= maxCandidates {
			break
		}
	}

	return candidates, warnings, nil
}

// degraded logs a collaborator failure and reports that the rule's
// event-dependent branch contributes zero candidates. The generation run
// continues with the remaining rules.
func (e *Evaluator) degraded(rule *domain.Rule, collaborator string, err error) []Candidate {
	e.logger.Warn("collaborator unavailable, rule degraded to zero candidates",
		zap.String("ruleId", rule.ID),
		zap.String("collaborator", collaborator),
		zap.Error(err),
	)
	return nil
}
