package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"go.uber.org/zap"
)

// SnoozeService suppresses a contact under a rule until a given date. Snoozing
// also cancels the contact's pending items for the rule, so already-queued
// messages do not slip past the suppression.
type SnoozeService struct {
	queue   repository.QueueRepository
	cadence repository.CadenceRepository
	rules   repository.RuleRepository
	logger  *zap.Logger
	now     func() time.Time
}

func NewSnoozeService(
	queue repository.QueueRepository,
	cadence repository.CadenceRepository,
	rules repository.RuleRepository,
	logger *zap.Logger,
) (*SnoozeService, error) {
	if queue == nil || cadence == nil || rules == nil {
		return nil, fmt.Errorf("queue, cadence and rule repositories are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SnoozeService{
		queue:   queue,
		cadence: cadence,
		rules:   rules,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Snooze suppresses contactID under ruleID until the given time.
func (s *SnoozeService) Snooze(ctx context.Context, ruleID, contactID string, until time.Time) error {
	if contactID == "" {
		return fmt.Errorf("%w: contact id is required", domain.ErrValidation)
	}
	if !until.After(s.now().UTC()) {
		return fmt.Errorf("%w: snooze-until must be in the future", domain.ErrValidation)
	}
	if _, err := s.rules.Get(ctx, ruleID); err != nil {
		return err
	}

	if err := s.cadence.SetSnoozedUntil(ctx, contactID, ruleID, until.UTC()); err != nil {
		return fmt.Errorf("failed to set snooze for contact %s under rule %s: %w", contactID, ruleID, err)
	}

	cancelled, err := s.queue.CancelOtherPending(ctx, ruleID, contactID, "")
	if err != nil {
		return fmt.Errorf("failed to cancel pending items for snoozed contact %s: %w", contactID, err)
	}

	s.logger.Info("contact snoozed",
		zap.String("ruleId", ruleID),
		zap.String("contactId", contactID),
		zap.Time("until", until.UTC()),
		zap.Int64("cancelledPending", cancelled),
	)
	return nil
}
