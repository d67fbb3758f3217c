package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/events"
	"github.com/gdbetancourt/outreach-engine/internal/observability"
	"github.com/gdbetancourt/outreach-engine/internal/provider"
	"github.com/gdbetancourt/outreach-engine/internal/ratelimit"
	"github.com/gdbetancourt/outreach-engine/internal/render"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"go.uber.org/zap"
)

// DispatchOutcome reports what happened to a single item in a batch send.
type DispatchOutcome struct {
	ItemID   string `json:"itemId"`
	Sent     bool   `json:"sent"`
	Error    string `json:"error,omitempty"`
	DeepLink string `json:"deepLink,omitempty"`
}

// BatchDispatchResult summarizes a batch send. Failures never abort the batch;
// each failed item stays PENDING for a later retry.
type BatchDispatchResult struct {
	RuleID   string            `json:"ruleId"`
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Outcomes []DispatchOutcome `json:"outcomes"`
}

// DispatchService sends approved queue items through the channel transports
// and records the full dispatch side effects: item transition, cadence
// bookkeeping, audit trail, duplicate repair, and the broker event.
type DispatchService struct {
	rules      repository.RuleRepository
	queue      repository.QueueRepository
	cadence    repository.CadenceRepository
	audit      repository.AuditRepository
	contacts   crm.ContactStore
	transports map[domain.Channel]provider.Transport
	renderer   render.Renderer
	limiter    ratelimit.RateLimiter
	publisher  events.Publisher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewDispatchService(
	rules repository.RuleRepository,
	queue repository.QueueRepository,
	cadence repository.CadenceRepository,
	audit repository.AuditRepository,
	contacts crm.ContactStore,
	transports map[domain.Channel]provider.Transport,
	renderer render.Renderer,
	limiter ratelimit.RateLimiter,
	publisher events.Publisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*DispatchService, error) {
	if rules == nil || queue == nil || cadence == nil || audit == nil {
		return nil, fmt.Errorf("rule, queue, cadence and audit repositories are required")
	}
	if contacts == nil {
		return nil, fmt.Errorf("contact store is required")
	}
	if len(transports) == 0 {
		return nil, fmt.Errorf("at least one channel transport is required")
	}
	if renderer == nil {
		renderer = render.NewPlaceholderRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatchService{
		rules:      rules,
		queue:      queue,
		cadence:    cadence,
		audit:      audit,
		contacts:   contacts,
		transports: transports,
		renderer:   renderer,
		limiter:    limiter,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// DispatchItems sends the selected items of one rule. Item ids not belonging
// to the rule, or no longer pending, fail individually without touching the
// rest of the batch.
func (s *DispatchService) DispatchItems(ctx context.Context, ruleID, actor string, itemIDs []string) (*BatchDispatchResult, error) {
	rule, err := s.rules.Get(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one item id is required", domain.ErrValidation)
	}

	result := &BatchDispatchResult{RuleID: ruleID, Outcomes: make([]DispatchOutcome, 0, len(itemIDs))}
	for _, itemID := range itemIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome := s.dispatchOne(ctx, rule, actor, itemID)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Sent {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	s.logger.Info("batch dispatch finished",
		zap.String("ruleId", ruleID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// DispatchRule sends every pending item of the rule.
func (s *DispatchService) DispatchRule(ctx context.Context, ruleID, actor string) (*BatchDispatchResult, error) {
	items, err := s.queue.FindPending(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending items for rule %s: %w", ruleID, err)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	if len(ids) == 0 {
		return &BatchDispatchResult{RuleID: ruleID}, nil
	}

	return s.DispatchItems(ctx, ruleID, actor, ids)
}

func (s *DispatchService) dispatchOne(ctx context.Context, rule *domain.Rule, actor, itemID string) DispatchOutcome {
	outcome := DispatchOutcome{ItemID: itemID}

	fail := func(reason string, err error) DispatchOutcome {
		outcome.Error = err.Error()
		s.metrics.IncDispatchFailed(rule.Channel.String(), reason)
		s.logger.Warn("dispatch failed",
			zap.String("ruleId", rule.ID),
			zap.String("itemId", itemID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return outcome
	}

	item, err := s.queue.GetByID(ctx, itemID)
	if err != nil {
		return fail("load", err)
	}
	if item.RuleID != rule.ID {
		return fail("load", fmt.Errorf("%w: item %s does not belong to rule %s", domain.ErrValidation, itemID, rule.ID))
	}
	if item.Status != domain.ItemPending {
		return fail("not_pending", fmt.Errorf("%w: item %s is %s", domain.ErrConflict, itemID, item.Status))
	}

	contact, err := s.contacts.Get(ctx, item.ContactID)
	if err != nil {
		return fail("contact", fmt.Errorf("failed to load contact %s: %w", item.ContactID, err))
	}

	message, err := s.renderer.Render(rule.Template, dispatchVariables(contact, item), item.ContextValue(domain.ContextFollowup) == "true")
	if err != nil {
		return fail("render", err)
	}

	transport, ok := s.transports[rule.Channel]
	if !ok {
		return fail("channel", fmt.Errorf("no transport configured for channel %s", rule.Channel))
	}

	recipient := contact.Email
	if rule.Channel == domain.ChannelWhatsApp {
		recipient = contact.Phone
	}
	if recipient == "" {
		return fail("recipient", fmt.Errorf("%w: contact %s has no %s recipient", domain.ErrValidation, contact.ID, rule.Channel))
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, rule.Channel.String()); err != nil {
			return fail("ratelimit", err)
		}
	}

	start := s.now()
	receipt, err := transport.Send(ctx, provider.OutboundMessage{
		Channel:   rule.Channel,
		Recipient: recipient,
		Subject:   message.Subject,
		Body:      message.Body,
	})
	s.metrics.ObserveDispatchSendDuration(rule.Channel.String(), s.now().Sub(start))
	if err != nil {
		reason := "send_permanent"
		if provider.IsTransient(err) {
			reason = "send_transient"
		}
		return fail(reason, err)
	}

	sentAt := s.now().UTC()
	if err := s.queue.MarkSent(ctx, item.ID, sentAt); err != nil {
		return fail("persist", err)
	}

	// Side effects past this point do not undo the send; they are logged and
	// the item still counts as dispatched.
	if err := s.cadence.SetLastContacted(ctx, item.ContactID, rule.ID, sentAt); err != nil {
		s.logger.Error("failed to record last contact",
			zap.String("itemId", item.ID), zap.Error(err))
	}

	if err := s.audit.Create(ctx, &domain.AuditEntry{
		RuleID:    rule.ID,
		ContactID: item.ContactID,
		Channel:   rule.Channel,
		Actor:     actor,
		SentAt:    sentAt,
	}); err != nil {
		s.logger.Error("failed to write audit entry",
			zap.String("itemId", item.ID), zap.Error(err))
	}

	if cancelled, err := s.queue.CancelOtherPending(ctx, rule.ID, item.ContactID, item.ID); err != nil {
		s.logger.Error("failed to cancel duplicate pending items",
			zap.String("itemId", item.ID), zap.Error(err))
	} else if cancelled > 0 {
		s.logger.Info("cancelled duplicate pending items",
			zap.String("itemId", item.ID), zap.Int64("cancelled", cancelled))
	}

	if s.publisher != nil {
		if err := s.publisher.PublishDispatched(ctx, events.DispatchedEvent{
			ItemID:     item.ID,
			RuleID:     rule.ID,
			ContactID:  item.ContactID,
			Channel:    rule.Channel,
			Actor:      actor,
			DispatchAt: sentAt,
		}); err != nil {
			s.logger.Error("failed to publish dispatched event",
				zap.String("itemId", item.ID), zap.Error(err))
		}
	}

	s.metrics.IncDispatchSent(rule.Channel.String())
	outcome.Sent = true
	if receipt != nil {
		outcome.DeepLink = receipt.DeepLink
	}
	return outcome
}

// CancelItem marks one pending item cancelled without dispatching it.
func (s *DispatchService) CancelItem(ctx context.Context, itemID string) error {
	if itemID == "" {
		return fmt.Errorf("%w: item id is required", domain.ErrValidation)
	}
	return s.queue.MarkCancelled(ctx, itemID)
}

// dispatchVariables merges the contact's standard fields with the item's
// collaborator context. The followup marker is internal and never rendered.
func dispatchVariables(contact *crm.Contact, item *domain.QueueItem) map[string]string {
	vars := map[string]string{
		"first_name": contact.FirstName,
		"last_name":  contact.LastName,
		"full_name":  contact.FullName(),
		"company":    contact.Company,
	}
	for key, value := range item.Context {
		if key == domain.ContextFollowup {
			continue
		}
		vars[key] = value
	}
	return vars
}
