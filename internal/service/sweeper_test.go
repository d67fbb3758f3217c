package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"go.uber.org/zap"
)

func newSweeper(t *testing.T, queue *fakeQueueRepo, contacts *fakeContactStore, webinars *fakeWebinarStore, cases *fakeCaseStore) *SweeperService {
	t.Helper()

	eval := newTestEvaluator(contacts, &fakeQuoteStore{}, webinars, cases, &fakeCalendar{}, &fakeCadenceRepo{}, testNow)
	sweeper, err := NewSweeperService(queue, contacts, eval, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSweeperService() error = %v", err)
	}
	return sweeper
}

func TestSweepRemovesContactsOutsideBasePredicate(t *testing.T) {
	t.Parallel()

	var deleted []string
	queue := &fakeQueueRepo{
		findPendingFn: func(ctx context.Context, ruleID string) ([]domain.QueueItem, error) {
			return []domain.QueueItem{
				{ID: "item-keep", RuleID: ruleID, ContactID: "c-still", Status: domain.ItemPending},
				{ID: "item-moved", RuleID: ruleID, ContactID: "c-moved", Status: domain.ItemPending},
				{ID: "item-gone", RuleID: ruleID, ContactID: "c-gone", Status: domain.ItemPending},
			}, nil
		},
		deleteByIDsFn: func(ctx context.Context, ids []string) (int64, error) {
			deleted = ids
			return int64(len(ids)), nil
		},
	}
	contacts := &fakeContactStore{
		getByIDsFn: func(ctx context.Context, ids []string) (map[string]crm.Contact, error) {
			return map[string]crm.Contact{
				"c-still": {ID: "c-still", Stage: domain.StageNurture},
				"c-moved": {ID: "c-moved", Stage: domain.StageDelivery},
			}, nil
		},
	}

	sweeper := newSweeper(t, queue, contacts, &fakeWebinarStore{}, &fakeCaseStore{})

	result, err := sweeper.SweepRule(context.Background(), cadenceRule(30))
	if err != nil {
		t.Fatalf("SweepRule() error = %v", err)
	}
	if result.Checked != 3 || result.Removed != 2 {
		t.Fatalf("checked=%d removed=%d, want 3/2", result.Checked, result.Removed)
	}

	removedSet := map[string]bool{}
	for _, id := range deleted {
		removedSet[id] = true
	}
	if !removedSet["item-moved"] || !removedSet["item-gone"] || removedSet["item-keep"] {
		t.Fatalf("deleted = %v, want item-moved and item-gone only", deleted)
	}
}

func TestSweepRemovesItemsForPastWebinars(t *testing.T) {
	t.Parallel()

	var deleted []string
	queue := &fakeQueueRepo{
		findPendingFn: func(ctx context.Context, ruleID string) ([]domain.QueueItem, error) {
			return []domain.QueueItem{
				{ID: "item-live", RuleID: ruleID, ContactID: "c-1", Status: domain.ItemPending,
					Context: map[string]string{domain.ContextWebinarID: "web-live"}},
				{ID: "item-past", RuleID: ruleID, ContactID: "c-1", Status: domain.ItemPending,
					Context: map[string]string{domain.ContextWebinarID: "web-past"}},
			}, nil
		},
		deleteByIDsFn: func(ctx context.Context, ids []string) (int64, error) {
			deleted = ids
			return int64(len(ids)), nil
		},
	}
	contacts := &fakeContactStore{
		getByIDsFn: func(ctx context.Context, ids []string) (map[string]crm.Contact, error) {
			return map[string]crm.Contact{"c-1": {ID: "c-1"}}, nil
		},
	}
	webinars := &fakeWebinarStore{
		listUpcomingFn: func(ctx context.Context, now time.Time) ([]crm.Webinar, error) {
			return []crm.Webinar{{ID: "web-live", StartsAt: testNow.AddDate(0, 0, 3)}}, nil
		},
	}

	sweeper := newSweeper(t, queue, contacts, webinars, &fakeCaseStore{})

	rule := &domain.Rule{ID: "E08", Channel: domain.ChannelEmail, TriggerType: domain.TriggerWebinarReminder, Enabled: true}
	result, err := sweeper.SweepRule(context.Background(), rule)
	if err != nil {
		t.Fatalf("SweepRule() error = %v", err)
	}
	if result.Removed != 1 || len(deleted) != 1 || deleted[0] != "item-past" {
		t.Fatalf("deleted = %v, want only item-past", deleted)
	}
}

func TestSweepRemovesItemsForClosedCoachingCases(t *testing.T) {
	t.Parallel()

	var deleted []string
	queue := &fakeQueueRepo{
		findPendingFn: func(ctx context.Context, ruleID string) ([]domain.QueueItem, error) {
			return []domain.QueueItem{
				{ID: "item-case-a", RuleID: ruleID, ContactID: "c-1", Status: domain.ItemPending,
					Context: map[string]string{domain.ContextCaseID: "case-a"}},
				{ID: "item-case-b", RuleID: ruleID, ContactID: "c-1", Status: domain.ItemPending,
					Context: map[string]string{domain.ContextCaseID: "case-b"}},
			}, nil
		},
		deleteByIDsFn: func(ctx context.Context, ids []string) (int64, error) {
			deleted = ids
			return int64(len(ids)), nil
		},
	}
	contacts := &fakeContactStore{
		getByIDsFn: func(ctx context.Context, ids []string) (map[string]crm.Contact, error) {
			return map[string]crm.Contact{
				"c-1": {ID: "c-1", Stage: domain.StageDelivery, Roles: []string{domain.RoleCoachee}},
			}, nil
		},
	}
	cases := &fakeCaseStore{
		listByStageCodesFn: func(ctx context.Context, codes []string) ([]crm.CoachingCase, error) {
			return []crm.CoachingCase{
				{ID: "case-a", Name: "Acme Coaching", StageCode: "in_progress", MemberContactIDs: []string{"c-1"}},
			}, nil
		},
	}

	sweeper := newSweeper(t, queue, contacts, &fakeWebinarStore{}, cases)

	rule := &domain.Rule{
		ID:           "W12",
		Channel:      domain.ChannelWhatsApp,
		TriggerType:  domain.TriggerCoachingReminder,
		TargetStages: []int{domain.StageDelivery},
		TargetRoles:  []string{domain.RoleCoachee},
		Enabled:      true,
	}
	result, err := sweeper.SweepRule(context.Background(), rule)
	if err != nil {
		t.Fatalf("SweepRule() error = %v", err)
	}
	if result.Checked != 2 || result.Removed != 1 {
		t.Fatalf("checked=%d removed=%d, want 2/1", result.Checked, result.Removed)
	}
	if len(deleted) != 1 || deleted[0] != "item-case-b" {
		t.Fatalf("deleted = %v, want only the item bound to the gone case", deleted)
	}
}

func TestSweepRemovesItemsForDroppedCaseMembers(t *testing.T) {
	t.Parallel()

	var deleted []string
	queue := &fakeQueueRepo{
		findPendingFn: func(ctx context.Context, ruleID string) ([]domain.QueueItem, error) {
			return []domain.QueueItem{
				{ID: "item-member", RuleID: ruleID, ContactID: "c-in", Status: domain.ItemPending,
					Context: map[string]string{domain.ContextCaseID: "case-a"}},
				{ID: "item-left", RuleID: ruleID, ContactID: "c-out", Status: domain.ItemPending,
					Context: map[string]string{domain.ContextCaseID: "case-a"}},
			}, nil
		},
		deleteByIDsFn: func(ctx context.Context, ids []string) (int64, error) {
			deleted = ids
			return int64(len(ids)), nil
		},
	}
	contacts := &fakeContactStore{
		getByIDsFn: func(ctx context.Context, ids []string) (map[string]crm.Contact, error) {
			return map[string]crm.Contact{
				"c-in":  {ID: "c-in", Stage: domain.StageDelivery, Roles: []string{domain.RoleCoachee}},
				"c-out": {ID: "c-out", Stage: domain.StageDelivery, Roles: []string{domain.RoleCoachee}},
			}, nil
		},
	}
	cases := &fakeCaseStore{
		listByStageCodesFn: func(ctx context.Context, codes []string) ([]crm.CoachingCase, error) {
			return []crm.CoachingCase{
				{ID: "case-a", Name: "Acme Coaching", StageCode: "in_progress", MemberContactIDs: []string{"c-in"}},
			}, nil
		},
	}

	sweeper := newSweeper(t, queue, contacts, &fakeWebinarStore{}, cases)

	rule := &domain.Rule{
		ID:           "W12",
		Channel:      domain.ChannelWhatsApp,
		TriggerType:  domain.TriggerCoachingReminder,
		TargetStages: []int{domain.StageDelivery},
		TargetRoles:  []string{domain.RoleCoachee},
		Enabled:      true,
	}
	result, err := sweeper.SweepRule(context.Background(), rule)
	if err != nil {
		t.Fatalf("SweepRule() error = %v", err)
	}
	if result.Removed != 1 || len(deleted) != 1 || deleted[0] != "item-left" {
		t.Fatalf("deleted = %v, want only the item for the contact no longer on the case", deleted)
	}
}

func TestSweepCollaboratorFailureKeepsItems(t *testing.T) {
	t.Parallel()

	queue := &fakeQueueRepo{
		findPendingFn: func(ctx context.Context, ruleID string) ([]domain.QueueItem, error) {
			return []domain.QueueItem{
				{ID: "item-1", RuleID: ruleID, ContactID: "c-1", Status: domain.ItemPending,
					Context: map[string]string{domain.ContextWebinarID: "web-1"}},
			}, nil
		},
		deleteByIDsFn: func(ctx context.Context, ids []string) (int64, error) {
			t.Fatalf("delete called with %v, a degraded sweep must keep items", ids)
			return 0, nil
		},
	}
	contacts := &fakeContactStore{
		getByIDsFn: func(ctx context.Context, ids []string) (map[string]crm.Contact, error) {
			return map[string]crm.Contact{"c-1": {ID: "c-1"}}, nil
		},
	}
	webinars := &fakeWebinarStore{
		listUpcomingFn: func(ctx context.Context, now time.Time) ([]crm.Webinar, error) {
			return nil, errors.New("webinar service down")
		},
	}

	sweeper := newSweeper(t, queue, contacts, webinars, &fakeCaseStore{})

	rule := &domain.Rule{ID: "E08", Channel: domain.ChannelEmail, TriggerType: domain.TriggerWebinarReminder, Enabled: true}
	result, err := sweeper.SweepRule(context.Background(), rule)
	if err != nil {
		t.Fatalf("SweepRule() error = %v", err)
	}
	if !result.Degraded || result.Removed != 0 {
		t.Fatalf("result = %+v, want degraded sweep with nothing removed", result)
	}
}

func TestSweepSkipsNonVolatileRules(t *testing.T) {
	t.Parallel()

	queue := &fakeQueueRepo{
		findPendingFn: func(ctx context.Context, ruleID string) ([]domain.QueueItem, error) {
			t.Fatal("non-volatile rules must not be scanned")
			return nil, nil
		},
	}

	sweeper := newSweeper(t, queue, &fakeContactStore{}, &fakeWebinarStore{}, &fakeCaseStore{})

	rule := &domain.Rule{ID: "E09", Channel: domain.ChannelEmail, TriggerType: domain.TriggerMeetingReminder, Enabled: true}
	result, err := sweeper.SweepRule(context.Background(), rule)
	if err != nil {
		t.Fatalf("SweepRule() error = %v", err)
	}
	if result.Checked != 0 || result.Removed != 0 {
		t.Fatalf("result = %+v, want untouched", result)
	}
}
