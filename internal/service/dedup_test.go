package service

import (
	"context"
	"testing"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
)

func TestDedupGuardSuppressesPendingAndSentToday(t *testing.T) {
	t.Parallel()

	queue := &fakeQueueRepo{
		pendingKeysFn: func(ctx context.Context, ruleID string) (map[string]struct{}, error) {
			return map[string]struct{}{"E06:c-pending": {}}, nil
		},
		sentKeysSinceFn: func(ctx context.Context, ruleID string, since time.Time) (map[string]struct{}, error) {
			wantMidnight := testNow.Truncate(24 * time.Hour)
			if !since.Equal(wantMidnight) {
				t.Fatalf("sent-since = %v, want UTC midnight %v", since, wantMidnight)
			}
			return map[string]struct{}{"E06:c-sent": {}}, nil
		},
	}

	guard, err := NewDedupGuard(context.Background(), queue, cadenceRule(30), testNow)
	if err != nil {
		t.Fatalf("NewDedupGuard() error = %v", err)
	}

	candidates := []Candidate{
		{Contact: crm.Contact{ID: "c-pending"}},
		{Contact: crm.Contact{ID: "c-sent"}},
		{Contact: crm.Contact{ID: "c-new"}},
		{Contact: crm.Contact{ID: "c-new"}},
	}

	admitted, skipped := guard.Filter(candidates)
	if len(admitted) != 1 || admitted[0].Contact.ID != "c-new" {
		t.Fatalf("admitted = %v, want only first c-new", admitted)
	}
	if skipped != 3 {
		t.Fatalf("skipped = %d, want 3 (pending, sent today, in-batch duplicate)", skipped)
	}
}

func TestDedupGuardContextBoundKey(t *testing.T) {
	t.Parallel()

	rule := &domain.Rule{ID: "E08", Channel: domain.ChannelEmail, TriggerType: domain.TriggerWebinarReminder, Enabled: true}
	guard, err := NewDedupGuard(context.Background(), &fakeQueueRepo{}, rule, testNow)
	if err != nil {
		t.Fatalf("NewDedupGuard() error = %v", err)
	}

	first := Candidate{Contact: crm.Contact{ID: "c-1"}, Context: map[string]string{domain.ContextWebinarID: "web-a"}}
	second := Candidate{Contact: crm.Contact{ID: "c-1"}, Context: map[string]string{domain.ContextWebinarID: "web-b"}}

	admitted, skipped := guard.Filter([]Candidate{first, second})
	if len(admitted) != 2 || skipped != 0 {
		t.Fatalf("admitted = %d skipped = %d, want distinct webinars to both pass", len(admitted), skipped)
	}
	if guard.KeyFor(first) == guard.KeyFor(second) {
		t.Fatal("distinct webinars must produce distinct dedup keys")
	}
}
