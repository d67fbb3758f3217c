package domain

import (
	"fmt"
	"strings"
	"time"
)

// ItemStatus represents the lifecycle state of a queued outreach item.
type ItemStatus string

const (
	ItemPending   ItemStatus = "PENDING"
	ItemSent      ItemStatus = "SENT"
	ItemCancelled ItemStatus = "CANCELLED"
)

func (s ItemStatus) String() string { return string(s) }

func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemPending, ItemSent, ItemCancelled:
		return true
	}
	return false
}

// Context keys carried on queue items bound to a collaborator entity.
const (
	ContextWebinarID = "webinar_id"
	ContextEventID   = "event_id"
	ContextCaseID    = "case_id"
	ContextPersona   = "persona"
	ContextEventDate = "event_date"
	ContextFollowup  = "followup"
)

// QueueItem is one pending (or dispatched) outbound message for one contact
// under one rule. For a given dedup key at most one row is PENDING.
type QueueItem struct {
	ID          string
	RuleID      string
	ContactID   string
	Channel     Channel
	Status      ItemStatus
	DedupKey    string
	Context     map[string]string
	ScheduledAt time.Time
	SentAt      *time.Time
	CreatedAt   time.Time
}

func (i *QueueItem) Validate() error {
	if strings.TrimSpace(i.RuleID) == "" {
		return fmt.Errorf("%w: rule id is required", ErrValidation)
	}
	if strings.TrimSpace(i.ContactID) == "" {
		return fmt.Errorf("%w: contact id is required", ErrValidation)
	}
	if !i.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, i.Channel)
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("%w: invalid item status %q", ErrValidation, i.Status)
	}
	if strings.TrimSpace(i.DedupKey) == "" {
		return fmt.Errorf("%w: dedup key is required", ErrValidation)
	}
	return nil
}

// ContextValue returns the context entry for key, or "" when absent.
func (i *QueueItem) ContextValue(key string) string {
	if i == nil || i.Context == nil {
		return ""
	}
	return i.Context[key]
}

// DedupKey derives the identity used to prevent duplicate pending items.
// Cadence-gated rules key on rule+contact; context-bound rules additionally key
// on the bound entity so one item per distinct upcoming event is legitimate.
func DedupKey(ruleID, contactID, contextID string) string {
	if strings.TrimSpace(contextID) == "" {
		return fmt.Sprintf("%s:%s", ruleID, contactID)
	}
	return fmt.Sprintf("%s:%s:%s", ruleID, contactID, contextID)
}
