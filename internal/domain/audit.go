package domain

import "time"

// AuditEntry records one dispatched outreach message.
type AuditEntry struct {
	ID        string
	RuleID    string
	ContactID string
	Channel   Channel
	Actor     string
	SentAt    time.Time
}
