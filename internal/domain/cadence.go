package domain

import "time"

// CadenceState is the per-contact, per-rule bookkeeping record. LastContactedAt
// is written only by the dispatch path, never by the evaluator. SnoozedUntil is
// written by an explicit operator action and becomes inert once in the past.
type CadenceState struct {
	ContactID       string
	RuleID          string
	LastContactedAt *time.Time
	SnoozedUntil    *time.Time
}

// Contactable reports whether the cadence gate is open at now for a rule with
// the given cadence. A missing last-contact timestamp always passes.
func (s *CadenceState) Contactable(cadenceDays int, now time.Time) bool {
	if s == nil || s.LastContactedAt == nil {
		return true
	}
	return s.LastContactedAt.Before(now.AddDate(0, 0, -cadenceDays))
}

// Snoozed reports whether the contact is suppressed for the rule at now.
func (s *CadenceState) Snoozed(now time.Time) bool {
	if s == nil || s.SnoozedUntil == nil {
		return false
	}
	return s.SnoozedUntil.After(now)
}
