package crm

import (
	"context"
	"strings"
	"time"
)

// ContactStore queries CRM contacts by pipeline stage and role membership.
type ContactStore interface {
	// ListByStageRoles returns contacts matching any of stages and holding any
	// of roles. Empty stages/roles mean no filter on that axis. limit caps the
	// result set; limit <= 0 means unbounded (callers apply their own ceiling).
	ListByStageRoles(ctx context.Context, stages []int, roles []string, limit int) ([]Contact, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]Contact, error)
	Get(ctx context.Context, id string) (*Contact, error)
}

// QuoteStore exposes the quote collaborator at the join boundary the engine
// needs: the set of client emails with at least one non-cancelled quote.
type QuoteStore interface {
	ActiveQuoteEmails(ctx context.Context) (map[string]struct{}, error)
}

// Webinar is a future event with persona targeting and a registrant list.
type Webinar struct {
	ID               string
	Name             string
	StartsAt         time.Time
	TargetPersonas   []string
	RegistrantEmails []string
}

// TargetsPersona reports whether the webinar targets persona (case-insensitive).
func (w *Webinar) TargetsPersona(persona string) bool {
	for _, p := range w.TargetPersonas {
		if strings.EqualFold(strings.TrimSpace(p), strings.TrimSpace(persona)) {
			return true
		}
	}
	return false
}

// WebinarStore lists future webinars with target-persona metadata.
type WebinarStore interface {
	ListUpcoming(ctx context.Context, now time.Time) ([]Webinar, error)
}

// Coaching case stage codes consulted by coaching-reminder rules.
const (
	CaseStageInProgress   = "in_progress"
	CaseStageClosedAlumni = "closed_alumni"
)

// ActiveCaseStageCodes is the fixed set of stage codes that keep a case in
// scope for coaching reminders.
var ActiveCaseStageCodes = []string{CaseStageInProgress, CaseStageClosedAlumni}

// CoachingCase is an active coaching engagement with member contacts.
type CoachingCase struct {
	ID               string
	Name             string
	StageCode        string
	MemberContactIDs []string
}

// CaseStore lists coaching cases by stage code.
type CaseStore interface {
	ListByStageCodes(ctx context.Context, codes []string) ([]CoachingCase, error)
}

// CalendarEvent is an upcoming calendar entry with attendee emails. Events the
// operator declined are filtered out by the provider implementation.
type CalendarEvent struct {
	ID             string
	Title          string
	StartsAt       time.Time
	MeetingLink    string
	AttendeeEmails []string
}

// CalendarProvider lists calendar events inside a forward time window.
type CalendarProvider interface {
	UpcomingEvents(ctx context.Context, from, to time.Time) ([]CalendarEvent, error)
}
