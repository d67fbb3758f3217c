package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
)

// GroupingCategory selects how pending items are arranged for operator review.
type GroupingCategory string

const (
	GroupTemporal     GroupingCategory = "temporal"
	GroupCategorical  GroupingCategory = "categorical"
	GroupEventPersona GroupingCategory = "event_persona"
	GroupCaseStage    GroupingCategory = "case_stage"
	GroupPersona      GroupingCategory = "persona"
)

type eligibilityFunc func(ctx context.Context, e *Evaluator, rule *domain.Rule, base []crm.Contact, states map[string]domain.CadenceState) ([]Candidate, []string, error)

// requalifyFunc re-checks pending items against the rule's trigger-specific
// condition during a sweep. It returns the set of item ids that still qualify.
// A collaborator failure keeps items in place (sweep never deletes blind).
type requalifyFunc func(ctx context.Context, e *Evaluator, rule *domain.Rule, items []domain.QueueItem) (map[string]bool, error)

// triggerStrategy binds one trigger type to its eligibility, grouping and
// sweep behavior. The table below is the single place a new rule category is
// added; the compiler flags a missing entry through strategyFor's callers.
type triggerStrategy struct {
	eligible eligibilityFunc
	grouping GroupingCategory
	// contextKey names the context entry that scopes the dedup key. Empty
	// means rule+contact identity.
	contextKey string
	// volatile marks rules whose pending items go stale when contact
	// attributes drift; only these are re-checked by the sweep.
	volatile  bool
	requalify requalifyFunc
}

var triggerStrategies = map[domain.TriggerType]triggerStrategy{
	domain.TriggerCadence: {
		eligible: cadenceEligibility,
		grouping: GroupPersona,
		volatile: true,
	},
	domain.TriggerNewBusiness: {
		eligible: cadenceEligibility,
		grouping: GroupCategorical,
		volatile: true,
	},
	domain.TriggerWebinarInvite: {
		eligible:   webinarInviteEligibility,
		grouping:   GroupEventPersona,
		contextKey: domain.ContextWebinarID,
		volatile:   true,
		requalify:  webinarRequalify,
	},
	domain.TriggerWebinarReminder: {
		eligible:   webinarReminderEligibility,
		grouping:   GroupEventPersona,
		contextKey: domain.ContextWebinarID,
		volatile:   true,
		requalify:  webinarRequalify,
	},
	domain.TriggerQuoteFollowup: {
		eligible: quoteFollowupEligibility,
		grouping: GroupPersona,
		volatile: true,
		requalify: func(ctx context.Context, e *Evaluator, rule *domain.Rule, items []domain.QueueItem) (map[string]bool, error) {
			return quoteRequalify(ctx, e, items)
		},
	},
	domain.TriggerCoachingReminder: {
		eligible:   coachingReminderEligibility,
		grouping:   GroupCaseStage,
		contextKey: domain.ContextCaseID,
		volatile:   true,
		requalify:  coachingRequalify,
	},
	domain.TriggerMeetingReminder: {
		eligible:   meetingReminderEligibility,
		grouping:   GroupTemporal,
		contextKey: domain.ContextEventID,
	},
	domain.TriggerRepurchase: {
		eligible: cadenceEligibility,
		grouping: GroupPersona,
		volatile: true,
	},
	domain.TriggerAlumniCheckin: {
		eligible: alumniCheckinEligibility,
		grouping: GroupPersona,
		volatile: true,
	},
}

func strategyFor(trigger domain.TriggerType) (triggerStrategy, error) {
	strategy, ok := triggerStrategies[trigger]
	if !ok {
		return triggerStrategy{}, fmt.Errorf("%w: no strategy for trigger type %q", domain.ErrValidation, trigger)
	}
	return strategy, nil
}

// cadenceEligibility admits every base contact; the generic cadence and
// snooze gates do the rest.
func cadenceEligibility(_ context.Context, _ *Evaluator, _ *domain.Rule, base []crm.Contact, _ map[string]domain.CadenceState) ([]Candidate, []string, error) {
	candidates := make([]Candidate, 0, len(base))
	for _, contact := range base {
		candidates = append(candidates, Candidate{Contact: contact})
	}
	return candidates, nil, nil
}

// webinarInviteEligibility binds each contact with a matching persona to the
// earliest future webinar targeting that persona, and excludes contacts
// already registered to any future webinar.
func webinarInviteEligibility(ctx context.Context, e *Evaluator, rule *domain.Rule, base []crm.Contact, _ map[string]domain.CadenceState) ([]Candidate, []string, error) {
	webinars, err := e.webinars.ListUpcoming(ctx, e.now().UTC())
	if err != nil {
		return e.degraded(rule, "webinar store", err), nil, nil
	}

	sort.Slice(webinars, func(i, j int) bool { return webinars[i].StartsAt.Before(webinars[j].StartsAt) })

	registered := make(map[string]struct{})
	for _, webinar := range webinars {
		for _, email := range webinar.RegistrantEmails {
			registered[normalizeEmail(email)] = struct{}{}
		}
	}

	var candidates []Candidate
	for _, contact := range base {
		if contact.Persona == "" {
			continue
		}
		if _, ok := registered[contact.NormalizedEmail()]; ok {
			continue
		}

		// First match wins: the list is sorted by start date ascending.
		for _, webinar := range webinars {
			if !webinar.TargetsPersona(contact.Persona) {
				continue
			}
			candidates = append(candidates, Candidate{
				Contact: contact,
				Context: webinarContext(webinar, contact.Persona),
			})
			break
		}
	}

	return candidates, nil, nil
}

// webinarReminderEligibility queues one reminder per contact per future
// webinar the contact is registered to.
func webinarReminderEligibility(ctx context.Context, e *Evaluator, rule *domain.Rule, base []crm.Contact, _ map[string]domain.CadenceState) ([]Candidate, []string, error) {
	webinars, err := e.webinars.ListUpcoming(ctx, e.now().UTC())
	if err != nil {
		return e.degraded(rule, "webinar store", err), nil, nil
	}

	byEmail := make(map[string]crm.Contact, len(base))
	for _, contact := range base {
		if email := contact.NormalizedEmail(); email != "" {
			byEmail[email] = contact
		}
	}

	var candidates []Candidate
	for _, webinar := range webinars {
		for _, email := range webinar.RegistrantEmails {
			contact, ok := byEmail[normalizeEmail(email)]
			if !ok {
				continue
			}
			candidates = append(candidates, Candidate{
				Contact: contact,
				Context: webinarContext(webinar, contact.Persona),
			})
		}
	}

	return candidates, nil, nil
}

// quoteFollowupEligibility admits contacts with at least one non-cancelled
// quote whose counterpart email matches the contact's (case-insensitive).
func quoteFollowupEligibility(ctx context.Context, e *Evaluator, rule *domain.Rule, base []crm.Contact, _ map[string]domain.CadenceState) ([]Candidate, []string, error) {
	quoteEmails, err := e.quotes.ActiveQuoteEmails(ctx)
	if err != nil {
		return e.degraded(rule, "quote store", err), nil, nil
	}

	var candidates []Candidate
	for _, contact := range base {
		if _, ok := quoteEmails[contact.NormalizedEmail()]; !ok {
			continue
		}
		candidates = append(candidates, Candidate{Contact: contact})
	}

	return candidates, nil, nil
}

// coachingReminderEligibility admits base contacts (coachees in delivery, per
// rule config) with no calendar event inside the lookahead window that are
// members of an active case. A contact coached across two cases yields one
// candidate per case so case-level grouping stays intact.
func coachingReminderEligibility(ctx context.Context, e *Evaluator, rule *domain.Rule, base []crm.Contact, _ map[string]domain.CadenceState) ([]Candidate, []string, error) {
	lookahead := rule.LookaheadDays
	if lookahead <= 0 {
		lookahead = 60
	}

	now := e.now().UTC()
	events, err := e.calendar.UpcomingEvents(ctx, now, now.AddDate(0, 0, lookahead))
	if err != nil {
		return e.degraded(rule, "calendar", err), nil, nil
	}

	busy := make(map[string]struct{})
	for _, event := range events {
		for _, email := range event.AttendeeEmails {
			busy[normalizeEmail(email)] = struct{}{}
		}
	}

	cases, err := e.cases.ListByStageCodes(ctx, crm.ActiveCaseStageCodes)
	if err != nil {
		return e.degraded(rule, "case store", err), nil, nil
	}

	byID := make(map[string]crm.Contact, len(base))
	for _, contact := range base {
		byID[contact.ID] = contact
	}

	var candidates []Candidate
	for _, coachingCase := range cases {
		for _, contactID := range coachingCase.MemberContactIDs {
			contact, ok := byID[contactID]
			if !ok {
				continue
			}
			if _, hasEvent := busy[contact.NormalizedEmail()]; hasEvent {
				continue
			}
			candidates = append(candidates, Candidate{
				Contact: contact,
				Context: map[string]string{
					domain.ContextCaseID: coachingCase.ID,
					"case_stage":         coachingCase.StageCode,
					"case_name":          coachingCase.Name,
				},
			})
		}
	}

	return candidates, nil, nil
}

// meetingReminderEligibility keeps one entry per contact bound to the nearest
// upcoming event, and selects the follow-up template variant for contacts that
// have been reminded under this rule before.
func meetingReminderEligibility(ctx context.Context, e *Evaluator, rule *domain.Rule, base []crm.Contact, states map[string]domain.CadenceState) ([]Candidate, []string, error) {
	lookahead := rule.LookaheadDays
	if lookahead <= 0 {
		lookahead = 7
	}

	now := e.now().UTC()
	events, err := e.calendar.UpcomingEvents(ctx, now, now.AddDate(0, 0, lookahead))
	if err != nil {
		return e.degraded(rule, "calendar", err), nil, nil
	}

	sort.Slice(events, func(i, j int) bool { return events[i].StartsAt.Before(events[j].StartsAt) })

	nearest := make(map[string]crm.CalendarEvent)
	for _, event := range events {
		for _, email := range event.AttendeeEmails {
			key := normalizeEmail(email)
			if _, ok := nearest[key]; !ok {
				nearest[key] = event
			}
		}
	}

	var candidates []Candidate
	for _, contact := range base {
		event, ok := nearest[contact.NormalizedEmail()]
		if !ok {
			continue
		}

		state := states[contact.ID]
		followup := state.LastContactedAt != nil

		context := map[string]string{
			domain.ContextEventID:   event.ID,
			"event_name":            event.Title,
			domain.ContextEventDate: event.StartsAt.Format("2006-01-02"),
		}
		if event.MeetingLink != "" {
			context["event_link"] = event.MeetingLink
		}
		if followup {
			context[domain.ContextFollowup] = "true"
		}

		candidates = append(candidates, Candidate{
			Contact:  contact,
			Context:  context,
			Followup: followup,
		})
	}

	return candidates, nil, nil
}

// alumniCheckinEligibility admits alumni-role contacts at the repurchase
// stage. Contacts also holding the deal-maker role match the repurchase
// variant too; they are excluded here and surfaced as a dual-match warning
// instead of silently picking a side.
func alumniCheckinEligibility(_ context.Context, _ *Evaluator, _ *domain.Rule, base []crm.Contact, _ map[string]domain.CadenceState) ([]Candidate, []string, error) {
	var candidates []Candidate
	var warnings []string
	for _, contact := range base {
		if contact.HasRole(domain.RoleDealMaker) {
			warnings = append(warnings, fmt.Sprintf(
				"contact %s matches both the repurchase and alumni check-in variants; queued under repurchase only", contact.ID))
			continue
		}
		candidates = append(candidates, Candidate{Contact: contact})
	}
	return candidates, warnings, nil
}

func webinarContext(webinar crm.Webinar, persona string) map[string]string {
	context := map[string]string{
		domain.ContextWebinarID: webinar.ID,
		"event_name":            webinar.Name,
		domain.ContextEventDate: webinar.StartsAt.Format("2006-01-02"),
	}
	if persona != "" {
		context[domain.ContextPersona] = persona
	}
	return context
}

// webinarRequalify keeps items whose bound webinar is still upcoming.
func webinarRequalify(ctx context.Context, e *Evaluator, rule *domain.Rule, items []domain.QueueItem) (map[string]bool, error) {
	webinars, err := e.webinars.ListUpcoming(ctx, e.now().UTC())
	if err != nil {
		return nil, err
	}

	upcoming := make(map[string]struct{}, len(webinars))
	for _, webinar := range webinars {
		upcoming[webinar.ID] = struct{}{}
	}

	qualified := make(map[string]bool, len(items))
	for _, item := range items {
		_, ok := upcoming[item.ContextValue(domain.ContextWebinarID)]
		qualified[item.ID] = ok
	}

	return qualified, nil
}

// quoteRequalify keeps items whose contact still has a live quote.
func quoteRequalify(ctx context.Context, e *Evaluator, items []domain.QueueItem) (map[string]bool, error) {
	quoteEmails, err := e.quotes.ActiveQuoteEmails(ctx)
	if err != nil {
		return nil, err
	}

	contactIDs := make([]string, 0, len(items))
	for _, item := range items {
		contactIDs = append(contactIDs, item.ContactID)
	}
	contacts, err := e.contacts.GetByIDs(ctx, contactIDs)
	if err != nil {
		return nil, err
	}

	qualified := make(map[string]bool, len(items))
	for _, item := range items {
		contact, ok := contacts[item.ContactID]
		if !ok {
			qualified[item.ID] = false
			continue
		}
		_, live := quoteEmails[contact.NormalizedEmail()]
		qualified[item.ID] = live
	}

	return qualified, nil
}

// coachingRequalify keeps items whose bound case is still in an active stage
// with the contact as a member.
func coachingRequalify(ctx context.Context, e *Evaluator, rule *domain.Rule, items []domain.QueueItem) (map[string]bool, error) {
	cases, err := e.cases.ListByStageCodes(ctx, crm.ActiveCaseStageCodes)
	if err != nil {
		return nil, err
	}

	membership := make(map[string]map[string]struct{}, len(cases))
	for _, coachingCase := range cases {
		members := make(map[string]struct{}, len(coachingCase.MemberContactIDs))
		for _, contactID := range coachingCase.MemberContactIDs {
			members[contactID] = struct{}{}
		}
		membership[coachingCase.ID] = members
	}

	qualified := make(map[string]bool, len(items))
	for _, item := range items {
		members, ok := membership[item.ContextValue(domain.ContextCaseID)]
		if !ok {
			qualified[item.ID] = false
			continue
		}
		_, member := members[item.ContactID]
		qualified[item.ID] = member
	}

	return qualified, nil
}

func normalizeEmail(email string) string {
	contact := crm.Contact{Email: email}
	return contact.NormalizedEmail()
}
