package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
	"go.uber.org/zap"
)

const unclassifiedKey = "unclassified"

// GroupingService arranges a rule's pending queue into the two-level review
// structure operators see before a batch send. Group counts are recomputed
// from the member items at build time, never carried over.
type GroupingService struct {
	rules    repository.RuleRepository
	queue    repository.QueueRepository
	contacts crm.ContactStore
	logger   *zap.Logger
}

func NewGroupingService(
	rules repository.RuleRepository,
	queue repository.QueueRepository,
	contacts crm.ContactStore,
	logger *zap.Logger,
) (*GroupingService, error) {
	if rules == nil || queue == nil || contacts == nil {
		return nil, fmt.Errorf("rule repository, queue repository and contact store are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GroupingService{
		rules:    rules,
		queue:    queue,
		contacts: contacts,
		logger:   logger,
	}, nil
}

// PendingGroups builds the review structure for one rule's pending items.
func (s *GroupingService) PendingGroups(ctx context.Context, ruleID string) (*domain.PendingGroups, error) {
	rule, err := s.rules.Get(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	strategy, err := strategyFor(rule.TriggerType)
	if err != nil {
		return nil, err
	}

	items, err := s.queue.FindPending(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending items for rule %s: %w", ruleID, err)
	}

	contacts, err := s.lookupContacts(ctx, items)
	if err != nil {
		return nil, err
	}

	var groups []domain.Group
	switch strategy.grouping {
	case GroupTemporal:
		groups = groupTemporal(items)
	case GroupCategorical:
		groups = groupCategorical(items, contacts)
	case GroupEventPersona:
		groups = groupEventPersona(items)
	case GroupCaseStage:
		groups = groupCaseStage(items)
	default:
		groups = groupPersona(items, contacts)
	}

	return &domain.PendingGroups{
		RuleID: ruleID,
		Total:  len(items),
		Groups: groups,
	}, nil
}

func (s *GroupingService) lookupContacts(ctx context.Context, items []domain.QueueItem) (map[string]crm.Contact, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ContactID]; ok {
			continue
		}
		seen[item.ContactID] = struct{}{}
		ids = append(ids, item.ContactID)
	}

	if len(ids) == 0 {
		return map[string]crm.Contact{}, nil
	}

	contacts, err := s.contacts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts for grouping: %w", err)
	}
	return contacts, nil
}

// groupTemporal buckets by event date, soonest first. Items missing a date go
// to a flagged catch-all so the operator sees them instead of losing them.
func groupTemporal(items []domain.QueueItem) []domain.Group {
	byDate := make(map[string][]domain.QueueItem)
	var dateless []domain.QueueItem
	for _, item := range items {
		date := item.ContextValue(domain.ContextEventDate)
		if date == "" {
			dateless = append(dateless, item)
			continue
		}
		byDate[date] = append(byDate[date], item)
	}

	dates := sortedKeys(byDate)

	groups := make([]domain.Group, 0, len(dates)+1)
	for _, date := range dates {
		groups = append(groups, domain.Group{
			Key:   date,
			Label: date,
			Count: len(byDate[date]),
			Items: byDate[date],
		})
	}
	if len(dateless) > 0 {
		groups = append(groups, domain.Group{
			Key:   "no-date",
			Label: "No event date",
			Count: len(dateless),
			Items: dateless,
		})
	}

	return groups
}

// groupCategorical buckets by the contact's business type, alphabetically,
// with a flagged subgroup-free bucket for unclassified contacts.
func groupCategorical(items []domain.QueueItem, contacts map[string]crm.Contact) []domain.Group {
	byType := make(map[string][]domain.QueueItem)
	var unclassified []domain.QueueItem
	for _, item := range items {
		contact, ok := contacts[item.ContactID]
		if !ok || contact.BusinessType == "" {
			unclassified = append(unclassified, item)
			continue
		}
		byType[contact.BusinessType] = append(byType[contact.BusinessType], item)
	}

	types := sortedKeys(byType)

	groups := make([]domain.Group, 0, len(types)+1)
	for _, businessType := range types {
		groups = append(groups, domain.Group{
			Key:   businessType,
			Label: businessType,
			Count: len(byType[businessType]),
			Items: byType[businessType],
		})
	}
	if len(unclassified) > 0 {
		groups = append(groups, domain.Group{
			Key:   unclassifiedKey,
			Label: "Unclassified business type",
			Count: len(unclassified),
			Items: unclassified,
		})
	}

	return groups
}

// groupEventPersona builds one outer group per webinar ordered by start date,
// with inner subgroups per persona. Items without a bound webinar land in a
// trailing catch-all group, and items without a persona in a flagged subgroup.
func groupEventPersona(items []domain.QueueItem) []domain.Group {
	type eventBucket struct {
		label string
		date  string
		items []domain.QueueItem
	}

	byEvent := make(map[string]*eventBucket)
	var eventless []domain.QueueItem
	for _, item := range items {
		webinarID := item.ContextValue(domain.ContextWebinarID)
		if webinarID == "" {
			eventless = append(eventless, item)
			continue
		}
		bucket, ok := byEvent[webinarID]
		if !ok {
			label := item.ContextValue("event_name")
			if label == "" {
				label = webinarID
			}
			bucket = &eventBucket{label: label, date: item.ContextValue(domain.ContextEventDate)}
			byEvent[webinarID] = bucket
		}
		bucket.items = append(bucket.items, item)
	}

	eventIDs := make([]string, 0, len(byEvent))
	for id := range byEvent {
		eventIDs = append(eventIDs, id)
	}
	sort.Slice(eventIDs, func(i, j int) bool {
		a, b := byEvent[eventIDs[i]], byEvent[eventIDs[j]]
		if a.date != b.date {
			return a.date < b.date
		}
		return eventIDs[i] < eventIDs[j]
	})

	groups := make([]domain.Group, 0, len(eventIDs)+1)
	for _, id := range eventIDs {
		bucket := byEvent[id]
		groups = append(groups, domain.Group{
			Key:       id,
			Label:     bucket.label,
			Count:     len(bucket.items),
			Subgroups: personaSubgroups(bucket.items),
		})
	}
	if len(eventless) > 0 {
		groups = append(groups, domain.Group{
			Key:   "no-event",
			Label: "No bound event",
			Count: len(eventless),
			Items: eventless,
		})
	}

	return groups
}

func personaSubgroups(items []domain.QueueItem) []domain.Subgroup {
	byPersona := make(map[string][]domain.QueueItem)
	var unclassified []domain.QueueItem
	for _, item := range items {
		persona := item.ContextValue(domain.ContextPersona)
		if persona == "" {
			unclassified = append(unclassified, item)
			continue
		}
		byPersona[persona] = append(byPersona[persona], item)
	}

	personas := sortedKeys(byPersona)

	subgroups := make([]domain.Subgroup, 0, len(personas)+1)
	for _, persona := range personas {
		subgroups = append(subgroups, domain.Subgroup{
			Key:   persona,
			Label: persona,
			Count: len(byPersona[persona]),
			Items: byPersona[persona],
		})
	}
	if len(unclassified) > 0 {
		subgroups = append(subgroups, domain.Subgroup{
			Key:     unclassifiedKey,
			Label:   "Unclassified persona",
			Flagged: true,
			Count:   len(unclassified),
			Items:   unclassified,
		})
	}

	return subgroups
}

// groupCaseStage builds one outer group per case stage (active cases first)
// with inner subgroups per coaching case.
func groupCaseStage(items []domain.QueueItem) []domain.Group {
	byStage := make(map[string][]domain.QueueItem)
	for _, item := range items {
		stage := item.ContextValue("case_stage")
		if stage == "" {
			stage = unclassifiedKey
		}
		byStage[stage] = append(byStage[stage], item)
	}

	stageOrder := []string{crm.CaseStageInProgress, crm.CaseStageClosedAlumni}
	for _, stage := range sortedKeys(byStage) {
		known := false
		for _, ordered := range stageOrder {
			if stage == ordered {
				known = true
				break
			}
		}
		if !known {
			stageOrder = append(stageOrder, stage)
		}
	}

	var groups []domain.Group
	for _, stage := range stageOrder {
		stageItems, ok := byStage[stage]
		if !ok {
			continue
		}
		groups = append(groups, domain.Group{
			Key:       stage,
			Label:     stage,
			Count:     len(stageItems),
			Subgroups: caseSubgroups(stageItems),
		})
	}

	return groups
}

func caseSubgroups(items []domain.QueueItem) []domain.Subgroup {
	type caseBucket struct {
		label string
		items []domain.QueueItem
	}

	byCase := make(map[string]*caseBucket)
	for _, item := range items {
		caseID := item.ContextValue(domain.ContextCaseID)
		if caseID == "" {
			caseID = unclassifiedKey
		}
		bucket, ok := byCase[caseID]
		if !ok {
			label := item.ContextValue("case_name")
			if label == "" {
				label = caseID
			}
			bucket = &caseBucket{label: label}
			byCase[caseID] = bucket
		}
		bucket.items = append(bucket.items, item)
	}

	caseIDs := make([]string, 0, len(byCase))
	for id := range byCase {
		caseIDs = append(caseIDs, id)
	}
	sort.Strings(caseIDs)

	subgroups := make([]domain.Subgroup, 0, len(caseIDs))
	for _, id := range caseIDs {
		bucket := byCase[id]
		subgroups = append(subgroups, domain.Subgroup{
			Key:     id,
			Label:   bucket.label,
			Flagged: id == unclassifiedKey,
			Count:   len(bucket.items),
			Items:   bucket.items,
		})
	}

	return subgroups
}

// groupPersona buckets by the contact's persona, alphabetically, with a
// flagged bucket for contacts missing one.
func groupPersona(items []domain.QueueItem, contacts map[string]crm.Contact) []domain.Group {
	byPersona := make(map[string][]domain.QueueItem)
	var unclassified []domain.QueueItem
	for _, item := range items {
		persona := item.ContextValue(domain.ContextPersona)
		if persona == "" {
			if contact, ok := contacts[item.ContactID]; ok {
				persona = contact.Persona
			}
		}
		if persona == "" {
			unclassified = append(unclassified, item)
			continue
		}
		byPersona[persona] = append(byPersona[persona], item)
	}

	personas := sortedKeys(byPersona)

	groups := make([]domain.Group, 0, len(personas)+1)
	for _, persona := range personas {
		groups = append(groups, domain.Group{
			Key:   persona,
			Label: persona,
			Count: len(byPersona[persona]),
			Items: byPersona[persona],
		})
	}
	if len(unclassified) > 0 {
		groups = append(groups, domain.Group{
			Key:   unclassifiedKey,
			Label: "No persona",
			Count: len(unclassified),
			Items: unclassified,
		})
	}

	return groups
}

func sortedKeys(m map[string][]domain.QueueItem) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
