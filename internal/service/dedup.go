package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/gdbetancourt/outreach-engine/internal/repository"
)

// DedupGuard suppresses duplicate queueing for a single rule scan. It preloads
// the rule's pending keys and today's sent keys once, so filtering a candidate
// list is pure set lookups and never re-queues a contact already covered.
type DedupGuard struct {
	ruleID     string
	contextKey string
	seen       map[string]struct{}
}

// NewDedupGuard loads the dedup index for one rule. "Sent today" uses UTC
// midnight so a contact dispatched this morning is not re-queued by an
// afternoon run.
func NewDedupGuard(ctx context.Context, queue repository.QueueRepository, rule *domain.Rule, now time.Time) (*DedupGuard, error) {
	strategy, err := strategyFor(rule.TriggerType)
	if err != nil {
		return nil, err
	}

	pending, err := queue.PendingKeys(ctx, rule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending keys for rule %s: %w", rule.ID, err)
	}

	midnight := now.UTC().Truncate(24 * time.Hour)
	sent, err := queue.SentKeysSince(ctx, rule.ID, midnight)
	if err != nil {
		return nil, fmt.Errorf("failed to load sent keys for rule %s: %w", rule.ID, err)
	}

	seen := make(map[string]struct{}, len(pending)+len(sent))
	for key := range pending {
		seen[key] = struct{}{}
	}
	for key := range sent {
		seen[key] = struct{}{}
	}

	return &DedupGuard{
		ruleID:     rule.ID,
		contextKey: strategy.contextKey,
		seen:       seen,
	}, nil
}

// KeyFor derives the dedup key for a candidate under the guard's rule.
func (g *DedupGuard) KeyFor(candidate Candidate) string {
	contextID := ""
	if g.contextKey != "" && candidate.Context != nil {
		contextID = candidate.Context[g.contextKey]
	}
	return domain.DedupKey(g.ruleID, candidate.Contact.ID, contextID)
}

// Admit reports whether the key is new and records it, so duplicates within
// the same candidate list are also suppressed.
func (g *DedupGuard) Admit(key string) bool {
	if _, ok := g.seen[key]; ok {
		return false
	}
	g.seen[key] = struct{}{}
	return true
}

// Filter returns the candidates that pass the dedup index together with the
// number it skipped.
func (g *DedupGuard) Filter(candidates []Candidate) ([]Candidate, int) {
	admitted := make([]Candidate, 0, len(candidates))
	skipped := 0
	for _, candidate := range candidates {
		if !g.Admit(g.KeyFor(candidate)) {
			skipped++
			continue
		}
		admitted = append(admitted, candidate)
	}
	return admitted, skipped
}
