package domain

// Subgroup is the inner bucket of the review structure. Flagged marks buckets
// the operator must look at (unclassified persona, missing data).
type Subgroup struct {
	Key     string
	Label   string
	Flagged bool
	Count   int
	Items   []QueueItem
}

// Group is the outer bucket of the two-level review structure presented to the
// operator before batch send. Count always equals the number of member items,
// recomputed at build time.
type Group struct {
	Key       string
	Label     string
	Count     int
	Items     []QueueItem
	Subgroups []Subgroup
}

// PendingGroups is the full review structure for one rule.
type PendingGroups struct {
	RuleID string
	Total  int
	Groups []Group
}
