package domain

import "time"

// JobState represents the lifecycle state of a generation job.
type JobState string

const (
	JobRunning   JobState = "RUNNING"
	JobCompleted JobState = "COMPLETED"
	JobFailed    JobState = "FAILED"
	JobCancelled JobState = "CANCELLED"
)

func (s JobState) String() string { return string(s) }

func (s JobState) IsValid() bool {
	switch s {
	case JobRunning, JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// RuleResult summarizes one rule's outcome within a generation job. Skipped
// counts dedup suppressions, which are not errors.
type RuleResult struct {
	Eligible int      `json:"eligible"`
	Queued   int      `json:"queued"`
	Skipped  int      `json:"skipped"`
	Errors   int      `json:"errors"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// JobStatus is the persisted progress document for a "generate" run. At most
// one RUNNING job exists system-wide, enforced by a partial unique index.
type JobStatus struct {
	ID                    string
	Status                JobState
	RulesToProcess        []string
	CurrentRuleIndex      int
	ContactsFoundRule     int
	ContactsProcessedRule int
	TotalQueued           int
	Results               map[string]RuleResult
	CancelRequested       bool
	StartedAt             time.Time
	FinishedAt            *time.Time
	LastError             string
}
