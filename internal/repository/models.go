package repository

import (
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
)

// RuleModel is the persistence model for the outreach_rules table.
type RuleModel struct {
	ID            string                 `gorm:"type:varchar(10);primaryKey"`
	Channel       domain.Channel         `gorm:"type:varchar(10);not null"`
	TriggerType   domain.TriggerType     `gorm:"type:varchar(30);not null"`
	CadenceDays   int                    `gorm:"not null;default:0"`
	LookaheadDays int                    `gorm:"not null;default:0"`
	TargetStages  []int                  `gorm:"type:jsonb;serializer:json"`
	TargetRoles   []string               `gorm:"type:jsonb;serializer:json"`
	Enabled       bool                   `gorm:"not null;default:true"`
	Description   string                 `gorm:"type:text"`
	Template      domain.MessageTemplate `gorm:"type:jsonb;serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (RuleModel) TableName() string { return "outreach_rules" }

// QueueItemModel is the persistence model for outreach_queue_items.
type QueueItemModel struct {
	ID          string            `gorm:"type:uuid;primaryKey"`
	RuleID      string            `gorm:"type:varchar(10);not null"`
	ContactID   string            `gorm:"type:uuid;not null"`
	Channel     domain.Channel    `gorm:"type:varchar(10);not null"`
	Status      domain.ItemStatus `gorm:"type:varchar(20);not null"`
	DedupKey    string            `gorm:"type:varchar(160);not null"`
	Context     map[string]string `gorm:"type:jsonb;serializer:json"`
	ScheduledAt time.Time         `gorm:"type:timestamptz"`
	SentAt      *time.Time        `gorm:"type:timestamptz"`
	CreatedAt   time.Time
}

func (QueueItemModel) TableName() string { return "outreach_queue_items" }

// ContactRuleStateModel is the persistence model for contact_rule_states.
type ContactRuleStateModel struct {
	ContactID       string     `gorm:"type:uuid;primaryKey"`
	RuleID          string     `gorm:"type:varchar(10);primaryKey"`
	LastContactedAt *time.Time `gorm:"type:timestamptz"`
	SnoozedUntil    *time.Time `gorm:"type:timestamptz"`
	UpdatedAt       time.Time
}

func (ContactRuleStateModel) TableName() string { return "contact_rule_states" }

// JobStatusModel is the persistence model for outreach_jobs.
type JobStatusModel struct {
	ID                    string                       `gorm:"type:uuid;primaryKey"`
	Status                domain.JobState              `gorm:"type:varchar(20);not null"`
	RulesToProcess        []string                     `gorm:"type:jsonb;serializer:json"`
	CurrentRuleIndex      int                          `gorm:"not null;default:0"`
	ContactsFoundRule     int                          `gorm:"not null;default:0"`
	ContactsProcessedRule int                          `gorm:"not null;default:0"`
	TotalQueued           int                          `gorm:"not null;default:0"`
	Results               map[string]domain.RuleResult `gorm:"type:jsonb;serializer:json"`
	CancelRequested       bool                         `gorm:"not null;default:false"`
	StartedAt             time.Time                    `gorm:"type:timestamptz"`
	FinishedAt            *time.Time                   `gorm:"type:timestamptz"`
	LastError             string                       `gorm:"type:text"`
}

func (JobStatusModel) TableName() string { return "outreach_jobs" }

// AuditEntryModel is the persistence model for outreach_audit_log.
type AuditEntryModel struct {
	ID        string         `gorm:"type:uuid;primaryKey"`
	RuleID    string         `gorm:"type:varchar(10);not null"`
	ContactID string         `gorm:"type:uuid;not null"`
	Channel   domain.Channel `gorm:"type:varchar(10);not null"`
	Actor     string         `gorm:"type:varchar(120)"`
	SentAt    time.Time      `gorm:"type:timestamptz;not null"`
}

func (AuditEntryModel) TableName() string { return "outreach_audit_log" }

func ruleModelFromDomain(r *domain.Rule) *RuleModel {
	if r == nil {
		return nil
	}

	return &RuleModel{
		ID:            r.ID,
		Channel:       r.Channel,
		TriggerType:   r.TriggerType,
		CadenceDays:   r.CadenceDays,
		LookaheadDays: r.LookaheadDays,
		TargetStages:  r.TargetStages,
		TargetRoles:   r.TargetRoles,
		Enabled:       r.Enabled,
		Description:   r.Description,
		Template:      r.Template,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func ruleModelToDomain(m *RuleModel) *domain.Rule {
	if m == nil {
		return nil
	}

	return &domain.Rule{
		ID:            m.ID,
		Channel:       m.Channel,
		TriggerType:   m.TriggerType,
		CadenceDays:   m.CadenceDays,
		LookaheadDays: m.LookaheadDays,
		TargetStages:  m.TargetStages,
		TargetRoles:   m.TargetRoles,
		Enabled:       m.Enabled,
		Description:   m.Description,
		Template:      m.Template,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func queueItemModelFromDomain(i *domain.QueueItem) *QueueItemModel {
	if i == nil {
		return nil
	}

	return &QueueItemModel{
		ID:          i.ID,
		RuleID:      i.RuleID,
		ContactID:   i.ContactID,
		Channel:     i.Channel,
		Status:      i.Status,
		DedupKey:    i.DedupKey,
		Context:     i.Context,
		ScheduledAt: i.ScheduledAt,
		SentAt:      i.SentAt,
		CreatedAt:   i.CreatedAt,
	}
}

func queueItemModelToDomain(m *QueueItemModel) *domain.QueueItem {
	if m == nil {
		return nil
	}

	return &domain.QueueItem{
		ID:          m.ID,
		RuleID:      m.RuleID,
		ContactID:   m.ContactID,
		Channel:     m.Channel,
		Status:      m.Status,
		DedupKey:    m.DedupKey,
		Context:     m.Context,
		ScheduledAt: m.ScheduledAt,
		SentAt:      m.SentAt,
		CreatedAt:   m.CreatedAt,
	}
}

func stateModelToDomain(m *ContactRuleStateModel) *domain.CadenceState {
	if m == nil {
		return nil
	}

	return &domain.CadenceState{
		ContactID:       m.ContactID,
		RuleID:          m.RuleID,
		LastContactedAt: m.LastContactedAt,
		SnoozedUntil:    m.SnoozedUntil,
	}
}

func jobModelFromDomain(j *domain.JobStatus) *JobStatusModel {
	if j == nil {
		return nil
	}

	return &JobStatusModel{
		ID:                    j.ID,
		Status:                j.Status,
		RulesToProcess:        j.RulesToProcess,
		CurrentRuleIndex:      j.CurrentRuleIndex,
		ContactsFoundRule:     j.ContactsFoundRule,
		ContactsProcessedRule: j.ContactsProcessedRule,
		TotalQueued:           j.TotalQueued,
		Results:               j.Results,
		CancelRequested:       j.CancelRequested,
		StartedAt:             j.StartedAt,
		FinishedAt:            j.FinishedAt,
		LastError:             j.LastError,
	}
}

func jobModelToDomain(m *JobStatusModel) *domain.JobStatus {
	if m == nil {
		return nil
	}

	return &domain.JobStatus{
		ID:                    m.ID,
		Status:                m.Status,
		RulesToProcess:        m.RulesToProcess,
		CurrentRuleIndex:      m.CurrentRuleIndex,
		ContactsFoundRule:     m.ContactsFoundRule,
		ContactsProcessedRule: m.ContactsProcessedRule,
		TotalQueued:           m.TotalQueued,
		Results:               m.Results,
		CancelRequested:       m.CancelRequested,
		StartedAt:             m.StartedAt,
		FinishedAt:            m.FinishedAt,
		LastError:             m.LastError,
	}
}

func auditModelFromDomain(e *domain.AuditEntry) *AuditEntryModel {
	if e == nil {
		return nil
	}

	return &AuditEntryModel{
		ID:        e.ID,
		RuleID:    e.RuleID,
		ContactID: e.ContactID,
		Channel:   e.Channel,
		Actor:     e.Actor,
		SentAt:    e.SentAt,
	}
}

func auditModelToDomain(m *AuditEntryModel) *domain.AuditEntry {
	if m == nil {
		return nil
	}

	return &domain.AuditEntry{
		ID:        m.ID,
		RuleID:    m.RuleID,
		ContactID: m.ContactID,
		Channel:   m.Channel,
		Actor:     m.Actor,
		SentAt:    m.SentAt,
	}
}
