package domain

import (
	"fmt"
	"strings"
	"time"
)

// Channel represents the outreach delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelWhatsApp Channel = "WHATSAPP"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelWhatsApp:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// TriggerType selects the eligibility and grouping behavior of a rule.
// It is structural: set at seed time, never mutable through the admin API.
type TriggerType string

const (
	TriggerCadence          TriggerType = "cadence"
	TriggerNewBusiness      TriggerType = "new_business"
	TriggerWebinarInvite    TriggerType = "webinar_invite"
	TriggerWebinarReminder  TriggerType = "webinar_reminder"
	TriggerQuoteFollowup    TriggerType = "quote_followup"
	TriggerCoachingReminder TriggerType = "coaching_reminder"
	TriggerMeetingReminder  TriggerType = "meeting_reminder"
	TriggerRepurchase       TriggerType = "repurchase"
	TriggerAlumniCheckin    TriggerType = "alumni_checkin"
)

func (t TriggerType) String() string { return string(t) }

func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerCadence, TriggerNewBusiness, TriggerWebinarInvite, TriggerWebinarReminder,
		TriggerQuoteFollowup, TriggerCoachingReminder, TriggerMeetingReminder,
		TriggerRepurchase, TriggerAlumniCheckin:
		return true
	}
	return false
}

// Pipeline stages of the CRM funnel.
const (
	StageLead       = 1
	StageNurture    = 2
	StageProposal   = 3
	StageDelivery   = 4
	StageRepurchase = 5
)

// Contact roles consulted by role-gated rules.
const (
	RoleCoachee   = "coachee"
	RoleStudent   = "student"
	RoleDealMaker = "deal-maker"
)

// MessageTemplate is the configurable message content of a rule. Variables lists
// the placeholder names the body and subject reference; the renderer validates
// the supplied variable map against it.
type MessageTemplate struct {
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Variables []string `json:"variables"`
	// FollowupBody, when set, replaces Body for contacts that have been
	// contacted for this rule before (meeting-reminder family).
	FollowupBody string `json:"followupBody,omitempty"`
}

// Rule is a named, configurable outreach condition plus message template.
type Rule struct {
	ID            string
	Channel       Channel
	TriggerType   TriggerType
	CadenceDays   int
	LookaheadDays int
	TargetStages  []int
	TargetRoles   []string
	Enabled       bool
	Description   string
	Template      MessageTemplate
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: rule id is required", ErrValidation)
	}
	if !r.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, r.Channel)
	}
	if !r.TriggerType.IsValid() {
		return fmt.Errorf("%w: invalid trigger type %q", ErrValidation, r.TriggerType)
	}
	if r.CadenceDays < 0 {
		return fmt.Errorf("%w: cadence days must be >= 0", ErrValidation)
	}
	for _, stage := range r.TargetStages {
		if stage < StageLead || stage > StageRepurchase {
			return fmt.Errorf("%w: invalid pipeline stage %d", ErrValidation, stage)
		}
	}
	return nil
}

// CadenceGated reports whether the rule is gated by elapsed time since the last
// contact. Rules with CadenceDays == 0 are purely event/time triggered.
func (r *Rule) CadenceGated() bool {
	return r.CadenceDays > 0
}

// RulePatch carries the admin-editable subset of a rule. Rule ID and trigger
// type are structural and cannot be patched.
type RulePatch struct {
	CadenceDays   *int
	LookaheadDays *int
	TargetStages  *[]int
	TargetRoles   *[]string
	Enabled       *bool
	Description   *string
	Template      *MessageTemplate
}
