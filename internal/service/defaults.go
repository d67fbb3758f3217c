package service

import "github.com/gdbetancourt/outreach-engine/internal/domain"

// defaultRules is the compiled-in seed table applied on first read of the rule
// registry. IDs and trigger types are structural; everything else is editable
// through the admin API afterwards.
func defaultRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:           "E01",
			Channel:      domain.ChannelEmail,
			TriggerType:  domain.TriggerWebinarInvite,
			TargetStages: []int{domain.StageLead, domain.StageNurture},
			Enabled:      true,
			Description:  "Invite unregistered contacts to the next webinar matching their persona.",
			Template: domain.MessageTemplate{
				Subject:   "You're invited: {event_name}",
				Body:      "Hi {first_name},\n\nWe're hosting {event_name} on {event_date} and thought of you. Save your seat before it fills up.",
				Variables: []string{"first_name", "event_name", "event_date"},
			},
		},
		{
			ID:           "E02",
			Channel:      domain.ChannelEmail,
			TriggerType:  domain.TriggerQuoteFollowup,
			CadenceDays:  14,
			TargetStages: []int{domain.StageProposal},
			Enabled:      true,
			Description:  "Follow up on open quotes every two weeks.",
			Template: domain.MessageTemplate{
				Subject:   "Following up on your proposal",
				Body:      "Hi {first_name},\n\nJust checking in on the proposal we sent to {company}. Happy to walk through any questions.",
				Variables: []string{"first_name", "company"},
			},
		},
		{
			ID:            "E03",
			Channel:       domain.ChannelEmail,
			TriggerType:   domain.TriggerCoachingReminder,
			CadenceDays:   30,
			LookaheadDays: 60,
			TargetStages:  []int{domain.StageDelivery},
			TargetRoles:   []string{domain.RoleCoachee},
			Enabled:       true,
			Description:   "Nudge coachees with no session booked in the next two months.",
			Template: domain.MessageTemplate{
				Subject:   "Time for your next session?",
				Body:      "Hi {first_name},\n\nIt's been a while since your last coaching session and nothing is on the calendar yet. Shall we book the next one?",
				Variables: []string{"first_name"},
			},
		},
		{
			ID:           "E04",
			Channel:      domain.ChannelEmail,
			TriggerType:  domain.TriggerRepurchase,
			CadenceDays:  90,
			TargetStages: []int{domain.StageRepurchase},
			TargetRoles:  []string{domain.RoleDealMaker},
			Enabled:      true,
			Description:  "Quarterly repurchase outreach to decision makers.",
			Template: domain.MessageTemplate{
				Subject:   "Ready for the next step at {company}?",
				Body:      "Hi {first_name},\n\nTeams like {company} usually revisit their goals around now. Want to explore the next program together?",
				Variables: []string{"first_name", "company"},
			},
		},
		{
			ID:           "E05",
			Channel:      domain.ChannelEmail,
			TriggerType:  domain.TriggerAlumniCheckin,
			CadenceDays:  90,
			TargetStages: []int{domain.StageRepurchase},
			TargetRoles:  []string{domain.RoleCoachee, domain.RoleStudent},
			Enabled:      true,
			Description:  "Quarterly check-in with program alumni.",
			Template: domain.MessageTemplate{
				Subject:   "How have things been, {first_name}?",
				Body:      "Hi {first_name},\n\nIt's been a few months since the program wrapped up. How are the new habits holding? Hit reply, we read everything.",
				Variables: []string{"first_name"},
			},
		},
		{
			ID:           "E06",
			Channel:      domain.ChannelEmail,
			TriggerType:  domain.TriggerCadence,
			CadenceDays:  30,
			TargetStages: []int{domain.StageNurture},
			Enabled:      true,
			Description:  "Monthly nurture touch for contacts in the pipeline.",
			Template: domain.MessageTemplate{
				Subject:   "One idea worth your time",
				Body:      "Hi {first_name},\n\nHere's one idea from this month's coaching work we think applies to you.",
				Variables: []string{"first_name"},
			},
		},
		{
			ID:           "E07",
			Channel:      domain.ChannelEmail,
			TriggerType:  domain.TriggerNewBusiness,
			CadenceDays:  45,
			TargetStages: []int{domain.StageLead},
			Enabled:      true,
			Description:  "New-business outreach to fresh leads, grouped by business type.",
			Template: domain.MessageTemplate{
				Subject:   "Helping businesses like {company}",
				Body:      "Hi {first_name},\n\nWe work with businesses like {company} on focus and execution. Open to a short intro call?",
				Variables: []string{"first_name", "company"},
			},
		},
		{
			ID:          "E08",
			Channel:     domain.ChannelEmail,
			TriggerType: domain.TriggerWebinarReminder,
			Enabled:     true,
			Description: "Remind registrants ahead of each upcoming webinar.",
			Template: domain.MessageTemplate{
				Subject:   "See you at {event_name}",
				Body:      "Hi {first_name},\n\nA quick reminder that {event_name} starts on {event_date}. Your spot is reserved.",
				Variables: []string{"first_name", "event_name", "event_date"},
			},
		},
		{
			ID:            "E09",
			Channel:       domain.ChannelEmail,
			TriggerType:   domain.TriggerMeetingReminder,
			LookaheadDays: 7,
			Enabled:       true,
			Description:   "Remind contacts about their upcoming meeting this week.",
			Template: domain.MessageTemplate{
				Subject:      "Our meeting on {event_date}",
				Body:         "Hi {first_name},\n\nLooking forward to meeting you: {event_name} on {event_date}.",
				FollowupBody: "Hi {first_name},\n\nQuick reminder about our next meeting: {event_name} on {event_date}. See you there.",
				Variables:    []string{"first_name", "event_name", "event_date"},
			},
		},
		{
			ID:           "E10",
			Channel:      domain.ChannelEmail,
			TriggerType:  domain.TriggerCadence,
			CadenceDays:  60,
			TargetStages: []int{domain.StageLead, domain.StageNurture},
			Enabled:      true,
			Description:  "Re-engagement touch for quiet contacts.",
			Template: domain.MessageTemplate{
				Subject:   "Still on your radar?",
				Body:      "Hi {first_name},\n\nWe haven't spoken in a while. If better focus is still on your list, let's pick it back up.",
				Variables: []string{"first_name"},
			},
		},
		{
			ID:            "W01",
			Channel:       domain.ChannelWhatsApp,
			TriggerType:   domain.TriggerMeetingReminder,
			LookaheadDays: 7,
			Enabled:       true,
			Description:   "WhatsApp reminder for meetings in the coming week.",
			Template: domain.MessageTemplate{
				Body:         "Hi {first_name}! Looking forward to {event_name} on {event_date}.",
				FollowupBody: "Hi {first_name}! Reminder: {event_name} on {event_date}. See you there!",
				Variables:    []string{"first_name", "event_name", "event_date"},
			},
		},
		{
			ID:            "W02",
			Channel:       domain.ChannelWhatsApp,
			TriggerType:   domain.TriggerMeetingReminder,
			LookaheadDays: 1,
			Enabled:       true,
			Description:   "WhatsApp reminder on the day before a meeting.",
			Template: domain.MessageTemplate{
				Body:         "Hi {first_name}, see you tomorrow at {event_name}!",
				FollowupBody: "Hi {first_name}, tomorrow it is: {event_name}. See you then!",
				Variables:    []string{"first_name", "event_name"},
			},
		},
		{
			ID:           "W03",
			Channel:      domain.ChannelWhatsApp,
			TriggerType:  domain.TriggerWebinarInvite,
			TargetStages: []int{domain.StageLead, domain.StageNurture},
			Enabled:      true,
			Description:  "WhatsApp invite to the next webinar matching the contact's persona.",
			Template: domain.MessageTemplate{
				Body:      "Hi {first_name}! We're hosting {event_name} on {event_date} and saved you a seat. Want in?",
				Variables: []string{"first_name", "event_name", "event_date"},
			},
		},
		{
			ID:          "W04",
			Channel:     domain.ChannelWhatsApp,
			TriggerType: domain.TriggerWebinarReminder,
			Enabled:     true,
			Description: "WhatsApp reminder for webinar registrants.",
			Template: domain.MessageTemplate{
				Body:      "Hi {first_name}! {event_name} starts on {event_date}. Your spot is reserved.",
				Variables: []string{"first_name", "event_name", "event_date"},
			},
		},
		{
			ID:           "W11",
			Channel:      domain.ChannelWhatsApp,
			TriggerType:  domain.TriggerCadence,
			CadenceDays:  30,
			TargetStages: []int{domain.StageNurture},
			Enabled:      true,
			Description:  "Monthly WhatsApp nurture touch.",
			Template: domain.MessageTemplate{
				Body:      "Hi {first_name}! One quick idea from this month's coaching work that made us think of you.",
				Variables: []string{"first_name"},
			},
		},
		{
			ID:            "W12",
			Channel:       domain.ChannelWhatsApp,
			TriggerType:   domain.TriggerCoachingReminder,
			CadenceDays:   30,
			LookaheadDays: 60,
			TargetStages:  []int{domain.StageDelivery},
			TargetRoles:   []string{domain.RoleCoachee},
			Enabled:       true,
			Description:   "WhatsApp nudge for coachees with no session booked.",
			Template: domain.MessageTemplate{
				Body:      "Hi {first_name}! Nothing on the calendar for your next session yet. Shall we book one?",
				Variables: []string{"first_name"},
			},
		},
		{
			ID:           "W13",
			Channel:      domain.ChannelWhatsApp,
			TriggerType:  domain.TriggerRepurchase,
			CadenceDays:  90,
			TargetStages: []int{domain.StageRepurchase},
			TargetRoles:  []string{domain.RoleDealMaker},
			Enabled:      true,
			Description:  "Quarterly WhatsApp repurchase outreach to decision makers.",
			Template: domain.MessageTemplate{
				Body:      "Hi {first_name}! Teams usually revisit their goals around now. Want to explore the next program?",
				Variables: []string{"first_name"},
			},
		},
		{
			ID:           "W14",
			Channel:      domain.ChannelWhatsApp,
			TriggerType:  domain.TriggerAlumniCheckin,
			CadenceDays:  90,
			TargetStages: []int{domain.StageRepurchase},
			TargetRoles:  []string{domain.RoleCoachee, domain.RoleStudent},
			Enabled:      true,
			Description:  "Quarterly WhatsApp check-in with program alumni.",
			Template: domain.MessageTemplate{
				Body:      "Hi {first_name}! It's been a few months since the program. How are the new habits holding?",
				Variables: []string{"first_name"},
			},
		},
	}
}
