package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/crm"
	"github.com/gdbetancourt/outreach-engine/internal/domain"
	"github.com/go-resty/resty/v2"
)

const defaultCalendarTimeout = 10 * time.Second

var _ crm.CalendarProvider = (*Client)(nil)

// Client lists calendar events through the CRM's calendar gateway. OAuth and
// provider plumbing live behind the gateway; this client only reads events.
type Client struct {
	client  *resty.Client
	baseURL string
	token   string
}

type eventPayload struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	StartsAt    string   `json:"startsAt"`
	MeetingLink string   `json:"meetingLink"`
	Attendees   []string `json:"attendees"`
	// ResponseStatus is the operator's own RSVP on the event.
	ResponseStatus string `json:"responseStatus"`
}

type listEventsResponse struct {
	Events []eventPayload `json:"events"`
}

func NewClient(baseURL, token string) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("calendar base url is required")
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid calendar base url: %w", err)
	}

	client := resty.New()
	client.SetTimeout(defaultCalendarTimeout)
	client.SetRetryCount(0)

	return &Client{
		client:  client,
		baseURL: strings.TrimRight(trimmed, "/"),
		token:   strings.TrimSpace(token),
	}, nil
}

// UpcomingEvents returns events in [from, to), excluding events the operator
// declined.
func (c *Client) UpcomingEvents(ctx context.Context, from, to time.Time) ([]crm.CalendarEvent, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("calendar client is not initialized")
	}

	var payload listEventsResponse
	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.token).
		SetQueryParam("from", from.UTC().Format(time.RFC3339)).
		SetQueryParam("to", to.UTC().Format(time.RFC3339)).
		SetResult(&payload).
		Get(c.baseURL + "/v1/events")
	if err != nil {
		return nil, fmt.Errorf("%w: calendar request failed: %v", domain.ErrCollaborator, err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: calendar returned status %d", domain.ErrCollaborator, response.StatusCode())
	}

	events := make([]crm.CalendarEvent, 0, len(payload.Events))
	for _, raw := range payload.Events {
		if strings.EqualFold(strings.TrimSpace(raw.ResponseStatus), "declined") {
			continue
		}

		startsAt, err := time.Parse(time.RFC3339, raw.StartsAt)
		if err != nil {
			continue
		}

		events = append(events, crm.CalendarEvent{
			ID:             raw.ID,
			Title:          raw.Title,
			StartsAt:       startsAt,
			MeetingLink:    raw.MeetingLink,
			AttendeeEmails: raw.Attendees,
		})
	}

	return events, nil
}
