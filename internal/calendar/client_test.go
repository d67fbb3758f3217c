package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
)

func TestUpcomingEventsFiltersDeclined(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("authorization = %q, want bearer token", got)
		}
		if r.URL.Path != "/v1/events" {
			t.Fatalf("path = %s, want /v1/events", r.URL.Path)
		}
		if r.URL.Query().Get("from") == "" || r.URL.Query().Get("to") == "" {
			t.Fatal("from/to window query params are required")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events":[
			{"id":"ev-1","title":"Kickoff","startsAt":"2026-03-12T10:00:00Z","attendees":["maya@example.com"]},
			{"id":"ev-2","title":"Declined","startsAt":"2026-03-13T10:00:00Z","responseStatus":"declined"},
			{"id":"ev-3","title":"Broken date","startsAt":"not-a-date"}
		]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "secret")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	events, err := client.UpcomingEvents(context.Background(), from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("UpcomingEvents() error = %v", err)
	}

	if len(events) != 1 || events[0].ID != "ev-1" {
		t.Fatalf("events = %v, want only the accepted parseable event", events)
	}
}

func TestUpcomingEventsGatewayErrorIsCollaboratorFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.UpcomingEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if !errors.Is(err, domain.ErrCollaborator) {
		t.Fatalf("error = %v, want ErrCollaborator", err)
	}
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("", "token"); err == nil {
		t.Fatal("empty base url must be rejected")
	}
	if _, err := NewClient("not a url", "token"); err == nil {
		t.Fatal("malformed base url must be rejected")
	}
}
