package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
)

func TestEmailRelayTransportSend(t *testing.T) {
	t.Parallel()

	var received relayRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("X-Message-ID", "msg-42")
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	transport, err := NewEmailRelayTransport(server.URL)
	if err != nil {
		t.Fatalf("NewEmailRelayTransport() error = %v", err)
	}

	receipt, err := transport.Send(context.Background(), OutboundMessage{
		Channel:   domain.ChannelEmail,
		Recipient: "maya@example.com",
		Subject:   "Hello",
		Body:      "Hi Maya",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if received.To != "maya@example.com" || received.Subject != "Hello" || received.Body != "Hi Maya" {
		t.Fatalf("relay payload = %+v", received)
	}
	if receipt.StatusCode != http.StatusAccepted || receipt.MessageID != "msg-42" {
		t.Fatalf("receipt = %+v, want 202 with msg-42", receipt)
	}
}

func TestEmailRelayTransportStatusClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "server error is transient", status: http.StatusBadGateway, transient: true},
		{name: "throttling is transient", status: http.StatusTooManyRequests, transient: true},
		{name: "bad request is permanent", status: http.StatusBadRequest, transient: false},
		{name: "unauthorized is permanent", status: http.StatusUnauthorized, transient: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(server.Close)

			transport, err := NewEmailRelayTransport(server.URL)
			if err != nil {
				t.Fatalf("NewEmailRelayTransport() error = %v", err)
			}

			_, err = transport.Send(context.Background(), OutboundMessage{
				Channel:   domain.ChannelEmail,
				Recipient: "maya@example.com",
				Body:      "Hi",
			})

			var transportErr *TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("error = %v, want TransportError", err)
			}
			if transportErr.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", transportErr.StatusCode, tc.status)
			}
			if IsTransient(err) != tc.transient {
				t.Fatalf("IsTransient = %v, want %v", IsTransient(err), tc.transient)
			}
		})
	}
}

func TestEmailRelayTransportRejectsBadEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewEmailRelayTransport(""); err == nil {
		t.Fatal("empty endpoint must be rejected")
	}
	if _, err := NewEmailRelayTransport("not a url"); err == nil {
		t.Fatal("malformed endpoint must be rejected")
	}
}
