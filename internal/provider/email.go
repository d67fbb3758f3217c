package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultRelayTimeout = 10 * time.Second

type relayRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailRelayTransport delivers email messages through the CRM's mail relay
// endpoint. SMTP details stay behind the relay.
type EmailRelayTransport struct {
	client   *resty.Client
	endpoint string
}

var _ Transport = (*EmailRelayTransport)(nil)

func NewEmailRelayTransport(endpoint string) (*EmailRelayTransport, error) {
	client := resty.New()
	client.SetTimeout(defaultRelayTimeout)
	client.SetRetryCount(0)

	return NewEmailRelayTransportWithClient(endpoint, client)
}

func NewEmailRelayTransportWithClient(endpoint string, client *resty.Client) (*EmailRelayTransport, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("email relay endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid email relay endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultRelayTimeout)
	}
	client.SetRetryCount(0)

	return &EmailRelayTransport{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (t *EmailRelayTransport) Send(ctx context.Context, msg OutboundMessage) (*SendReceipt, error) {
	if t == nil || t.client == nil {
		return nil, fmt.Errorf("email transport is not initialized")
	}

	recipient := strings.TrimSpace(msg.Recipient)
	if recipient == "" {
		return nil, &TransportError{Message: "recipient email is empty"}
	}

	response, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(relayRequest{
			To:      recipient,
			Subject: msg.Subject,
			Body:    msg.Body,
		}).
		Post(t.endpoint)
	if err != nil {
		return nil, &TransportError{
			Message:   "relay request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendReceipt{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  relayMessageID(response),
		}, nil
	}

	return nil, &TransportError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("relay returned status %d", statusCode),
		Transient:  statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError,
	}
}

func relayMessageID(response *resty.Response) string {
	if response == nil {
		return ""
	}
	for _, key := range []string{"X-Message-ID", "X-Message-Id", "X-Request-ID", "X-Request-Id"} {
		if value := strings.TrimSpace(response.Header().Get(key)); value != "" {
			return value
		}
	}
	return ""
}
