package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// WhatsAppLinkTransport constructs a wa.me deep link for the operator to open.
// No message leaves the system here; the link itself is the delivery artifact.
type WhatsAppLinkTransport struct{}

var _ Transport = (*WhatsAppLinkTransport)(nil)

func NewWhatsAppLinkTransport() *WhatsAppLinkTransport {
	return &WhatsAppLinkTransport{}
}

func (t *WhatsAppLinkTransport) Send(_ context.Context, msg OutboundMessage) (*SendReceipt, error) {
	phone := normalizePhone(msg.Recipient)
	if phone == "" {
		return nil, &TransportError{Message: "recipient phone is empty or invalid"}
	}

	link := fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(msg.Body))

	return &SendReceipt{DeepLink: link}, nil
}

func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
