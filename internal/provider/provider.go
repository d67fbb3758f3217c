package provider

import (
	"context"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
)

// OutboundMessage is a fully rendered message ready for delivery.
type OutboundMessage struct {
	Channel   domain.Channel
	Recipient string
	Subject   string
	Body      string
}

// SendReceipt stores transport call metadata for audit and persistence. For
// the WhatsApp transport DeepLink carries the constructed wa.me link the
// operator opens.
type SendReceipt struct {
	StatusCode int
	Body       string
	MessageID  string
	DeepLink   string
}

// Transport is the outbound delivery port. The engine calls it once per
// dispatched item and only interprets success or failure.
type Transport interface {
	Send(ctx context.Context, msg OutboundMessage) (*SendReceipt, error)
}
