package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DispatchedEvent is the broker payload emitted for every dispatched item.
type DispatchedEvent struct {
	ItemID     string         `json:"itemId"`
	RuleID     string         `json:"ruleId"`
	ContactID  string         `json:"contactId"`
	Channel    domain.Channel `json:"channel"`
	Actor      string         `json:"actor"`
	DispatchAt time.Time      `json:"dispatchedAt"`
}

func (e DispatchedEvent) Validate() error {
	if strings.TrimSpace(e.ItemID) == "" {
		return fmt.Errorf("itemId is required")
	}
	if strings.TrimSpace(e.RuleID) == "" {
		return fmt.Errorf("ruleId is required")
	}
	if strings.TrimSpace(e.ContactID) == "" {
		return fmt.Errorf("contactId is required")
	}
	if !e.Channel.IsValid() {
		return fmt.Errorf("invalid channel %q", e.Channel)
	}
	return nil
}

// Publisher publishes dispatch events to the broker.
type Publisher interface {
	PublishDispatched(ctx context.Context, event DispatchedEvent) error
	Close() error
}

type RabbitMQPublisher struct {
	client *RabbitMQ
}

var _ Publisher = (*RabbitMQPublisher)(nil)

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) PublishDispatched(ctx context.Context, event DispatchedEvent) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid dispatched event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatched event: %w", err)
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    event.ItemID,
		Body:         payload,
	}

	if err := ch.PublishWithContext(ctx, "", DispatchedQueue, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish dispatched event: %w", err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
