package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelAlertEvents = "alert_events"
)

// Event kinds pushed to connected clients.
const (
	EventAlertCreated  = "alert_created"
	EventAlertUpdated  = "alert_updated"
	EventAlertResolved = "alert_resolved"
	EventNotification  = "notification"
)

// AlertEvent is the payload fanned out to a user's websocket sessions.
type AlertEvent struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	AlertID  int64  `json:"alert_id,omitempty"`
	Severity string `json:"severity,omitempty"`
	Title    string `json:"title"`
	Message  string `json:"message,omitempty"`
}

// Publisher broadcasts alert events through Redis so every server instance
// can reach its connected clients.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishAlertEvent(ctx context.Context, event *AlertEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	return p.client.Publish(ctx, ChannelAlertEvents, data).Err()
}

// Subscriber receives alert events published by any instance.
type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe blocks until ctx is cancelled, invoking handler per event.
// Malformed payloads are skipped.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*AlertEvent)) error {
	pubsub := s.client.Subscribe(ctx, ChannelAlertEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event AlertEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}

			handler(&event)
		}
	}
}
