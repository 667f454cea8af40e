// Package mq publishes judged-submission events to a message broker so
// downstream consumers (dashboards, notifications) can react without the
// judge path depending on them.
package mq

import (
	"context"
	"encoding/json"

	"github.com/codetrail-lms/apiserver/types"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Bus wraps a backend with the judged-event API used by the services.
type Bus struct {
	backend Backend
	topic   string
}

// NewBus constructs a Bus publishing judged events on the given topic.
func NewBus(backend Backend, topic string) *Bus {
	return &Bus{backend: backend, topic: topic}
}

// PublishJudged sends a judged-submission event. Publishing is best-effort
// from the caller's perspective: the submission is already durably recorded
// before this is attempted.
func (b *Bus) PublishJudged(ctx context.Context, event types.JudgedEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	attrs := map[string]string{"status": string(event.Status)}
	return b.backend.Publish(ctx, b.topic, data, attrs)
}

// SubscribeJudged consumes judged-submission events.
func (b *Bus) SubscribeJudged(ctx context.Context, handler func(ctx context.Context, event types.JudgedEvent) error) error {
	return b.backend.Subscribe(ctx, b.topic, func(ctx context.Context, msg Message) error {
		var event types.JudgedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return err
		}
		return handler(ctx, event)
	})
}

// Close closes the underlying backend.
func (b *Bus) Close() error {
	return b.backend.Close()
}
