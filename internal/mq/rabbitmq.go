package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codetrail-lms/apiserver/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes judged events to a RabbitMQ queue. Events are
// published persistent so a broker restart does not drop them; queues are
// declared lazily on first use.
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	durable bool
}

// NewRabbitMQClient connects to RabbitMQ and opens a publishing channel.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{conn: conn, channel: ch, durable: cfg.QueueDurable}, nil
}

// Publish sends one event to the named queue and returns its message id.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if err := r.declareQueue(channel); err != nil {
		return "", err
	}

	headers := make(amqp.Table, len(attrs))
	for key, value := range attrs {
		headers[key] = value
	}

	deliveryMode := amqp.Transient
	if r.durable {
		deliveryMode = amqp.Persistent
	}

	messageID := uuid.NewString()
	err := r.channel.PublishWithContext(ctx, "", channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: deliveryMode,
		MessageId:    messageID,
		Headers:      headers,
		Body:         data,
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe consumes events from the named queue until ctx is done.
// Handler errors nack the delivery for redelivery.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if err := r.declareQueue(channel); err != nil {
		return err
	}

	consumerTag := "judge-" + uuid.NewString()
	deliveries, err := r.channel.Consume(channel, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			err := handler(ctx, Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: tableToAttrs(delivery.Headers),
			})
			if err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the channel and connection.
func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) declareQueue(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("rabbitmq queue name is required")
	}
	_, err := r.channel.QueueDeclare(name, r.durable, false, false, false, nil)
	return err
}

func tableToAttrs(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
