package mq

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/codetrail-lms/apiserver/config"
	"google.golang.org/api/option"
)

// PubSubClient publishes judged events to Google Cloud Pub/Sub. Topics and
// subscriptions are created on demand so deploys need no provisioning step.
type PubSubClient struct {
	client    *pubsub.Client
	subSuffix string
}

// NewPubSubClient constructs a Pub/Sub client from config.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}
	return &PubSubClient{client: client, subSuffix: suffix}, nil
}

// Publish sends one event to the named topic and returns the server id.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	return topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}

// Subscribe consumes events from the channel's subscription until ctx is
// done. Handler errors nack the message for redelivery.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}

	subName := channel + p.subSuffix
	sub := p.client.Subscription(subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		sub, err = p.client.CreateSubscription(ctx, subName, pubsub.SubscriptionConfig{Topic: topic})
		if err != nil {
			return err
		}
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		err := handler(ctx, Message{
			ID:         msg.ID,
			Data:       msg.Data,
			Attributes: msg.Attributes,
		})
		if err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close closes the underlying client.
func (p *PubSubClient) Close() error {
	return p.client.Close()
}

func (p *PubSubClient) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("pubsub topic name is required")
	}
	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateTopic(ctx, name)
	}
	return topic, nil
}
