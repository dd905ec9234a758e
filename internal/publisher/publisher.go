// Package publisher announces completed signal records so downstream
// consumers (dashboards, alerting) can react without polling the
// historical log.
package publisher

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// Provider publishes record announcements.
type Provider interface {
	// Publish announces that a record for url was appended.
	Publish(ctx context.Context, url string) error
	// Close releases underlying resources.
	Close() error
}

// NoOp publishes nothing. It is the default when no topic is configured.
type NoOp struct{}

// Publish implements Provider.
func (NoOp) Publish(context.Context, string) error { return nil }

// Close implements Provider.
func (NoOp) Close() error { return nil }

// PubSub publishes announcements to a Google Cloud Pub/Sub topic using
// Application Default Credentials.
type PubSub struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSub creates a Pub/Sub publisher and verifies the topic exists
// so a bad topic name fails at startup.
func NewPubSub(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSub, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("close pubsub client after existence check failure", zap.Error(cerr))
		}
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("close pubsub client after existence check failure", zap.Error(cerr))
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}

	return &PubSub{client: client, topic: topic, logger: logger}, nil
}

// Publish sends the record URL to the topic. The send is asynchronous;
// the client batches and retries in the background.
func (p *PubSub) Publish(ctx context.Context, url string) error {
	result := p.topic.Publish(ctx, &pubsub.Message{Data: []byte(url)})
	_ = result // fire and forget
	return nil
}

// Close stops the topic publisher and closes the client.
func (p *PubSub) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
