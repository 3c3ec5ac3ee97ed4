package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/kirana-pos/api/internal/services"
)

// PubSubCodeEventPublisher publishes identifier change events to a Pub/Sub topic.
type PubSubCodeEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubCodeEventPublisher constructs a Pub/Sub backed code event publisher.
func NewPubSubCodeEventPublisher(topic *pubsub.Topic) (*PubSubCodeEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub code event publisher: topic is required")
	}
	return &PubSubCodeEventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishCodeEvent enqueues a code change event on the configured topic.
func (p *PubSubCodeEventPublisher) PublishCodeEvent(ctx context.Context, message services.CodeEventMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub code event publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal code event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "eventId", message.EventID)
	setAttr(attrs, "eventType", message.Type)
	setAttr(attrs, "productId", message.ProductID)
	setAttr(attrs, "code", message.Code)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish code event: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
