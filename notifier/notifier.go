// Package notifier forwards domain events to the game's pub/sub topic. The
// topic delivers at-least-once with no ordering guarantee; this layer is
// fire-and-forget on top of that.
package notifier

import (
	"context"

	"github.com/WojciechMatuszewski/btc-guessr/transport"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/iotdataplane"
	"github.com/aws/aws-sdk-go/service/iotdataplane/iotdataplaneiface"
	"github.com/rs/zerolog"
)

// Publisher publishes domain events to the broadcast topic.
type Publisher struct {
	client iotdataplaneiface.IoTDataPlaneAPI
	topic  string
}

// New creates a new Publisher.
func New(client iotdataplaneiface.IoTDataPlaneAPI, topic string) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
	}
}

// Publish sends each event as one topic message, QoS 1. Delivery failures are
// logged and dropped, never retried: clients reconcile through the snapshot
// fetch, so a lost event costs freshness, not correctness.
func (p *Publisher) Publish(ctx context.Context, events ...transport.Event) {
	for _, event := range events {
		payload, err := transport.Marshal(event)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("type", event.EventType()).Msg("failed to encode event")
			continue
		}

		_, err = p.client.PublishWithContext(ctx, &iotdataplane.PublishInput{
			Topic:   aws.String(p.topic),
			Payload: payload,
			Qos:     aws.Int64(1),
		})
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("type", event.EventType()).Msg("failed to publish event")
		}
	}
}
