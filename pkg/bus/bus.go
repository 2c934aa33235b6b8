package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-tutoring-sync/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topics carrying synchronizer state changes to in-process consumers. View
// bindings subscribe here; the reducer never touches the bus.
const (
	TopicHandoff    = "orchestration.handoff"
	TopicAlert      = "orchestration.alert"
	TopicConnection = "orchestration.connection"
)

// Bus is an in-process pub/sub for derived UI events, backed by a watermill
// gochannel. Publishing never blocks state application: failures are returned
// to the caller and the caller decides whether they matter.
type Bus struct {
	pubSub *gochannel.GoChannel
}

func New() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			// Buffered so a slow view binding never stalls state application.
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
	}
}

// Publish serializes the event payload and emits it on the topic.
func (b *Bus) Publish(topic string, event events.Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("event_type", event.EventType())

	if err := b.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the message stream for a topic. Consumers must Ack.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, topic)
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
