package realtime

import (
	"context"
	"encoding/json"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

// ChangeEvent is the wire shape fanned out to dashboard listeners whenever a
// campaign, order, or donation row changes.
type ChangeEvent struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// Publisher pushes table-change events to the configured topic. A nil topic
// disables the fanout; every method is then a no-op.
type Publisher struct {
	topic  topicPublisher
	logger *logger.Logger
	now    func() time.Time
}

// NewPublisher wires the realtime fanout. Pass a nil topic to disable it.
func NewPublisher(topic *pubsub.Publisher, logg *logger.Logger) *Publisher {
	var t topicPublisher
	if topic != nil {
		t = topic
	}
	return &Publisher{topic: t, logger: logg, now: time.Now}
}

// NewPublisherWithTopic injects a publisher implementation, used by tests.
func NewPublisherWithTopic(topic topicPublisher, logg *logger.Logger) *Publisher {
	return &Publisher{topic: topic, logger: logg, now: time.Now}
}

// PublishChange fans out one table change. Failures are logged and dropped;
// the dashboard catches up on its next poll.
func (p *Publisher) PublishChange(ctx context.Context, table, op, id string) {
	if p == nil || p.topic == nil {
		return
	}

	event := ChangeEvent{Table: table, Op: op, ID: id, At: p.now().UTC()}
	payload, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.Error(ctx, "encode change event", err)
		}
		return
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"table": table,
			"op":    op,
		},
	})

	go func() {
		if _, err := result.Get(context.Background()); err != nil && p.logger != nil {
			p.logger.Error(context.Background(), "publish change event", err)
		}
	}()
}
