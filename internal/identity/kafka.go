package identity

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Consumer reads auth events published by the identity provider and
// forwards them on a channel for the sync coordinator.
type Consumer struct {
	reader *kafka.Reader
	events chan Event
	logger *zap.Logger
}

func NewConsumer(logger *zap.Logger, groupID string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "auth-events",
		GroupID:  groupID,
		MaxBytes: 1e6,
	})
	return &Consumer{
		reader: reader,
		events: make(chan Event, 8),
		logger: logger,
	}
}

// Events is the stream consumed by the coordinator. It is closed when Run
// returns.
func (c *Consumer) Events() <-chan Event {
	return c.events
}

// Run blocks reading messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	defer close(c.events)
	for {
		if ctx.Err() != nil {
			return
		}
		c.readOne(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing reader", zap.Error(err))
	}
}

func (c *Consumer) readOne(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("error reading auth event", zap.Error(err))
		}
		return
	}

	var ev Event
	if errUnmarshal := json.Unmarshal(m.Value, &ev); errUnmarshal != nil {
		c.logger.Warn("error parsing auth event", zap.Error(errUnmarshal))
		return
	}

	switch ev.Kind {
	case SignedIn, SignedOut:
	default:
		c.logger.Warn("unknown auth event kind", zap.String("kind", string(ev.Kind)))
		return
	}
	if ev.Kind == SignedIn && (ev.User == nil || ev.User.ID == "") {
		c.logger.Warn("signed_in event missing user")
		return
	}

	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}
