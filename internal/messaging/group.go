package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// ErrDuplicateTopic is returned when a second consumer claims a topic.
var ErrDuplicateTopic = errors.New("topic already has a consumer")

// TopicConsumer handles the events of a single topic.
type TopicConsumer interface {
	Topic() string
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs one consumer per event topic over a shared subscriber.
// The subscriber is closed after every consumer has stopped.
type ConsumerGroup struct {
	consumers  []TopicConsumer
	subscriber message.Subscriber
	logger     *zap.Logger
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers consumer for its topic.
func (g *ConsumerGroup) Add(consumer TopicConsumer) error {
	for _, existing := range g.consumers {
		if existing.Topic() == consumer.Topic() {
			return fmt.Errorf("%w: %s", ErrDuplicateTopic, consumer.Topic())
		}
	}

	g.consumers = append(g.consumers, consumer)

	return nil
}

// Topics lists the consumed topics in registration order.
func (g *ConsumerGroup) Topics() []string {
	topics := make([]string, len(g.consumers))
	for i, consumer := range g.consumers {
		topics[i] = consumer.Topic()
	}

	return topics
}

// Start subscribes every consumer. If one topic cannot be subscribed, the
// consumers started before it are stopped and nothing keeps running.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for _, started := range g.consumers[:i] {
				_ = started.Shutdown()
			}

			return fmt.Errorf("start %s consumer: %w", consumer.Topic(), err)
		}
	}

	g.logger.Info("event consumers started", zap.Strings("topics", g.Topics()))

	return nil
}

// Run starts the group, blocks until ctx is done and then shuts it down.
func (g *ConsumerGroup) Run(ctx context.Context) error {
	if err := g.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return g.Shutdown()
}

// Shutdown stops every consumer, even after a failure, then closes the
// subscriber. All failures are joined into the returned error.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("stopping event consumers")

	var errs []error

	for _, consumer := range g.consumers {
		if err := consumer.Shutdown(); err != nil {
			g.logger.Warn("event consumer did not stop cleanly",
				zap.String("topic", consumer.Topic()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("stop %s consumer: %w", consumer.Topic(), err))
		}
	}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}

	return errors.Join(errs...)
}
