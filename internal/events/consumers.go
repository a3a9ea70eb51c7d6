package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlink/internal/messaging"
	"go.uber.org/zap"
)

// RegisterConsumers adds one consumer per lifecycle topic to group.
func RegisterConsumers(
	group *messaging.ConsumerGroup,
	subscriber message.Subscriber,
	sink *LogSink,
	repairer *Repairer,
	logger *zap.Logger,
) error {
	consumers := []messaging.TopicConsumer{
		messaging.NewConsumer(subscriber, TopicLinkCreated, sink.LinkCreated, logger),
		messaging.NewConsumer(subscriber, TopicLinkDeleted, sink.LinkDeleted, logger),
		messaging.NewConsumer(subscriber, TopicLinkInconsistent, repairer.Handle, logger),
	}

	for _, consumer := range consumers {
		if err := group.Add(consumer); err != nil {
			return err
		}
	}

	return nil
}
