package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlink/internal/messaging"
)

// Publishers bundles one typed publish function per topic.
type Publishers struct {
	Created      messaging.Publish[LinkCreatedEvent]
	Deleted      messaging.Publish[LinkDeletedEvent]
	Inconsistent messaging.Publish[LinkInconsistentEvent]
}

// NewPublishers builds the publish functions over publisher.
func NewPublishers(publisher message.Publisher) *Publishers {
	return &Publishers{
		Created:      messaging.NewPublishFunc[LinkCreatedEvent](publisher, TopicLinkCreated),
		Deleted:      messaging.NewPublishFunc[LinkDeletedEvent](publisher, TopicLinkDeleted),
		Inconsistent: messaging.NewPublishFunc[LinkInconsistentEvent](publisher, TopicLinkInconsistent),
	}
}
