package events

import (
	"context"

	"go.uber.org/zap"
)

// LogSink records lifecycle events in the log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) LinkCreated(_ context.Context, event *LinkCreatedEvent) error {
	s.logger.Info("link created",
		zap.String("eventId", event.ID),
		zap.String("key", event.Key),
		zap.String("url", event.URL),
		zap.Bool("custom", event.Custom),
		zap.Bool("reused", event.Reused),
		zap.Time("createdAt", event.CreatedAt),
		zap.String("principal", event.Principal),
	)

	return nil
}

func (s *LogSink) LinkDeleted(_ context.Context, event *LinkDeletedEvent) error {
	s.logger.Info("link deleted",
		zap.String("eventId", event.ID),
		zap.String("key", event.Key),
		zap.String("deletedBy", event.DeletedBy),
		zap.Time("deletedAt", event.DeletedAt),
	)

	return nil
}
