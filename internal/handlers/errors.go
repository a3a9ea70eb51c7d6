package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

const (
	msgInvalidURL   = "Invalid URL format"
	msgKeyTaken     = "Custom short URL already exists, please choose another name"
	msgMintFailed   = "Failed to generate short URL, please try again later"
	msgInternal     = "Internal server error"
	msgLinkNotFound = "Short URL does not exist"
)

// errorMapper turns service errors into huma status errors. Store detail is
// logged and never returned to the client.
type errorMapper struct {
	publishInconsistent messaging.Publish[events.LinkInconsistentEvent]
	clock               clock.Clock
	logger              *zap.Logger
}

func (m *errorMapper) toHTTPError(ctx context.Context, err error) error {
	var partial *shortener.PartialWriteError

	switch {
	case errors.Is(err, shortener.ErrInvalidURL):
		return huma.Error400BadRequest(msgInvalidURL)
	case errors.Is(err, shortener.ErrInvalidCustomKey), errors.Is(err, shortener.ErrCustomKeysDisabled):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, shortener.ErrKeyTaken):
		return huma.Error409Conflict(msgKeyTaken)
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound(msgLinkNotFound)
	case errors.Is(err, shortener.ErrKeySpaceExhausted):
		m.logger.Error("key space exhausted", zap.Error(err))

		return huma.Error500InternalServerError(msgMintFailed)
	case errors.As(err, &partial):
		m.reportPartialWrite(ctx, partial)

		return huma.Error500InternalServerError(msgInternal)
	default:
		m.logger.Error("request failed", zap.Error(err))

		return huma.Error500InternalServerError(msgInternal)
	}
}

func (m *errorMapper) reportPartialWrite(ctx context.Context, partial *shortener.PartialWriteError) {
	m.logger.Error("partial write left orphaned keys",
		zap.String("op", partial.Op),
		zap.String("key", string(partial.Key)),
		zap.Strings("orphans", partial.Orphans),
		zap.Error(partial.Err),
	)

	reason := ""
	if partial.Err != nil {
		reason = partial.Err.Error()
	}

	event := &events.LinkInconsistentEvent{
		ID:         uuid.NewString(),
		Op:         partial.Op,
		Key:        string(partial.Key),
		Orphans:    partial.Orphans,
		Reason:     reason,
		DetectedAt: m.clock.Now(),
	}

	if err := m.publishInconsistent(ctx, event); err != nil {
		m.logger.Error("failed to publish inconsistency event",
			zap.String("key", event.Key),
			zap.Error(err),
		)
	}
}
