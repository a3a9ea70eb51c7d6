package events

import (
	"context"
	"fmt"

	"github.com/serroba/shortlink/internal/messaging"
	"go.uber.org/zap"
)

// OrphanCleaner deletes store keys left behind by a partial write.
type OrphanCleaner interface {
	Repair(ctx context.Context, orphans []string) (int, error)
}

// Repairer handles link.inconsistent events.
type Repairer struct {
	cleaner OrphanCleaner
	logger  *zap.Logger
}

// NewRepairer creates a Repairer.
func NewRepairer(cleaner OrphanCleaner, logger *zap.Logger) *Repairer {
	return &Repairer{cleaner: cleaner, logger: logger}
}

// Handle removes the orphans named by event. Store errors are returned so
// the event is redelivered.
func (r *Repairer) Handle(ctx context.Context, event *LinkInconsistentEvent) error {
	if event.Key == "" || len(event.Orphans) == 0 {
		return fmt.Errorf("inconsistency event %s names no orphans: %w", event.ID, messaging.ErrPermanent)
	}

	removed, err := r.cleaner.Repair(ctx, event.Orphans)
	if err != nil {
		return fmt.Errorf("repair %q: %w", event.Key, err)
	}

	r.logger.Info("repaired partial write",
		zap.String("eventId", event.ID),
		zap.String("op", event.Op),
		zap.String("key", event.Key),
		zap.Strings("orphans", event.Orphans),
		zap.Int("removed", removed),
	)

	return nil
}
