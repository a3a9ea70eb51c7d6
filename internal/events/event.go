// Package events defines the link lifecycle events published on the bus and
// the handlers the consumer binary runs for them.
package events

import "time"

const (
	TopicLinkCreated      = "link.created"
	TopicLinkDeleted      = "link.deleted"
	TopicLinkInconsistent = "link.inconsistent"
)

// LinkCreatedEvent is emitted when a shorten request produced a link.
type LinkCreatedEvent struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Custom    bool      `json:"custom"`
	Reused    bool      `json:"reused"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	Principal string    `json:"principal"`
}

// LinkDeletedEvent is emitted when an administrator removed a link.
type LinkDeletedEvent struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	DeletedAt time.Time `json:"deletedAt"`
	DeletedBy string    `json:"deletedBy"`
}

// LinkInconsistentEvent reports store keys left behind by a half-finished
// create or delete.
type LinkInconsistentEvent struct {
	ID         string    `json:"id"`
	Op         string    `json:"op"`
	Key        string    `json:"key"`
	Orphans    []string  `json:"orphans"`
	Reason     string    `json:"reason"`
	DetectedAt time.Time `json:"detectedAt"`
}
