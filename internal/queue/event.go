// Package queue defines message payloads exchanged over the message broker
// and the consumer that persists them.
package queue

import (
	"time"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

// ActivityEvent is published after an activity entry has been stored.  It
// carries the whole entry so consumers never need the primary database.
type ActivityEvent struct {
	ActivityID    uint64 `json:"activity_id"`
	ReferenceID   uint64 `json:"reference_id"`
	ReferenceType string `json:"reference_type"`
	Description   string `json:"description"`
	Actor         string `json:"actor"`
	LoggedAt      string `json:"logged_at"`
}

// NewActivityEvent builds the event for a stored entry.
func NewActivityEvent(e model.ActivityLog) ActivityEvent {
	return ActivityEvent{
		ActivityID:    e.ID,
		ReferenceID:   e.ReferenceID,
		ReferenceType: string(e.ReferenceType),
		Description:   e.Description,
		Actor:         e.Actor,
		LoggedAt:      e.Date.UTC().Format(time.RFC3339),
	}
}
