// Package events publishes booking lifecycle events to Kafka. Publishing
// is a fire-and-forget side effect of a successful write: the booking
// service logs publish failures but never fails the request over them.
package events

import (
	"context"
	"time"

	"resbook/pkg/model"
)

// Event kinds, chosen by the write path from what changed.
const (
	KindCreated       = "created"
	KindUpdated       = "updated"
	KindStatusChanged = "status_changed"
	KindCancelled     = "cancelled"
)

// BookingEvent is the payload written to the booking events topic.
type BookingEvent struct {
	Kind       string        `json:"kind"`
	Booking    model.Booking `json:"booking"`
	OldStatus  string        `json:"old_status,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventType is the wire-level event type header value, namespaced so
// consumers can filter across topics.
func (e BookingEvent) EventType() string {
	return "booking." + e.Kind
}

type Publisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent) error
	Close() error
}
