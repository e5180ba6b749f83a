package model

import (
	"time"
)

// Booking statuses. A booking whose status is cancelled or rejected no
// longer occupies its resource's schedule.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusRejected  = "rejected"
)

// ActiveStatuses are the statuses that participate in overlap checks.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

type Booking struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ResourceID string    `json:"resource_id" bson:"resource_id" validate:"required,mongodb"`
	UserID     string    `json:"user_id" bson:"user_id" validate:"required,min=1,max=100"`
	StartTime  time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" bson:"end_time" validate:"required"`
	Status     string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled rejected"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// IsActive reports whether the booking occupies its resource's schedule.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled && b.Status != StatusRejected
}

// BookingUpdate carries a partial update. Nil/empty fields are left
// untouched. Admission re-validation only runs when StartTime, EndTime
// and ResourceID are all present in the request.
type BookingUpdate struct {
	ResourceID string     `json:"resource_id,omitempty" validate:"omitempty,mongodb"`
	StartTime  *time.Time `json:"start_time,omitempty" validate:"omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty" validate:"omitempty"`
	Status     string     `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled rejected"`
	Notes      *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// TouchesSchedule reports whether the update carries all three scheduling
// fields. Partial updates (e.g. notes only) skip admission entirely.
func (u *BookingUpdate) TouchesSchedule() bool {
	return u.ResourceID != "" && u.StartTime != nil && u.EndTime != nil
}
