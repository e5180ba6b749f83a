package model

import "time"

// Resource is a bookable asset (a room, a desk, a court). Capacity is
// informational only and is not enforced against concurrent bookings.
type Resource struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=255"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=10000"`
	IsAvailable bool      `json:"is_available" bson:"is_available"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// ResourceUpdate carries a partial resource update.
type ResourceUpdate struct {
	Name        string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Capacity    *int    `json:"capacity,omitempty" validate:"omitempty,min=1,max=10000"`
	IsAvailable *bool   `json:"is_available,omitempty"`
}
