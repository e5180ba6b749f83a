package model

import "time"

// BookingLock is an advisory lock serializing admission per resource.
// The conflict check and the subsequent insert are not atomic; holding
// the resource lock for the duration of the write closes that window.
// Locks auto-expire via a TTL index so a crashed writer cannot wedge a
// resource.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
