package model

import "time"

// SlotLock is an advisory lock serializing concurrent submissions for the same
// desired_date. Locks expire via a TTL index so a crashed request cannot hold a
// slot hostage.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
