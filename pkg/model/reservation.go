package model

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation is a counseling session booking. DesiredDate is the slot key:
// at most one confirmed reservation may occupy a given exact timestamp.
// Reservations are never deleted; cancellation is a status transition.
type Reservation struct {
	ID          string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string            `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Email       string            `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	LineUserID  string            `json:"line_user_id,omitempty" bson:"line_user_id,omitempty"`
	DesiredDate time.Time         `json:"desired_date" bson:"desired_date" validate:"required"`
	Content     string            `json:"content,omitempty" bson:"content,omitempty" validate:"omitempty,max=1000"`
	Status      ReservationStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
}
