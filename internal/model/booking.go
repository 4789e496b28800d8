package model

import "time"

// Booking status values. A booking is created active and may transition to
// cancelled by its owner. No code path here moves a booking to completed;
// that transition is owned by an external process.
const (
	BookingActive    = "active"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Booking records one user's reservation of one seat for one time window.
//
// Fields:
//
//	ID        – uuid primary key.
//	SeatID    – seat being reserved.
//	UserID    – user who made the booking.
//	StartTime – start of the reserved window (UTC).
//	EndTime   – end of the reserved window (UTC).
//	Status    – active | completed | cancelled.
//	CreatedAt – creation timestamp.
type Booking struct {
	ID        string    `json:"id"`         // bookings.id
	SeatID    string    `json:"seat_id"`    // bookings.seat_id
	UserID    string    `json:"user_id"`    // bookings.user_id
	StartTime time.Time `json:"start_time"` // bookings.start_time
	EndTime   time.Time `json:"end_time"`   // bookings.end_time
	Status    string    `json:"status"`     // bookings.status
	CreatedAt time.Time `json:"created_at"` // bookings.created_at
}
