// Package queue defines message payloads exchanged over the message broker.
package queue

// Booking event kinds.
const (
	BookingCreated   = "created"
	BookingCancelled = "cancelled"
)

// BookingEvent is published whenever a booking is created or cancelled. It
// carries enough information for downstream consumers to log or notify
// without querying the primary database.
type BookingEvent struct {
	Kind       string `json:"kind"`
	BookingID  string `json:"booking_id"`
	UserID     string `json:"user_id"`
	SeatID     string `json:"seat_id"`
	SeatName   string `json:"seat_name"`
	Section    string `json:"section"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	OccurredAt string `json:"occurred_at"`
}
