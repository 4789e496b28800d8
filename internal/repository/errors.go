// Package repository defines data access for users, seats, bookings and
// refresh sessions. Sentinel errors let handlers distinguish failure modes
// without inspecting driver errors.
package repository

import "errors"

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrBookingNotFound is returned when a booking lookup yields no rows.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEmailExists is returned when a user insert hits the unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrSeatUnavailable is returned when a booking targets a seat whose
// is_available flag is false at transaction time.
var ErrSeatUnavailable = errors.New("seat is not available")

// ErrNotCancellable is returned when cancellation targets a booking that is
// not in the active status.
var ErrNotCancellable = errors.New("booking is not active")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed because of
// dependent records, such as deleting a seat that still has bookings.
// Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
