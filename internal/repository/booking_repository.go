package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// BookingRepo provides CRUD operations for bookings. Creating and cancelling
// a booking both touch the seats table as well; those write pairs run inside
// a single transaction with the seat row locked, so a booking can never be
// recorded against a seat that stays marked available (or vice versa).
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingDetail is a booking joined with its seat's name and section, as
// returned by ListByUser for display.
type BookingDetail struct {
	ID        string    `json:"id"`
	SeatID    string    `json:"seat_id"`
	SeatName  string    `json:"seat_name"`
	Section   string    `json:"section"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

// Book atomically inserts an active booking and flips the seat to
// unavailable. The seat row is locked for the duration of the transaction;
// if its is_available flag is already false the transaction is rolled back
// and ErrSeatUnavailable returned. The created booking is returned with its
// generated id.
func (r *BookingRepo) Book(ctx context.Context, userID, seatID string, start, end time.Time) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var available bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_available FROM seats WHERE id = ? FOR UPDATE`, seatID).
		Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	if !available {
		return nil, ErrSeatUnavailable
	}

	b := &model.Booking{
		ID:        uuid.NewString(),
		SeatID:    seatID,
		UserID:    userID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		Status:    model.BookingActive,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, seat_id, user_id, start_time, end_time, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.SeatID, b.UserID, b.StartTime, b.EndTime, b.Status)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE seats SET is_available = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		seatID)
	if err != nil {
		return nil, fmt.Errorf("update seat: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return b, nil
}

// Cancel atomically marks the booking cancelled and flips its seat back to
// available. Ownership is enforced: a booking belonging to another user
// yields ErrForbidden. Only active bookings can be cancelled. Returns the
// seat id so callers can publish a change event for it.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID, userID string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		ownerID, seatID, status string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, seat_id, status FROM bookings WHERE id = ? FOR UPDATE`, bookingID).
		Scan(&ownerID, &seatID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrBookingNotFound
		}
		return "", err
	}
	if ownerID != userID {
		return "", ErrForbidden
	}
	if status != model.BookingActive {
		return "", ErrNotCancellable
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ?`, model.BookingCancelled, bookingID)
	if err != nil {
		return "", fmt.Errorf("update booking: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE seats SET is_available = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, seatID)
	if err != nil {
		return "", fmt.Errorf("update seat: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return seatID, nil
}

// ListByUser returns all of a user's bookings, any status, newest first by
// start time, each joined with the seat's name and section.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.seat_id, s.name, s.section, b.start_time, b.end_time, b.status
	           FROM bookings b
	           JOIN seats s ON s.id = b.seat_id
	           WHERE b.user_id = ?
	           ORDER BY b.start_time DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BookingDetail
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.SeatID, &d.SeatName, &d.Section, &d.StartTime, &d.EndTime, &d.Status); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a single booking row.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT id, seat_id, user_id, start_time, end_time, status, created_at
	           FROM bookings WHERE id = ?`
	var b model.Booking
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.SeatID, &b.UserID, &b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}
