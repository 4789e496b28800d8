package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// Create inserts a seat. On success the seat's ID is populated.
func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const q = `INSERT INTO seats (id, name, section, is_available)
	           VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.Name, s.Section, s.IsAvailable)
	return err
}

// List retrieves seats ordered by name ascending. The section argument
// filters by equality; model.SectionAll (or empty) means no filter.
func (r *SeatRepo) List(ctx context.Context, section string) ([]model.Seat, error) {
	q := `SELECT id, name, section, is_available, created_at, updated_at
	      FROM seats`
	var args []interface{}
	if section != "" && section != model.SectionAll {
		q += ` WHERE section = ?`
		args = append(args, section)
	}
	q += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.Name, &s.Section, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id string) (*model.Seat, error) {
	const q = `SELECT id, name, section, is_available, created_at, updated_at
	           FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.Name, &s.Section, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Update changes name, section and availability of a seat. Returns
// ErrSeatNotFound when no row matches.
func (r *SeatRepo) Update(ctx context.Context, id, name, section string, isAvailable bool) error {
	const q = `UPDATE seats
	           SET name = ?, section = ?, is_available = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, section, isAvailable, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}

// Delete removes a seat. Bookings referencing the seat keep their rows; the
// foreign key is declared ON DELETE RESTRICT so a seat with bookings cannot
// be removed.
func (r *SeatRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seats WHERE id = ?`, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1451") {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}
