package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/library-seat-reservation/internal/middleware"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/queue"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/watch"
)

// msgNoBookings is returned alongside an empty list so thin clients can
// render the empty state verbatim.
const msgNoBookings = "No bookings found."

// BookingStore is the slice of the booking repository the handlers need.
type BookingStore interface {
	Book(ctx context.Context, userID, seatID string, start, end time.Time) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID, userID string) (string, error)
	ListByUser(ctx context.Context, userID string) ([]repository.BookingDetail, error)
}

// BookingHandler serves booking creation, listing and cancellation. After a
// committed write it publishes a seat change event (stream consumers
// re-fetch) and a booking lifecycle event to the broker; both are best
// effort since the write itself has already succeeded.
type BookingHandler struct {
	Bookings BookingStore
	Seats    SeatStore
	Bus      *watch.Bus
	Publish  func(ctx context.Context, ev queue.BookingEvent) error // nil disables broker events
	Log      zerolog.Logger
}

func NewBookingHandler(bookings BookingStore, seats SeatStore, bus *watch.Bus,
	publish func(ctx context.Context, ev queue.BookingEvent) error, log zerolog.Logger) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Seats: seats, Bus: bus, Publish: publish, Log: log}
}

type createBookingReq struct {
	SeatID    string `json:"seat_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type bookingListResp struct {
	Bookings []repository.BookingDetail `json:"bookings"`
	Message  string                     `json:"message,omitempty"`
}

// parseWindowTime accepts RFC3339 as well as the minute-precision
// datetime-local format browsers submit ("2006-01-02T15:04").
func parseWindowTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("invalid time format")
}

// Create handles POST /v1/bookings. Booking insert and seat flip are one
// transaction; a failure surfaces to the caller instead of silently
// dropping the state change.
func (h *BookingHandler) Create(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SeatID == "" || req.StartTime == "" || req.EndTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id, start_time and end_time are required"})
	}
	start, err := parseWindowTime(req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time"})
	}
	end, err := parseWindowTime(req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time"})
	}
	if !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.Book(ctx, userID, req.SeatID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, repository.ErrSeatUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not available"})
		default:
			h.Log.Error().Err(err).Str("seat_id", req.SeatID).Msg("create booking failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}

	h.notify(ctx, watch.KindUpdate, b, queue.BookingCreated)
	return c.JSON(http.StatusCreated, b)
}

// List handles GET /v1/bookings: the caller's bookings, every status,
// newest first, each joined with seat name and section.
func (h *BookingHandler) List(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		h.Log.Error().Err(err).Msg("list bookings failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	resp := bookingListResp{Bookings: list}
	if len(list) == 0 {
		resp.Bookings = []repository.BookingDetail{}
		resp.Message = msgNoBookings
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel handles POST /v1/bookings/:id/cancel. Status flip and seat release
// are one transaction; the refreshed booking list is returned, mirroring
// the re-fetch the original client performed after cancelling.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	seatID, err := h.Bookings.Cancel(ctx, bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, repository.ErrNotCancellable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not active"})
		default:
			h.Log.Error().Err(err).Str("booking_id", bookingID).Msg("cancel booking failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
		}
	}

	h.notify(ctx, watch.KindUpdate, &model.Booking{ID: bookingID, SeatID: seatID, UserID: userID}, queue.BookingCancelled)

	list, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		h.Log.Error().Err(err).Msg("re-fetch after cancel failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	resp := bookingListResp{Bookings: list}
	if len(list) == 0 {
		resp.Bookings = []repository.BookingDetail{}
		resp.Message = msgNoBookings
	}
	return c.JSON(http.StatusOK, resp)
}

// notify publishes the seat change event and the broker booking event.
// Failures are logged only.
func (h *BookingHandler) notify(ctx context.Context, kind string, b *model.Booking, bookingKind string) {
	if err := h.Bus.Publish(ctx, watch.SeatChannel, watch.Event{Kind: kind, ID: b.SeatID}); err != nil {
		h.Log.Error().Err(err).Msg("publish seat change failed")
	}
	if h.Publish == nil {
		return
	}
	ev := queue.BookingEvent{
		Kind:       bookingKind,
		BookingID:  b.ID,
		UserID:     b.UserID,
		SeatID:     b.SeatID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if seat, err := h.Seats.GetByID(ctx, b.SeatID); err == nil {
		ev.SeatName = seat.Name
		ev.Section = seat.Section
	}
	if !b.StartTime.IsZero() {
		ev.StartTime = b.StartTime.Format(time.RFC3339)
		ev.EndTime = b.EndTime.Format(time.RFC3339)
	}
	if err := h.Publish(ctx, ev); err != nil {
		h.Log.Error().Err(err).Str("kind", bookingKind).Msg("publish booking event failed")
	}
}
