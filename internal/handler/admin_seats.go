package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/watch"
)

// AdminSeatHandler serves seat management for the administrator. Every
// mutation publishes a seat change event so browsing streams re-fetch.
// It also gives an operator a manual path to flip a seat whose availability
// flag has drifted from its bookings.
type AdminSeatHandler struct {
	Seats SeatStore
	Bus   *watch.Bus
	Log   zerolog.Logger
}

func NewAdminSeatHandler(seats SeatStore, bus *watch.Bus, log zerolog.Logger) *AdminSeatHandler {
	return &AdminSeatHandler{Seats: seats, Bus: bus, Log: log}
}

type seatReq struct {
	Name        string `json:"name"`
	Section     string `json:"section"`
	IsAvailable *bool  `json:"is_available"`
}

// Create handles POST /v1/admin/seats.
func (h *AdminSeatHandler) Create(c echo.Context) error {
	var req seatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if !model.ValidSection(req.Section) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown section"})
	}

	seat := &model.Seat{Name: req.Name, Section: req.Section, IsAvailable: true}
	if req.IsAvailable != nil {
		seat.IsAvailable = *req.IsAvailable
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Seats.Create(ctx, seat); err != nil {
		h.Log.Error().Err(err).Msg("create seat failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seat failed"})
	}
	h.publish(ctx, watch.KindInsert, seat.ID)
	return c.JSON(http.StatusCreated, seat)
}

// Update handles PATCH /v1/admin/seats/:id. Missing fields keep their
// current value.
func (h *AdminSeatHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req seatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Seats.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	name := current.Name
	if v := strings.TrimSpace(req.Name); v != "" {
		name = v
	}
	section := current.Section
	if req.Section != "" {
		if !model.ValidSection(req.Section) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown section"})
		}
		section = req.Section
	}
	available := current.IsAvailable
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	if err := h.Seats.Update(ctx, id, name, section, available); err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		h.Log.Error().Err(err).Str("seat_id", id).Msg("update seat failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update seat failed"})
	}
	h.publish(ctx, watch.KindUpdate, id)

	updated, err := h.Seats.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/admin/seats/:id. A seat with bookings cannot be
// removed.
func (h *AdminSeatHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Seats.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat has bookings"})
		default:
			h.Log.Error().Err(err).Str("seat_id", id).Msg("delete seat failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete seat failed"})
		}
	}
	h.publish(ctx, watch.KindDelete, id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminSeatHandler) publish(ctx context.Context, kind, seatID string) {
	if err := h.Bus.Publish(ctx, watch.SeatChannel, watch.Event{Kind: kind, ID: seatID}); err != nil {
		h.Log.Error().Err(err).Str("seat_id", seatID).Msg("publish seat change failed")
	}
}
