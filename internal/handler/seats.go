package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/library-seat-reservation/internal/middleware"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/watch"
)

// SeatStore is the slice of the seat repository the handlers need.
type SeatStore interface {
	List(ctx context.Context, section string) ([]model.Seat, error)
	GetByID(ctx context.Context, id string) (*model.Seat, error)
	Create(ctx context.Context, s *model.Seat) error
	Update(ctx context.Context, id, name, section string, isAvailable bool) error
	Delete(ctx context.Context, id string) error
}

// SeatHandler serves seat browsing: the filtered listing and the live
// change stream.
type SeatHandler struct {
	Seats SeatStore
	Bus   *watch.Bus
	Log   zerolog.Logger
}

func NewSeatHandler(seats SeatStore, bus *watch.Bus, log zerolog.Logger) *SeatHandler {
	return &SeatHandler{Seats: seats, Bus: bus, Log: log}
}

// sectionFilter reads and validates the ?section query parameter. Absent
// means "all".
func sectionFilter(c echo.Context) (string, error) {
	section := c.QueryParam("section")
	if section == "" {
		section = model.SectionAll
	}
	if section != model.SectionAll && !model.ValidSection(section) {
		return "", fmt.Errorf("unknown section %q", section)
	}
	return section, nil
}

type seatListResp struct {
	Section string       `json:"section"`
	Seats   []model.Seat `json:"seats"`
}

// List handles GET /v1/seats. "all" (or no filter) returns every section's
// seats; any other value returns only seats of that section. Always ordered
// by name ascending.
func (h *SeatHandler) List(c echo.Context) error {
	section, err := sectionFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	seats, err := h.Seats.List(ctx, section)
	if err != nil {
		h.Log.Error().Err(err).Str("section", section).Msg("list seats failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if seats == nil {
		seats = []model.Seat{}
	}
	return c.JSON(http.StatusOK, seatListResp{Section: section, Seats: seats})
}

// Stream handles GET /v1/seats/stream (SSE). The full filtered seat list is
// sent immediately, then re-fetched and re-sent whenever anything in the
// seat collection changes. The stream also ends when its user signs out, so
// a revoked session does not keep receiving data. Changing the filter is a
// new stream request; teardown happens with the request context.
func (h *SeatHandler) Stream(c echo.Context) error {
	section, err := sectionFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	userID := middleware.UserID(c)

	ctx := c.Request().Context()

	seatSub, err := h.Bus.Subscribe(ctx, watch.SeatChannel)
	if err != nil {
		// No change feed available: degrade to a single snapshot.
		h.Log.Warn().Err(err).Msg("seat stream degraded to snapshot")
		return h.List(c)
	}
	defer seatSub.Close()

	sessSub, err := h.Bus.Subscribe(ctx, watch.SessionChannel)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stream unavailable"})
	}
	defer sessSub.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := h.sendSnapshot(c, section); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sessSub.Events():
			if !ok {
				return nil
			}
			if ev.Kind == watch.KindSignedOut && ev.ID == userID {
				// The session behind this stream ended.
				return nil
			}
		case _, ok := <-seatSub.Events():
			if !ok {
				return nil
			}
			// Any seat change, regardless of which seat: re-fetch the whole
			// filtered list and push it.
			if err := h.sendSnapshot(c, section); err != nil {
				return err
			}
		}
	}
}

func (h *SeatHandler) sendSnapshot(c echo.Context, section string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	seats, err := h.Seats.List(ctx, section)
	if err != nil {
		h.Log.Error().Err(err).Str("section", section).Msg("stream re-fetch failed")
		return err
	}
	if seats == nil {
		seats = []model.Seat{}
	}
	payload, err := json.Marshal(seatListResp{Section: section, Seats: seats})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", payload); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
