package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/watch"
)

type mockSeats struct{ mock.Mock }

func (m *mockSeats) List(ctx context.Context, section string) ([]model.Seat, error) {
	args := m.Called(ctx, section)
	if s := args.Get(0); s != nil {
		return s.([]model.Seat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSeats) GetByID(ctx context.Context, id string) (*model.Seat, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*model.Seat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSeats) Create(ctx context.Context, s *model.Seat) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSeats) Update(ctx context.Context, id, name, section string, isAvailable bool) error {
	return m.Called(ctx, id, name, section, isAvailable).Error(0)
}

func (m *mockSeats) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func getSeats(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newSeatHandler(seats SeatStore) *SeatHandler {
	return NewSeatHandler(seats, watch.NewBus(nil, zerolog.Nop()), zerolog.Nop())
}

func TestSeatListDefaultsToAll(t *testing.T) {
	e := echo.New()
	seats := new(mockSeats)
	seats.On("List", mock.Anything, model.SectionAll).Return([]model.Seat{
		{ID: "s1", Name: "Seat A1", Section: "Quiet Zone", IsAvailable: true},
	}, nil)

	c, rec := getSeats(e, "/v1/seats")
	require.NoError(t, newSeatHandler(seats).List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"section":"all"`)
	assert.Contains(t, rec.Body.String(), `"Seat A1"`)
	seats.AssertExpectations(t)
}

func TestSeatListSectionFilter(t *testing.T) {
	e := echo.New()
	seats := new(mockSeats)
	seats.On("List", mock.Anything, "Study Area").Return([]model.Seat{}, nil)

	c, rec := getSeats(e, "/v1/seats?section=Study+Area")
	require.NoError(t, newSeatHandler(seats).List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seats":[]`)
	seats.AssertExpectations(t)
}

func TestSeatListRejectsUnknownSection(t *testing.T) {
	e := echo.New()
	seats := new(mockSeats)

	c, rec := getSeats(e, "/v1/seats?section=Basement")
	require.NoError(t, newSeatHandler(seats).List(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	seats.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestSeatListNilBecomesEmptySlice(t *testing.T) {
	e := echo.New()
	seats := new(mockSeats)
	seats.On("List", mock.Anything, model.SectionAll).Return(nil, nil)

	c, rec := getSeats(e, "/v1/seats")
	require.NoError(t, newSeatHandler(seats).List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seats":[]`)
}

// Without a live change feed the stream endpoint degrades to a single
// snapshot response instead of failing.
func TestSeatStreamDegradesWithoutFeed(t *testing.T) {
	e := echo.New()
	seats := new(mockSeats)
	seats.On("List", mock.Anything, model.SectionAll).Return([]model.Seat{
		{ID: "s1", Name: "Seat A1", Section: "Quiet Zone", IsAvailable: false},
	}, nil)

	c, rec := getSeats(e, "/v1/seats/stream")
	c.Set("user_id", "u1")
	require.NoError(t, newSeatHandler(seats).Stream(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Seat A1"`)
}

func TestSeatStreamRejectsUnknownSection(t *testing.T) {
	e := echo.New()
	seats := new(mockSeats)

	c, rec := getSeats(e, "/v1/seats/stream?section=Rooftop")
	c.Set("user_id", "u1")
	require.NoError(t, newSeatHandler(seats).Stream(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
