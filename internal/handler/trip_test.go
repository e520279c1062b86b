package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/backend/internal/domain"
	"github.com/tripwise/backend/internal/handler"
	"github.com/tripwise/backend/internal/middleware"
	"github.com/tripwise/backend/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	save       func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID    func(ctx context.Context, id int64) (domain.Trip, error)
	listByUser func(ctx context.Context, userID string) ([]domain.Trip, error)
}

func (m *mockTripServicer) Save(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.save(ctx, t)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripServicer) ListByUser(ctx context.Context, userID string) ([]domain.Trip, error) {
	return m.listByUser(ctx, userID)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mock into a chi router the
// same way main.go does.
func newHTTPHandler(svc handler.TripServicer) http.Handler {
	r := chi.NewRouter()
	handler.NewServer(svc, nil, "test").Mount(r, nil)
	return r
}

func tripFixture() domain.Trip {
	notes := "first leg"
	return domain.Trip{
		ID:          7,
		UserID:      "42",
		CreatedAt:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		DailyLogs:   json.RawMessage(`[{"day":1}]`),
		RestStops:   json.RawMessage(`[]`),
		RouteData:   json.RawMessage(`{"distance":120}`),
		TripDetails: json.RawMessage(`{"from":"A","to":"B"}`),
		Notes:       &notes,
	}
}

func rawBody(s string) *bytes.Buffer {
	return bytes.NewBufferString(s)
}

const validTripJSON = `{
	"userId": "42",
	"createdAt": "2024-03-01T10:00:00Z",
	"dailyLogs": [{"day":1}],
	"restStops": [],
	"routeData": {"distance":120},
	"tripDetails": {"from":"A","to":"B"}
}`

// ---- POST /trip/save/ ------------------------------------------------------

func TestSaveTrip_returns201WithTripID(t *testing.T) {
	var got domain.Trip
	svc := &mockTripServicer{
		save: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
			got = trip
			trip.ID = 7
			return trip, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trip/save/", rawBody(validTripJSON))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body handler.SaveTripResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Trip saved successfully", body.Message)
	assert.Equal(t, int64(7), body.TripID)

	assert.Equal(t, "42", got.UserID)
	assert.True(t, got.CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.JSONEq(t, `{"distance":120}`, string(got.RouteData))
	assert.JSONEq(t, `[]`, string(got.RestStops))
	assert.Nil(t, got.Notes)
}

func TestSaveTrip_acceptsNumericUserIDAndNotes(t *testing.T) {
	var got domain.Trip
	svc := &mockTripServicer{
		save: func(_ context.Context, trip domain.Trip) (domain.Trip, error) {
			got = trip
			trip.ID = 1
			return trip, nil
		},
	}
	body := `{"userId":42,"createdAt":"2024-03-01T10:00:00+02:00","dailyLogs":[],"restStops":[],"routeData":{},"tripDetails":{},"notes":"hello"}`

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trip/save/", rawBody(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "42", got.UserID)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "hello", *got.Notes)
}

func TestSaveTrip_rejectsWrongJSONTypes(t *testing.T) {
	cases := map[string]string{
		"userId object":     `{"userId":{},"createdAt":"2024-03-01T10:00:00Z"}`,
		"createdAt number":  `{"userId":"1","createdAt":12}`,
		"createdAt garbage": `{"userId":"1","createdAt":"yesterday"}`,
		"notes number":      `{"userId":"1","createdAt":"2024-03-01T10:00:00Z","notes":5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &mockTripServicer{
				save: func(context.Context, domain.Trip) (domain.Trip, error) {
					t.Fatal("service must not be called")
					return domain.Trip{}, nil
				},
			}
			rec := httptest.NewRecorder()
			newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trip/save/", rawBody(body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp handler.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "validation_error", resp.Error.Code)
		})
	}
}

func TestSaveTrip_returns400OnMalformedBody(t *testing.T) {
	svc := &mockTripServicer{}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trip/save/", rawBody(`{"userId":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveTrip_returns400OnValidationError(t *testing.T) {
	svc := &mockTripServicer{
		save: func(context.Context, domain.Trip) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("service.TripService.Save: %w: missing required field(s): dailyLogs", domain.ErrValidation)
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trip/save/", rawBody(`{"userId":"1"}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "missing required field(s): dailyLogs", resp.Error.Message)
}

func TestSaveTrip_returns500OnServiceError(t *testing.T) {
	svc := &mockTripServicer{
		save: func(context.Context, domain.Trip) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("db down")
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trip/save/", rawBody(validTripJSON)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

// ---- GET /trip/user/{userID}/ ----------------------------------------------

func TestListTripsByUser_returnsSavedTrips(t *testing.T) {
	svc := &mockTripServicer{
		listByUser: func(_ context.Context, userID string) ([]domain.Trip, error) {
			require.Equal(t, "42", userID)
			return []domain.Trip{tripFixture()}, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trip/user/42/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.EqualValues(t, 7, body[0]["id"])
	assert.Equal(t, "42", body[0]["user_id"])
	assert.Equal(t, "2024-03-01T10:00:00Z", body[0]["created_at"])
	assert.Equal(t, map[string]any{"distance": float64(120)}, body[0]["route_data"])
	assert.Equal(t, "first leg", body[0]["notes"])
	assert.Contains(t, body[0], "daily_logs")
	assert.Contains(t, body[0], "rest_stops")
	assert.Contains(t, body[0], "trip_details")
}

func TestListTripsByUser_returnsEmptyArray(t *testing.T) {
	svc := &mockTripServicer{
		listByUser: func(context.Context, string) ([]domain.Trip, error) {
			return []domain.Trip{}, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trip/user/999/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListTripsByUser_canonicalisesLeadingZeros(t *testing.T) {
	var got string
	svc := &mockTripServicer{
		listByUser: func(_ context.Context, userID string) ([]domain.Trip, error) {
			got = userID
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trip/user/042/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", got)
}

func TestListTripsByUser_nonNumericIs404(t *testing.T) {
	svc := &mockTripServicer{}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trip/user/abc/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- GET /trip/{tripID}/ ---------------------------------------------------

func TestGetTrip_returnsTrip(t *testing.T) {
	svc := &mockTripServicer{
		getByID: func(_ context.Context, id int64) (domain.Trip, error) {
			require.Equal(t, int64(7), id)
			return tripFixture(), nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trip/7/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.TripResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(7), body.ID)
	assert.JSONEq(t, `{"from":"A","to":"B"}`, string(body.TripDetails))
}

func TestGetTrip_returns404WhenMissing(t *testing.T) {
	svc := &mockTripServicer{
		getByID: func(context.Context, int64) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("repo: %w", domain.ErrNotFound)
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trip/123/", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not_found", resp.Error.Code)
}

// ---- round trip ------------------------------------------------------------

// memTrips is a minimal in-memory TripServicer for save-then-list flows.
type memTrips struct {
	trips []domain.Trip
}

func (m *memTrips) Save(_ context.Context, t domain.Trip) (domain.Trip, error) {
	t.ID = int64(len(m.trips) + 1)
	m.trips = append(m.trips, t)
	return t, nil
}
func (m *memTrips) GetByID(_ context.Context, id int64) (domain.Trip, error) {
	for _, t := range m.trips {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Trip{}, domain.ErrNotFound
}
func (m *memTrips) ListByUser(_ context.Context, userID string) ([]domain.Trip, error) {
	out := []domain.Trip{}
	for _, t := range m.trips {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestSaveThenList_roundTripsTripDetails(t *testing.T) {
	h := newHTTPHandler(&memTrips{})
	body := `{"userId":"42","createdAt":"2024-01-01T00:00:00Z","dailyLogs":[],"restStops":[],"routeData":{},"tripDetails":{"miles":100}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trip/save/", rawBody(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trip/user/42/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []struct {
		TripDetails struct {
			Miles int `json:"miles"`
		} `json:"trip_details"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, 100, list[0].TripDetails.Miles)
}

func TestSaveTrip_returns413WhenBodyTooLarge(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.NewMaxBodySizeHandler(64))
	handler.NewServer(&mockTripServicer{}, nil, "test").Mount(r, nil)

	req := httptest.NewRequest(http.MethodPost, "/trip/save/", rawBody(validTripJSON))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "payload_too_large", resp.Error.Code)
}

// pgRejectingRepo stands in for a database that refuses values the column
// types cannot hold; reaching it means validation let the value through.
type pgRejectingRepo struct{}

func (pgRejectingRepo) Create(context.Context, domain.Trip) (domain.Trip, error) {
	return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: value too long for type character varying(255)")
}
func (pgRejectingRepo) GetByID(context.Context, int64) (domain.Trip, error) {
	return domain.Trip{}, domain.ErrNotFound
}
func (pgRejectingRepo) ListByUser(context.Context, string) ([]domain.Trip, error) {
	return nil, nil
}

func TestSaveTrip_valuesTheColumnsCannotHoldAre400(t *testing.T) {
	cases := map[string]string{
		"userId over 255 characters": `{"userId":"` + strings.Repeat("9", 256) + `","createdAt":"2024-01-01T00:00:00Z","dailyLogs":[],"restStops":[],"routeData":{},"tripDetails":{}}`,
		"NUL in tripDetails":         `{"userId":"42","createdAt":"2024-01-01T00:00:00Z","dailyLogs":[],"restStops":[],"routeData":{},"tripDetails":{"from":"a\u0000b"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHTTPHandler(service.NewTripService(pgRejectingRepo{}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trip/save/", rawBody(body)))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp handler.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "validation_error", resp.Error.Code)
		})
	}
}
