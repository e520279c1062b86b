package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tripwise/backend/internal/domain"
)

// SaveTripRequest is the body of POST /trip/save/. Every field is kept raw so
// the handler can tell an absent key from a present one and pass the JSON
// documents through untouched.
type SaveTripRequest struct {
	UserID      json.RawMessage `json:"userId"`
	CreatedAt   json.RawMessage `json:"createdAt"`
	DailyLogs   json.RawMessage `json:"dailyLogs"`
	RestStops   json.RawMessage `json:"restStops"`
	RouteData   json.RawMessage `json:"routeData"`
	TripDetails json.RawMessage `json:"tripDetails"`
	Notes       json.RawMessage `json:"notes"`
}

// SaveTripResponse is the body of a successful POST /trip/save/.
type SaveTripResponse struct {
	Message string `json:"message"`
	TripID  int64  `json:"tripId"`
}

// TripResponse is the public view of a saved trip.
type TripResponse struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	CreatedAt   time.Time       `json:"created_at"`
	DailyLogs   json.RawMessage `json:"daily_logs"`
	RestStops   json.RawMessage `json:"rest_stops"`
	RouteData   json.RawMessage `json:"route_data"`
	TripDetails json.RawMessage `json:"trip_details"`
	Notes       *string         `json:"notes"`
}

// SaveTrip handles POST /trip/save/.
func (s *Server) SaveTrip(w http.ResponseWriter, r *http.Request) {
	var body SaveTripRequest
	if status, msg, ok := decodeJSON(r, &body); !ok {
		writeJSON(w, r, status, decodeBody(status, msg))
		return
	}

	trip, err := requestToTrip(body)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	saved, err := s.trips.Save(r.Context(), trip)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, r, http.StatusBadRequest, validationBody(err))
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, SaveTripResponse{
		Message: "Trip saved successfully",
		TripID:  saved.ID,
	})
}

// ListTripsByUser handles GET /trip/user/{userID}/.
// The path segment is an integer; it is matched against the string user_id
// column in its canonical decimal form, so /trip/user/042/ finds trips saved
// under "42".
func (s *Server) ListTripsByUser(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeJSON(w, r, http.StatusNotFound, notFoundBody("user not found"))
		return
	}

	trips, err := s.trips.ListByUser(r.Context(), strconv.FormatInt(n, 10))
	if err != nil {
		internalError(w, r, err)
		return
	}

	data := make([]TripResponse, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, r, http.StatusOK, data)
}

// GetTrip handles GET /trip/{tripID}/.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tripID"), 10, 64)
	if err != nil {
		writeJSON(w, r, http.StatusNotFound, notFoundBody("trip not found"))
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, r, http.StatusNotFound, notFoundBody("trip not found"))
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, tripToResponse(trip))
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts the raw request into a domain.Trip.
// Absent keys become zero values and are reported by the service; this
// function only rejects values of the wrong JSON type.
func requestToTrip(body SaveTripRequest) (domain.Trip, error) {
	userID, err := rawUserID(body.UserID)
	if err != nil {
		return domain.Trip{}, err
	}

	var createdAt time.Time
	if !isAbsent(body.CreatedAt) {
		var s string
		if err := json.Unmarshal(body.CreatedAt, &s); err != nil {
			return domain.Trip{}, errors.New("createdAt must be an RFC 3339 timestamp string")
		}
		createdAt, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("createdAt must be an RFC 3339 timestamp: %q", s)
		}
	}

	var notes *string
	if !isAbsent(body.Notes) {
		var s string
		if err := json.Unmarshal(body.Notes, &s); err != nil {
			return domain.Trip{}, errors.New("notes must be a string")
		}
		notes = &s
	}

	return domain.Trip{
		UserID:      userID,
		CreatedAt:   createdAt,
		DailyLogs:   body.DailyLogs,
		RestStops:   body.RestStops,
		RouteData:   body.RouteData,
		TripDetails: body.TripDetails,
		Notes:       notes,
	}, nil
}

// rawUserID accepts a JSON string or number. Numbers are kept as their
// literal text, so 42 and "42" name the same user.
func rawUserID(raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", errors.New("userId must be a string or a number")
}

// isAbsent reports whether a raw field was omitted or explicitly null.
func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// tripToResponse converts a domain.Trip into its public JSON shape.
func tripToResponse(t domain.Trip) TripResponse {
	return TripResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		DailyLogs:   t.DailyLogs,
		RestStops:   t.RestStops,
		RouteData:   t.RouteData,
		TripDetails: t.TripDetails,
		Notes:       t.Notes,
	}
}
