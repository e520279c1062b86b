// Package service contains the business logic for the TripWise backend.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tripwise/backend/internal/domain"
	"github.com/tripwise/backend/internal/repo"
)

// maxUserIDLength is the width of tripwise_trip.user_id.
const maxUserIDLength = 255

// TripService implements business logic for Trip operations.
type TripService struct {
	repo repo.TripRepo
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo) *TripService {
	return &TripService{repo: r}
}

// Save validates and persists a new trip. The JSON documents are stored as
// submitted; only their presence and well-formedness are checked.
// Returns domain.ErrValidation listing every missing field at once.
func (s *TripService) Save(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Save: %w", err)
	}
	result, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Save: %w", err)
	}
	return result, nil
}

// GetByID returns a single trip by ID.
// Returns domain.ErrNotFound if no trip with that ID exists.
func (s *TripService) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return result, nil
}

// ListByUser returns all trips saved under userID in insertion order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListByUser(ctx context.Context, userID string) ([]domain.Trip, error) {
	trips, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListByUser: %w", err)
	}
	if trips == nil {
		return []domain.Trip{}, nil
	}
	return trips, nil
}

// validateTrip enforces the write-time rules for a trip.
//   - userId and createdAt must be set.
//   - The four structured fields must be present, non-null, well-formed JSON.
//
// Field names in messages use the request's JSON keys.
func validateTrip(t domain.Trip) error {
	var missing []string
	if strings.TrimSpace(t.UserID) == "" {
		missing = append(missing, "userId")
	}
	if t.CreatedAt.IsZero() {
		missing = append(missing, "createdAt")
	}

	docs := []struct {
		key string
		raw json.RawMessage
	}{
		{"dailyLogs", t.DailyLogs},
		{"restStops", t.RestStops},
		{"routeData", t.RouteData},
		{"tripDetails", t.TripDetails},
	}
	var malformed []string
	for _, d := range docs {
		trimmed := bytes.TrimSpace(d.raw)
		switch {
		case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
			missing = append(missing, d.key)
		case !json.Valid(trimmed):
			malformed = append(malformed, d.key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required field(s): %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	if len(malformed) > 0 {
		return fmt.Errorf("%w: malformed JSON in field(s): %s", domain.ErrValidation, strings.Join(malformed, ", "))
	}

	if utf8.RuneCountInString(t.UserID) > maxUserIDLength {
		return fmt.Errorf("%w: userId must be at most %d characters", domain.ErrValidation, maxUserIDLength)
	}

	// Postgres text and jsonb cannot hold U+0000.
	var withNUL []string
	if strings.ContainsRune(t.UserID, 0) {
		withNUL = append(withNUL, "userId")
	}
	for _, d := range docs {
		if containsNUL(d.raw) {
			withNUL = append(withNUL, d.key)
		}
	}
	if t.Notes != nil && strings.ContainsRune(*t.Notes, 0) {
		withNUL = append(withNUL, "notes")
	}
	if len(withNUL) > 0 {
		return fmt.Errorf("%w: NUL character not allowed in field(s): %s", domain.ErrValidation, strings.Join(withNUL, ", "))
	}
	return nil
}

// containsNUL reports whether any string or object key in the JSON document
// decodes to text containing U+0000. raw must already be valid JSON.
func containsNUL(raw json.RawMessage) bool {
	if !bytes.Contains(raw, []byte(`\u0000`)) {
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if s, ok := tok.(string); ok && strings.ContainsRune(s, 0) {
			return true
		}
	}
}
