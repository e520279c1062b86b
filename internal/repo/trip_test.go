package repo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/backend/internal/domain"
	"github.com/tripwise/backend/internal/repo"
	"github.com/tripwise/backend/testutil"
)

// newTestTripRepo opens a transaction against the test database and returns a
// TripRepo backed by that transaction. The transaction is rolled back when the
// test finishes, giving free per-test isolation.
func newTestTripRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	return repo.NewTripRepo(testutil.NewTx(t))
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture(userID string) domain.Trip {
	notes := "Check tyre pressure in Amarillo"
	return domain.Trip{
		UserID:      userID,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DailyLogs:   json.RawMessage(`[{"date":"2024-01-01","logs":[{"status":"driving","startTime":"08:00"}],"totalMiles":420}]`),
		RestStops:   json.RawMessage(`[{"location":"Tulsa, OK","type":"fuel","duration":"30m"}]`),
		RouteData:   json.RawMessage(`{"totalDistance":1200,"segments":[{"start":"Dallas","end":"Denver"}]}`),
		TripDetails: json.RawMessage(`{"miles":100,"currentCycle":"70"}`),
		Notes:       &notes,
	}
}

func TestTripRepo_Create(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	input := tripFixture("42")
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotZero(t, got.ID, "ID should be DB-generated")
	assert.Equal(t, "42", got.UserID)
	assert.True(t, got.CreatedAt.Equal(input.CreatedAt), "CreatedAt mismatch")
	assert.JSONEq(t, string(input.DailyLogs), string(got.DailyLogs))
	assert.JSONEq(t, string(input.RestStops), string(got.RestStops))
	assert.JSONEq(t, string(input.RouteData), string(got.RouteData))
	assert.JSONEq(t, string(input.TripDetails), string(got.TripDetails))
	require.NotNil(t, got.Notes)
	assert.Equal(t, *input.Notes, *got.Notes)
}

func TestTripRepo_Create_NilNotes(t *testing.T) {
	r := newTestTripRepo(t)

	input := tripFixture("42")
	input.Notes = nil

	got, err := r.Create(context.Background(), input)

	require.NoError(t, err)
	assert.Nil(t, got.Notes, "Notes should stay NULL when not provided")
}

func TestTripRepo_GetByID(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture("7"))
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "7", got.UserID)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := newTestTripRepo(t)

	_, err := r.GetByID(context.Background(), -1)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_ListByUser_InsertionOrder(t *testing.T) {
	r := newTestTripRepo(t)
	ctx := context.Background()

	first, err := r.Create(ctx, tripFixture("list-user"))
	require.NoError(t, err)
	second, err := r.Create(ctx, tripFixture("list-user"))
	require.NoError(t, err)
	_, err = r.Create(ctx, tripFixture("someone-else"))
	require.NoError(t, err)

	trips, err := r.ListByUser(ctx, "list-user")

	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, first.ID, trips[0].ID)
	assert.Equal(t, second.ID, trips[1].ID)
}

func TestTripRepo_ListByUser_Empty(t *testing.T) {
	r := newTestTripRepo(t)

	trips, err := r.ListByUser(context.Background(), "nobody")

	require.NoError(t, err)
	assert.NotNil(t, trips, "empty result must be a non-nil slice so it encodes as []")
	assert.Empty(t, trips)
}
