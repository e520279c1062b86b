// Package domain contains the core data types for the TripWise backend.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

import (
	"encoding/json"
	"time"
)

// Trip is one saved journey: its route, rest stops, daily duty logs and the
// form details it was planned from.
//
// UserID is a plain string. It is not a foreign key to Driver, so trips can be
// saved for identifiers that have no account.
type Trip struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	CreatedAt   time.Time       `json:"created_at"`
	DailyLogs   json.RawMessage `json:"daily_logs"`
	RestStops   json.RawMessage `json:"rest_stops"`
	RouteData   json.RawMessage `json:"route_data"`
	TripDetails json.RawMessage `json:"trip_details"`
	Notes       *string         `json:"notes"` // nil when no notes were submitted
}
