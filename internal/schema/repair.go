// Package schema reconciles the live database with the tables the code
// expects. Migrations do the actual work; this package drives them through a
// goose Provider and then double-checks the result against the declared
// column list so drift left behind by hand-made changes is reported.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/tripwise/backend/migrations"
)

// Declared lists, per table, the columns the repo layer reads or writes.
var Declared = map[string][]string{
	"tripwise_driver": {
		"id", "password", "last_login", "is_superuser", "username", "first_name",
		"last_name", "email", "is_staff", "is_active", "date_joined",
	},
	"tripwise_trip": {
		"id", "user_id", "created_at", "daily_logs", "notes", "rest_stops",
		"route_data", "trip_details",
	},
}

// Report describes what a Repair run changed and what it could not fix.
type Report struct {
	// Applied holds the migration versions applied by this run, in order.
	// Empty when the database was already up to date.
	Applied []int64

	// Missing maps a declared table to the columns still absent after the
	// migrations ran. Empty on a healthy database.
	Missing map[string][]string
}

// Repairer applies the embedded migrations and verifies the declared schema.
type Repairer struct {
	db       *sql.DB
	provider *goose.Provider
}

// NewRepairer builds a Repairer over db. The caller owns db and closes it.
func NewRepairer(db *sql.DB) (*Repairer, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("schema.NewRepairer: %w", err)
	}
	return &Repairer{db: db, provider: provider}, nil
}

// Repair applies every pending migration, then inspects the declared tables.
// Running it against an up-to-date database applies nothing.
func (r *Repairer) Repair(ctx context.Context) (Report, error) {
	results, err := r.provider.Up(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("schema.Repairer.Repair: up: %w", err)
	}

	var report Report
	for _, res := range results {
		report.Applied = append(report.Applied, res.Source.Version)
	}

	report.Missing, err = r.MissingColumns(ctx)
	if err != nil {
		return report, fmt.Errorf("schema.Repairer.Repair: %w", err)
	}
	return report, nil
}

// Status returns the applied/pending state of every embedded migration.
func (r *Repairer) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema.Repairer.Status: %w", err)
	}
	return statuses, nil
}

// MissingColumns compares information_schema against Declared. A table that
// does not exist reports every declared column as missing.
func (r *Repairer) MissingColumns(ctx context.Context) (map[string][]string, error) {
	const q = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		AND   table_name   = $1`

	missing := map[string][]string{}
	for table, want := range Declared {
		rows, err := r.db.QueryContext(ctx, q, table)
		if err != nil {
			return nil, fmt.Errorf("schema.Repairer.MissingColumns: %s: %w", table, err)
		}

		have := map[string]bool{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return nil, fmt.Errorf("schema.Repairer.MissingColumns: %s: scan: %w", table, err)
			}
			have[name] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("schema.Repairer.MissingColumns: %s: rows: %w", table, err)
		}

		for _, col := range want {
			if !have[col] {
				missing[table] = append(missing[table], col)
			}
		}
	}
	return missing, nil
}

// RepairOnStartup runs Repair against dsn and never fails: every error,
// including being unable to connect, is logged and swallowed so the API can
// still start and serve its liveness endpoints.
func RepairOnStartup(ctx context.Context, dsn string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error("schema repair skipped: open database", "error", err)
		return
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("schema repair skipped: database unreachable", "error", err)
		return
	}

	repairer, err := NewRepairer(db)
	if err != nil {
		logger.Error("schema repair skipped", "error", err)
		return
	}

	report, err := repairer.Repair(ctx)
	if err != nil {
		logger.Error("schema repair failed", "error", err)
		return
	}

	logger.Info("schema repair completed", "applied", report.Applied)
	for table, cols := range report.Missing {
		logger.Warn("schema drift remains", "table", table, "missing_columns", cols)
	}
}
