// Package testutil provides shared helpers for integration tests.
// Helpers skip automatically when TEST_DATABASE_URL is not set, so unit
// tests run without a database.
package testutil

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/tripwise/backend/internal/schema"
)

// dsnEnv names the variable that opts a test run into integration tests.
const dsnEnv = "TEST_DATABASE_URL"

// RunWithSchema is the body of a TestMain for packages whose tests need the
// tables. When a test database is configured it brings the schema up to date
// through schema.Repairer before running the tests; otherwise it runs them
// directly and the DB-backed tests skip themselves.
func RunWithSchema(m *testing.M) int {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		return m.Run()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("testutil.RunWithSchema: open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("testutil.RunWithSchema: ping: %v", err)
	}

	r, err := schema.NewRepairer(db)
	if err != nil {
		log.Fatalf("testutil.RunWithSchema: %v", err)
	}
	report, err := r.Repair(ctx)
	if err != nil {
		log.Fatalf("testutil.RunWithSchema: repair: %v", err)
	}
	if len(report.Missing) > 0 {
		log.Fatalf("testutil.RunWithSchema: columns still missing: %v", report.Missing)
	}

	return m.Run()
}

// NewPool opens a pool on the test database, closed when the test ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction on a fresh test pool and rolls it back when the
// test finishes. Repos built on the returned pgx.Tx see their own writes but
// leave nothing behind, so tests need no cleanup SQL.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := NewPool(t)

	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}

	// Registered after NewPool's cleanup, so it runs first (LIFO).
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}

// NewSQLDB opens a database/sql handle on the test database, for code that
// drives goose. Closed when the test ends.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: open: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// DSN returns the test database URL, skipping the test when it is unset.
func DSN(t *testing.T) string {
	t.Helper()
	return requireDSN(t)
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skip(dsnEnv + " not set; skipping integration test")
	}
	return dsn
}
