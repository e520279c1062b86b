// Command migrate applies the embedded schema migrations and reports drift.
//
//	migrate up      apply pending migrations
//	migrate repair  apply pending migrations, then fail if declared columns are still missing
//	migrate status  list every migration and whether it has been applied
package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/urfave/cli/v2"

	"github.com/tripwise/backend/internal/config"
	"github.com/tripwise/backend/internal/logging"
	"github.com/tripwise/backend/internal/schema"
)

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "manage the TripWise database schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Postgres connection string",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			slog.SetDefault(logging.NewWithWriter(os.Stdout, c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{Name: "up", Usage: "apply pending migrations", Action: up},
			{Name: "repair", Usage: "apply pending migrations and verify declared columns", Action: repair},
			{Name: "status", Usage: "show migration status", Action: status},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

// open returns a Repairer over DATABASE_URL. The caller closes the *sql.DB.
func open(c *cli.Context) (*sql.DB, *schema.Repairer, error) {
	dsn := c.String("database-url")
	if dsn == "" {
		// Fall back to config so a .env file is honoured.
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		dsn = cfg.DatabaseURL
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	r, err := schema.NewRepairer(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, r, nil
}

func up(c *cli.Context) error {
	db, r, err := open(c)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := r.Repair(c.Context)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "versions", report.Applied)
	return nil
}

func repair(c *cli.Context) error {
	db, r, err := open(c)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := r.Repair(c.Context)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "versions", report.Applied)

	if len(report.Missing) == 0 {
		slog.Info("schema matches declared columns")
		return nil
	}
	tables := make([]string, 0, len(report.Missing))
	for t := range report.Missing {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		slog.Warn("schema drift remains", "table", t, "missing_columns", report.Missing[t])
	}
	return cli.Exit("schema drift remains after repair", 2)
}

func status(c *cli.Context) error {
	db, r, err := open(c)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := r.Status(c.Context)
	if err != nil {
		return err
	}
	for _, s := range results {
		applied := ""
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(c.App.Writer, "%-8d %-10s %-20s %s\n", s.Source.Version, s.State, applied, s.Source.Path)
	}
	return nil
}
