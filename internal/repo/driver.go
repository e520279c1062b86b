package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripwise/backend/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// DriverRepo defines the persistence operations for Drivers.
type DriverRepo interface {
	// Create inserts a new driver. A clash on username or email is reported as
	// a *domain.ConflictError naming the field.
	Create(ctx context.Context, d domain.Driver) (domain.Driver, error)

	// GetByID retrieves a driver by primary key.
	// Returns domain.ErrNotFound if no driver with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Driver, error)

	// GetByUsername retrieves a driver by exact username.
	// Returns domain.ErrNotFound if no driver has that username.
	GetByUsername(ctx context.Context, username string) (domain.Driver, error)

	// TouchLastLogin records a successful login at the given time.
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

const driverColumns = `id, username, email, password, first_name, last_name,
	is_active, is_staff, is_superuser, last_login, date_joined`

// Create inserts a driver row. Account flags come from the column defaults.
func (r *pgDriverRepo) Create(ctx context.Context, d domain.Driver) (domain.Driver, error) {
	const q = `
		INSERT INTO tripwise_driver (username, email, password, first_name, last_name)
		VALUES (@username, @email, @password, @first_name, @last_name)
		RETURNING ` + driverColumns

	args := pgx.NamedArgs{
		"username":   d.Username,
		"email":      d.Email,
		"password":   d.PasswordHash,
		"first_name": d.FirstName,
		"last_name":  d.LastName,
	}

	result, err := scanDriver(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Create: %w", mapUniqueViolation(err))
	}
	return result, nil
}

func (r *pgDriverRepo) GetByID(ctx context.Context, id int64) (domain.Driver, error) {
	const q = `SELECT ` + driverColumns + ` FROM tripwise_driver WHERE id = @id`

	result, err := scanDriver(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) GetByUsername(ctx context.Context, username string) (domain.Driver, error) {
	const q = `SELECT ` + driverColumns + ` FROM tripwise_driver WHERE username = @username`

	result, err := scanDriver(r.db.QueryRow(ctx, q, pgx.NamedArgs{"username": username}))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByUsername: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE tripwise_driver SET last_login = @at WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "at": at})
	if err != nil {
		return fmt.Errorf("repo.DriverRepo.TouchLastLogin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DriverRepo.TouchLastLogin: %w", domain.ErrNotFound)
	}
	return nil
}

func scanDriver(s scanner) (domain.Driver, error) {
	var d domain.Driver
	err := s.Scan(&d.ID, &d.Username, &d.Email, &d.PasswordHash, &d.FirstName, &d.LastName,
		&d.IsActive, &d.IsStaff, &d.IsSuperuser, &d.LastLogin, &d.DateJoined)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Driver{}, domain.ErrNotFound
		}
		return domain.Driver{}, err
	}
	return d, nil
}

// mapUniqueViolation converts a Postgres unique violation into a
// *domain.ConflictError. The field is inferred from the constraint name
// (e.g. tripwise_driver_email_key → "email"). Other errors pass through.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	for _, field := range []string{"username", "email"} {
		if strings.Contains(pgErr.ConstraintName, field) {
			return &domain.ConflictError{Field: field}
		}
	}
	return &domain.ConflictError{Field: pgErr.ConstraintName}
}
