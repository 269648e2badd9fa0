// Package postgres implements clinauth.CredentialStore on PostgreSQL.
//
// Expected schema:
//
//	create table users (
//	    id                    text primary key,
//	    email                 text not null unique,
//	    password_hash         text not null,
//	    role                  text not null,
//	    failed_login_attempts int  not null default 0,
//	    locked_until          timestamptz,
//	    active                boolean not null default true,
//	    created_at            timestamptz not null default now(),
//	    updated_at            timestamptz not null default now()
//	);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	clinauth "github.com/caremesh/clinauth"
)

const uniqueViolation = "23505"

// Store implements [clinauth.CredentialStore] over a users table.
type Store struct {
	db *sql.DB
}

var _ clinauth.CredentialStore = (*Store)(nil)

// Open connects to PostgreSQL via the pgx stdlib driver with pool defaults
// suited to auth traffic.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

const userColumns = `id, email, password_hash, role, failed_login_attempts, locked_until, active`

func (s *Store) FindByEmail(ctx context.Context, email string) (*clinauth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = lower($1)`, email)
	return scanUser(row)
}

func (s *Store) FindByID(ctx context.Context, id string) (*clinauth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (s *Store) Create(ctx context.Context, u *clinauth.User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, email, password_hash, role, failed_login_attempts, locked_until, active)
		values ($1, lower($2), $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.FailedLoginAttempts, u.LockedUntil, u.Active,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return clinauth.ErrUserExists
		}
		return storeErr(err)
	}
	return nil
}

func (s *Store) UpdateLockState(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update users
		set failed_login_attempts = $2, locked_until = $3, updated_at = now()
		where id = $1`,
		id, failedAttempts, lockedUntil,
	)
	if err != nil {
		return storeErr(err)
	}
	return requireRow(res)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update users
		set password_hash = $2, updated_at = now()
		where id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return storeErr(err)
	}
	return requireRow(res)
}

// SetActive enables or disables an account. Disabled accounts fail login
// and refresh with clinauth.ErrAccountDisabled.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		update users
		set active = $2, updated_at = now()
		where id = $1`,
		id, active,
	)
	if err != nil {
		return storeErr(err)
	}
	return requireRow(res)
}

func scanUser(row *sql.Row) (*clinauth.User, error) {
	var (
		u           clinauth.User
		lockedUntil sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.FailedLoginAttempts, &lockedUntil, &u.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, clinauth.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		u.LockedUntil = &t
	}
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return clinauth.ErrUserNotFound
	}
	return nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", clinauth.ErrStoreUnavailable, err)
}
