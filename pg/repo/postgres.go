package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"amazobank.com/crm/pg/model"
)

const (
	uniqueViolation = "23505"
	userPKey        = "crm_user_pkey"
)

const schema = `
CREATE TABLE IF NOT EXISTS crm_user (
	id            TEXT PRIMARY KEY,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	email         TEXT NOT NULL,
	role          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'Active',
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS crm_user_email_key ON crm_user (lower(email));`

const userColumns = `id, first_name, last_name, email, role, status, password_hash, created_at, updated_at`

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(pool *pgxpool.Pool) *PostgresDB {
	return &PostgresDB{pool: pool}
}

// Connect opens a pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the user table if it does not exist.
func (p *PostgresDB) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role,
		&u.Status, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (p *PostgresDB) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	query := `INSERT INTO crm_user (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := p.pool.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Role,
		u.Status, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if mapped := uniqueViolationErr(err); mapped != nil {
		return mapped
	}
	return err
}

func (p *PostgresDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM crm_user WHERE id = $1`

	u, err := scanUser(p.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return u, nil
}

func (p *PostgresDB) ListUsers(ctx context.Context, opts model.ListOptions) ([]*model.User, error) {
	var (
		where []string
		args  []interface{}
	)
	if !opts.IncludeDisabled {
		args = append(args, model.StatusDisabled)
		where = append(where, fmt.Sprintf("status <> $%d", len(args)))
	}
	if opts.Role != "" {
		args = append(args, opts.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM crm_user`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}

func (p *PostgresDB) UpdateUser(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE crm_user
		SET first_name = $2, last_name = $3, email = $4, role = $5, status = $6, password_hash = $7, updated_at = $8
		WHERE id = $1`

	tag, err := p.pool.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Role, u.Status, u.PasswordHash, u.UpdatedAt,
	)
	if mapped := uniqueViolationErr(err); mapped != nil {
		return mapped
	}
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// uniqueViolationErr maps a unique violation to the store error for the
// constraint it hit, or returns nil for any other error.
func uniqueViolationErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	if pgErr.ConstraintName == userPKey {
		return model.ErrUserExists
	}
	return model.ErrEmailTaken
}
