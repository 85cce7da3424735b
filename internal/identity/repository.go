package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// Repository persists users.
type Repository interface {
	// FindByEmailOrUsername returns any user holding either value.
	FindByEmailOrUsername(ctx context.Context, email, username string) (Profile, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (Profile, error)
	Create(ctx context.Context, user NewUser) (Profile, error)
}

// PgxQuerier is the subset of *pgxpool.Pool the Postgres repository needs.
type PgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db PgxQuerier
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db PgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByEmailOrUsername is used to reject duplicate registrations.
func (r *PostgresRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT id, username, email, created_at FROM users
        WHERE email = $1 OR username = $2 LIMIT 1`, email, username)
	return scanPgProfile(row)
}

// FindByEmail fetches a user, including the password hash, by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`, email)
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Username, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user by email: %w", err)
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}

// FindByID fetches the sanitized user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Profile, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return Profile{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, username, email, created_at FROM users WHERE id = $1`, userID)
	return scanPgProfile(row)
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user NewUser) (Profile, error) {
	id := uuid.New()
	createdAt := time.Now().UTC().Truncate(time.Microsecond)
	_, err := r.db.Exec(ctx, `INSERT INTO users (id, username, email, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)`, id, user.Username, user.Email, user.PasswordHash, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Profile{}, ErrConflict
		}
		return Profile{}, fmt.Errorf("insert user: %w", err)
	}
	return Profile{ID: id.String(), Username: user.Username, Email: user.Email, CreatedAt: createdAt}, nil
}

func scanPgProfile(row pgx.Row) (Profile, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		p         Profile
	)
	if err := row.Scan(&id, &p.Username, &p.Email, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("scan user: %w", err)
	}
	p.ID = id.String()
	p.CreatedAt = createdAt.UTC()
	return p, nil
}
