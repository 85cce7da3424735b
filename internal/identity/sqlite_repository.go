package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLiteRepository implements Repository on an embedded SQLite database.
// created_at is stored as unix milliseconds.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository builds a SQLite-backed identity repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, email, created_at FROM users
        WHERE email = ? OR username = ? LIMIT 1`, email, username)
	return scanSQLiteProfile(row)
}

func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?`, email)
	var (
		user      User
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user by email: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, email, created_at FROM users WHERE id = ?`, id)
	return scanSQLiteProfile(row)
}

func (r *SQLiteRepository) Create(ctx context.Context, user NewUser) (Profile, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, username, email, password_hash, created_at)
        VALUES (?, ?, ?, ?, ?)`, id, user.Username, user.Email, user.PasswordHash, createdAt.UnixMilli())
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return Profile{}, ErrConflict
		}
		return Profile{}, fmt.Errorf("insert user: %w", err)
	}
	return Profile{ID: id, Username: user.Username, Email: user.Email, CreatedAt: createdAt}, nil
}

func scanSQLiteProfile(row *sql.Row) (Profile, error) {
	var (
		p         Profile
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("scan user: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	return p, nil
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
