package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextplay/nextplay-auth/internal/identity"
)

func newPostgresRepoWithMock(t *testing.T) (*identity.PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return identity.NewPostgresRepository(mock), mock
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "alice", "a@x.com", "$2a$10$hash", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p, err := repo.Create(context.Background(), identity.NewUser{Username: "alice", Email: "a@x.com", PasswordHash: "$2a$10$hash"})
	require.NoError(t, err)
	_, err = uuid.Parse(p.ID)
	assert.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.False(t, p.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateUniqueViolationIsConflict(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "alice", "a@x.com", "h", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), identity.NewUser{Username: "alice", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, identity.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateOtherErrorIsWrapped(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	down := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "alice", "a@x.com", "h", pgxmock.AnyArg()).
		WillReturnError(down)

	_, err := repo.Create(context.Background(), identity.NewUser{Username: "alice", Email: "a@x.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, identity.ErrConflict)
}

func TestPostgresFindByEmail(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)
	id := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow(id, "alice", "a@x.com", "$2a$10$hash", created))

	u, err := repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id.String(), u.ID)
	assert.Equal(t, "$2a$10$hash", u.PasswordHash)
	assert.True(t, created.Equal(u.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNoRowsIsNotFound(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("nobody@x.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`WHERE email = \$1 OR username = \$2`).
		WithArgs("nobody@x.com", "nobody").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, identity.ErrNotFound)
	_, err = repo.FindByEmailOrUsername(ctx, "nobody@x.com", "nobody")
	assert.ErrorIs(t, err, identity.ErrNotFound)
	_, err = repo.FindByID(ctx, id.String())
	assert.ErrorIs(t, err, identity.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByIDMalformedIDSkipsQuery(t *testing.T) {
	repo, mock := newPostgresRepoWithMock(t)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, identity.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
