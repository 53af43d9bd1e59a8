package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/sign-gateway/internal/domain"
	"github.com/Rrens/sign-gateway/internal/repository/postgres"
)

// Requires a database prepared with the migrations in /migrations.
func newTestRepository(t *testing.T) *postgres.UserRepository {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set - run as integration test")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return postgres.NewUserRepository(pool)
}

func TestUserRepository_PutIfAbsent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))

	email := uuid.NewString() + "@example.com"
	user := &domain.User{
		ID:           uuid.New(),
		Name:         "Test",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	ok, err := repo.PutIfAbsent(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.PutIfAbsent(ctx, &domain.User{ID: uuid.New(), Name: "Dup", Email: email, PasswordHash: "x", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Test", got.Name)

	_, err = repo.GetByEmail(ctx, "missing-"+email)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
