package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/sign-gateway/internal/domain"
)

func TestUserRepository_PutAndGet(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	user := &domain.User{ID: uuid.New(), Name: "A", Email: "a@example.com", PasswordHash: "hash"}
	ok, err := repo.PutIfAbsent(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByEmail(ctx, "A@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	ok, err = repo.PutIfAbsent(ctx, &domain.User{ID: uuid.New(), Email: "a@example.com"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, repo.Count())
}

func TestUserRepository_GetReturnsCopy(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	_, err := repo.PutIfAbsent(ctx, &domain.User{ID: uuid.New(), Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	got, _ := repo.GetByEmail(ctx, "a@example.com")
	got.Name = "mutated"

	again, _ := repo.GetByEmail(ctx, "a@example.com")
	assert.Equal(t, "A", again.Name)
}

func TestUserRepository_ConcurrentPutIfAbsent(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.PutIfAbsent(ctx, &domain.User{ID: uuid.New(), Email: "race@example.com"})
			require.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
}
