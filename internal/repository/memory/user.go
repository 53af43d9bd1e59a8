package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/Rrens/sign-gateway/internal/domain"
)

// UserRepository keeps users in process memory. Contents are lost on restart.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository creates an empty in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

// GetByEmail returns the user or domain.ErrNotFound
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[normalize(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// PutIfAbsent stores user unless its email is already taken
func (r *UserRepository) PutIfAbsent(ctx context.Context, user *domain.User) (bool, error) {
	key := normalize(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[key]; exists {
		return false, nil
	}
	r.users[key] = *user
	return true, nil
}

// Count returns the number of stored users
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
