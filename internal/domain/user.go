package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserCreate represents user registration data
type UserCreate struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PublicUser is the user view returned to clients
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Public strips fields that never leave the service
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// AuthResult is returned by registration and login
type AuthResult struct {
	Token string
	User  *User
}

// Identity is the caller established from a verified token
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// UserRepository stores users keyed by email.
// PutIfAbsent must be atomic: of two concurrent calls for one email exactly one returns true.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	PutIfAbsent(ctx context.Context, user *User) (bool, error)
}
