package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/sign-gateway/internal/domain"
	"github.com/Rrens/sign-gateway/internal/security"
)

const (
	minPasswordLength = 6
	// bcrypt only accepts this many bytes, whatever the rune count
	maxPasswordBytes = 72
)

// AuthService registers users, checks credentials and verifies bearer tokens
type AuthService struct {
	users      domain.UserRepository
	hasher     *security.PasswordHasher
	jwtManager *security.JWTManager
	// compared against when the email is unknown so both login failures cost the same
	dummyHash string
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	users domain.UserRepository,
	hasher *security.PasswordHasher,
	jwtManager *security.JWTManager,
) *AuthService {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		log.Warn().Err(err).Msg("failed to prepare dummy password hash")
	}
	return &AuthService{
		users:      users,
		hasher:     hasher,
		jwtManager: jwtManager,
		dummyHash:  dummy,
		now:        time.Now,
	}
}

// Register creates a new user account and issues a token
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)

	if name == "" || email == "" || input.Password == "" {
		return nil, domain.Validationf("Name, email, and password are required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, domain.Validationf("Password must be at least %d characters", minPasswordLength)
	}
	if len(input.Password) > maxPasswordBytes {
		return nil, domain.Validationf("Password must be at most %d bytes", maxPasswordBytes)
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    s.now().UTC(),
	}

	inserted, err := s.users.PutIfAbsent(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	if !inserted {
		return nil, domain.ErrDuplicateUser
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user registered")

	return &domain.AuthResult{Token: token, User: user}, nil
}

// Login authenticates a user and issues a fresh token
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, domain.Validationf("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Verify(s.dummyHash, input.Password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, input.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &domain.AuthResult{Token: token, User: user}, nil
}

// Verify checks a bearer token and returns the caller it was issued to
func (s *AuthService) Verify(token string) (*domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrMissingToken
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	return &domain.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
