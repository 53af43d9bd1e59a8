package security_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Rrens/sign-gateway/internal/security"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret-key-with-32-chars!!"

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := security.NewJWTManager(testSecret, 24*time.Hour)

	userID := uuid.New()
	email := "test@example.com"

	token, err := manager.GenerateToken(userID, email)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if token == "" {
		t.Fatal("token is empty")
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID mismatch: got %v, want %v", claims.UserID, userID)
	}

	if claims.Email != email {
		t.Errorf("email mismatch: got %v, want %v", claims.Email, email)
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 24*time.Hour {
		t.Errorf("validity window mismatch: got %v, want 24h", ttl)
	}
}

func TestJWTManager_InvalidToken(t *testing.T) {
	manager := security.NewJWTManager(testSecret, 24*time.Hour)

	// Invalid token format
	if _, err := manager.ValidateToken("invalid-token"); err == nil {
		t.Error("expected error for invalid token, got nil")
	}

	// Empty token
	if _, err := manager.ValidateToken(""); err == nil {
		t.Error("expected error for empty token, got nil")
	}

	// Token signed with different secret
	otherManager := security.NewJWTManager("different-secret-key-32-chars!!", 24*time.Hour)
	token, _ := otherManager.GenerateToken(uuid.New(), "test@example.com")

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expected error for token signed with different secret, got nil")
	}
}

func TestJWTManager_AlteredSignature(t *testing.T) {
	manager := security.NewJWTManager(testSecret, 24*time.Hour)

	token, err := manager.GenerateToken(uuid.New(), "test@example.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := manager.ValidateToken(tampered); err == nil {
		t.Error("expected error for altered signature, got nil")
	}
}

func TestJWTManager_Expired(t *testing.T) {
	manager := security.NewJWTManager(testSecret, -time.Minute)

	token, err := manager.GenerateToken(uuid.New(), "test@example.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

func TestJWTManager_RejectsNoneAlgorithm(t *testing.T) {
	manager := security.NewJWTManager(testSecret, 24*time.Hour)

	claims := jwt.MapClaims{
		"userId": uuid.New().String(),
		"email":  "test@example.com",
		"iss":    "sign-gateway",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expected error for unsigned token, got nil")
	}
}

func TestJWTManager_TokenTTL(t *testing.T) {
	manager := security.NewJWTManager(testSecret, 24*time.Hour)

	if manager.TokenTTL() != 24*time.Hour {
		t.Errorf("token TTL mismatch: got %v, want %v", manager.TokenTTL(), 24*time.Hour)
	}
}
