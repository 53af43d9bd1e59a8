package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Rrens/sign-gateway/internal/api/response"
	"github.com/Rrens/sign-gateway/internal/domain"
	"github.com/Rrens/sign-gateway/internal/service"
)

var validate = validator.New()

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type authResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeError(w, r, registerValidationError(err))
		return
	}

	result, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, authResponse{
		Message: "User registered successfully",
		Token:   result.Token,
		User:    result.User.Public(),
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		writeError(w, r, domain.Validationf("Email and password are required"))
		return
	}

	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, authResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    result.User.Public(),
	})
}

func registerValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return domain.Validationf("%s", err.Error())
	}

	for _, e := range validationErrors {
		if e.Tag() == "required" {
			return domain.Validationf("Name, email, and password are required")
		}
	}
	for _, e := range validationErrors {
		switch e.Tag() {
		case "min":
			return domain.Validationf("Password must be at least %s characters", e.Param())
		case "max":
			return domain.Validationf("Password must be at most %s characters", e.Param())
		}
	}
	return domain.Validationf("Name, email, and password are required")
}
