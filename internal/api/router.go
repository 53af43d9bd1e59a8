package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/sign-gateway/internal/api/handler"
	customMiddleware "github.com/Rrens/sign-gateway/internal/api/middleware"
	"github.com/Rrens/sign-gateway/internal/api/response"
	"github.com/Rrens/sign-gateway/internal/classifier"
	"github.com/Rrens/sign-gateway/internal/config"
	"github.com/Rrens/sign-gateway/internal/domain"
	"github.com/Rrens/sign-gateway/internal/security"
	"github.com/Rrens/sign-gateway/internal/service"
)

const defaultMaxBodyBytes = 10 << 20

// Dependencies are the collaborators the router cannot build from configuration alone
type Dependencies struct {
	Users domain.UserRepository
	// Classifier defaults to the configured external process
	Classifier service.Classifier
	// Limiter is optional; nil disables rate limiting
	Limiter customMiddleware.Limiter
	// Ready names the backing services /ready pings
	Ready map[string]handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) (http.Handler, error) {
	uploader, err := handler.NewUploader(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return nil, err
	}

	classifierOpts := classifier.OptionsFromConfig(cfg.Classifier)
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(classifierOpts)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(customMiddleware.Recoverer)
	r.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(middleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(middleware.SetHeader("Referrer-Policy", "no-referrer"))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Initialize security components
	jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)

	// Initialize services
	authService := service.NewAuthService(deps.Users, hasher, jwtManager)
	predictionService := service.NewPredictionService(deps.Classifier, cfg.Server.PublicURL())

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(classifierOpts)
	authHandler := handler.NewAuthHandler(authService)
	predictHandler := handler.NewPredictHandler(predictionService, uploader)

	authMiddleware := customMiddleware.NewAuthMiddleware(authService)
	jsonBody := middleware.RequestSize(defaultMaxBodyBytes)
	if cfg.Server.MaxBodyBytes > 0 {
		jsonBody = middleware.RequestSize(cfg.Server.MaxBodyBytes)
	}

	// Public routes
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", handler.ReadyCheck(deps.Ready))
	r.Handle("/signs/*", http.StripPrefix("/signs/", signFiles(cfg.Signs.Dir)))

	r.Route("/api", func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(customMiddleware.NewRateLimitMiddleware(deps.Limiter).Limit)
		}

		r.Get("/health/classifier", healthHandler.Classifier)

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Use(jsonBody)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Protected routes
		// auth is attached per route so unmatched paths still reach NotFound
		r.Route("/predict", func(r chi.Router) {
			authed := r.With(authMiddleware.Authenticate)

			authed.With(jsonBody).Post("/text", predictHandler.Text)
			authed.Post("/photo", predictHandler.Photo)
			authed.Post("/camera", predictHandler.Camera)
		})
	})

	return r, nil
}

// signFiles serves the static sign images with a day of client caching
func signFiles(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	maxAge := "public, max-age=" + strconv.Itoa(int((24 * time.Hour).Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			response.NotFound(w, "Endpoint not found")
			return
		}
		w.Header().Set("Cache-Control", maxAge)
		files.ServeHTTP(w, r)
	})
}
