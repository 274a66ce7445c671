// Package handler serves the JSON API over chi.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/bandscore/internal/exam"
	appI18n "github.com/pavelanni/bandscore/internal/i18n"
	"github.com/pavelanni/bandscore/internal/model"
)

// Accounts stores users and their login sessions.
type Accounts interface {
	CreateUser(ctx context.Context, u model.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ToggleUserActive(ctx context.Context, id int64) (bool, error)
	CreateAuthSession(ctx context.Context, userID int64, ttl time.Duration) (model.AuthSession, error)
	GetAuthSession(ctx context.Context, id string) (*model.AuthSession, error)
	DeleteAuthSession(ctx context.Context, id string) error
}

// Config holds HTTP-level options.
type Config struct {
	JWTSecret   []byte
	TokenTTL    time.Duration
	CORSOrigins []string
	// Checks are run by /healthz; a failing check makes it return 503.
	Checks map[string]func(context.Context) error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc      *exam.Service
	accounts Accounts
	config   Config
	validate *validator.Validate
}

// New creates a new Handler.
func New(svc *exam.Service, accounts Accounts, cfg Config) *Handler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	return &Handler{
		svc:      svc,
		accounts: accounts,
		config:   cfg,
		validate: newValidator(),
	}
}

// Router builds the complete HTTP handler with middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if len(h.config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(appI18n.Middleware)
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/auth/logout", h.handleLogout)
			r.Get("/auth/me", h.handleMe)

			r.Post("/sessions", h.handleStartSession)
			r.Get("/sessions/{sessionID}", h.handleGetSession)
			r.Post("/sessions/{sessionID}/listening", h.handleSubmitListening)
			r.Post("/sessions/{sessionID}/reading", h.handleSubmitReading)
			r.Post("/sessions/{sessionID}/writing", h.handleSubmitWriting)


			r.Post("/writing/submissions", h.handleSubmitWritingResponse)
			r.Get("/writing/submissions/{id}", h.handleGetWritingSubmission)

			r.Route("/admin", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(requireRole(model.UserRoleExaminer, model.UserRoleAdmin))
					r.Get("/writing/submissions", h.handleWritingQueue)
					r.Post("/writing/submissions/{id}/review", h.handleStartReview)
					r.Post("/writing/submissions/{id}/mark", h.handleMarkSubmission)
					r.Post("/writing/submissions/{id}/suggest", h.handleSuggestMarks)
					r.Post("/tests/{testID}/grade", h.handleGradeTest)
				})
				r.Group(func(r chi.Router) {
					r.Use(requireRole(model.UserRoleAdmin))
					r.Post("/sessions/{sessionID}/writing-bands", h.handleRecordWritingBands)
					r.Get("/results", h.handleResults)
					r.Get("/tests", h.handleListTests)
					r.Post("/tests/import", h.handleImport)
					r.Get("/users", h.handleListUsers)
					r.Post("/users", h.handleCreateUser)
					r.Post("/users/{userID}/toggle", h.handleToggleUserActive)
				})
			})
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.config.Checks))
	for name, check := range h.config.Checks {
		if err := check(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": checks})
}
