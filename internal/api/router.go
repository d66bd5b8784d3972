package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/deckforge/internal/api/middleware"
	"github.com/phrazzld/deckforge/internal/api/shared"
	"github.com/phrazzld/deckforge/internal/telemetry"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	AppName       string
	Presentations *PresentationHandler
	Logger        *slog.Logger

	// APIKeys guard the presentation routes. Empty disables authentication.
	APIKeys []string

	// CreateRateLimit and DefaultRateLimit are requests per minute per
	// client IP for creation and for every other presentation route.
	CreateRateLimit  int
	DefaultRateLimit int

	// Metrics serves /metrics when non-nil.
	Metrics     http.Handler
	HTTPMetrics *telemetry.HTTPMetrics
}

// NewRouter builds the HTTP handler for the accepting process.
func NewRouter(cfg RouterConfig) http.Handler {
	appName := cfg.AppName
	if appName == "" {
		appName = "deckforge"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Trace(log))
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cfg.HTTPMetrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{
			Status:  "ok",
			Message: "Welcome to " + appName,
		})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	createLimit := middleware.NewRateLimiter(cfg.CreateRateLimit)
	defaultLimit := middleware.NewRateLimiter(cfg.DefaultRateLimit)
	h := cfg.Presentations

	r.Route(PresentationsPath, func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.APIKeys))

		r.With(createLimit.Middleware).Post("/", h.CreatePresentation)

		r.Group(func(r chi.Router) {
			r.Use(defaultLimit.Middleware)
			r.Get("/{id}", h.GetPresentation)
			r.Get("/{id}/download", h.DownloadPresentation)
			r.Post("/{id}/configure", h.ConfigurePresentation)
		})
	})

	return r
}
