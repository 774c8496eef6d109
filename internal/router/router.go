package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/FACorreiaa/wanderplan/docs"
	"github.com/FACorreiaa/wanderplan/internal/api/auth"
	"github.com/FACorreiaa/wanderplan/internal/api/itinerary"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ItineraryHandler       itinerary.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	// GenerationRateLimit guards the generation endpoint. Optional.
	GenerationRateLimit func(http.Handler) http.Handler
	AllowedOrigins      []string
	Logger              *slog.Logger
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (request id, logging, recoverer) is applied by the
// caller before mounting this router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Mount("/itineraries", ItineraryRoutes(cfg))
		})
	})

	return r
}

// ItineraryRoutes expects the caller to have authenticated the request.
func ItineraryRoutes(cfg *Config) http.Handler {
	h := cfg.ItineraryHandler
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(cfg.Logger, types.RoleUser, types.RolePremium))
		if cfg.GenerationRateLimit != nil {
			r.Use(cfg.GenerationRateLimit)
		}
		r.Post("/request", h.RequestItineraryHandler)
	})

	r.Get("/my-itineraries", h.GetMyItinerariesHandler)
	r.Get("/by-user/{userID}", h.GetItinerariesByUserHandler)
	r.Post("/validate", h.ValidatePlanHandler)
	r.Get("/{id}", h.GetItineraryHandler)
	r.Put("/{id}/plan", h.UpdatePlanHandler)
	r.Delete("/{id}", h.DeleteItineraryHandler)

	return r
}
