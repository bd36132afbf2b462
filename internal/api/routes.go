// Route registration and go-chi router setup.
// Public routes (/health, /metrics, /auth/*) and JWT-protected routes (/api/v1/*).
package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skillsteps/skillsteps/internal/api/handlers"
	apmiddleware "github.com/skillsteps/skillsteps/internal/api/middleware"
	domainauth "github.com/skillsteps/skillsteps/internal/domain/auth"
	"github.com/skillsteps/skillsteps/internal/domain/learning"
	"github.com/skillsteps/skillsteps/internal/infra/logger"
)

// Deps are the services the router wires into handlers.
type Deps struct {
	DB        *sql.DB
	Generator handlers.Generator
	Logger    *logger.Logger
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)

	// ===== PUBLIC ROUTES (no auth required) =====

	// Health check, used by load balancers and health probes
	r.Get("/health", healthHandler(deps.DB))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	authHandler := handlers.NewAuthHandler(domainauth.NewAuthService(deps.DB, log))
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register) // POST /auth/register
		r.Post("/login", authHandler.Login)       // POST /auth/login
	})

	// ===== PROTECTED ROUTES (JWT required via AuthMiddleware) =====

	aiHandler := handlers.NewAIHandler(deps.Generator)
	pathHandler := handlers.NewPathHandler(learning.NewPathStore(deps.DB))
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.AuthMiddleware)

		r.Post("/ai", aiHandler.AI)             // POST /api/v1/ai
		r.Post("/generate", aiHandler.Generate) // POST /api/v1/generate

		r.Route("/learning-paths", func(r chi.Router) {
			r.Post("/", pathHandler.CreatePath)       // POST /api/v1/learning-paths
			r.Get("/", pathHandler.ListPaths)         // GET /api/v1/learning-paths
			r.Get("/{id}", pathHandler.GetPath)       // GET /api/v1/learning-paths/{id}
			r.Delete("/{id}", pathHandler.DeletePath) // DELETE /api/v1/learning-paths/{id}
		})
		r.Get("/saved-paths", pathHandler.ListPaths) // GET /api/v1/saved-paths
	})

	return r
}

// healthHandler reports ok while the database answers a ping.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`)) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	}
}
