package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/middleware"
)

// DefaultMaxBodyBytes matches the 10 MiB JSON limit of the proxy.
const DefaultMaxBodyBytes int64 = 10 << 20

// RouterOptions tunes the middleware chain.
type RouterOptions struct {
	// MaxBodyBytes caps request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// AllowedOrigins lists CORS origins; empty means "*".
	AllowedOrigins []string
}

// NewRouter constructs and returns an HTTP handler that serves the AI
// gateway proxy API.
//
// Parameters:
//
//	gatewayHandler - handler for the health, generate and validate endpoints
//	metrics        - Prometheus collectors; nil disables instrumentation and /metrics
//	logger         - structured logger for request logging middleware
//	opts           - body limit and CORS origins
//
// Routes:
//
//	GET  /api/health           → gatewayHandler.Health
//	POST /api/gemini/generate  → gatewayHandler.Generate (JSON only)
//	GET  /api/gemini/validate  → gatewayHandler.Validate
//	GET  /metrics              → Prometheus exposition
//
// Middleware chain (applied in order):
//  1. RequestID                  - tags each request with an id
//  2. WithRequestLogging(logger) - logs incoming requests
//  3. Recoverer                  - turns handler panics into 500s
//  4. cors.Handler               - CORS for the browser client
//  5. RequestSize                - caps the body size
//  6. metrics.Instrument         - request count and latency
func NewRouter(
	gatewayHandler *GatewayHandler,
	metrics *middleware.Metrics,
	logger *zap.Logger,
	opts RouterOptions,
) http.Handler {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(chiMiddleware.RequestSize(maxBody))
	if metrics != nil {
		r.Use(metrics.Instrument)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", gatewayHandler.Health)

		r.Route("/gemini", func(r chi.Router) {
			// Only allow requests with Content-Type: application/json
			r.With(chiMiddleware.AllowContentType("application/json")).
				Post("/generate", gatewayHandler.Generate)
			r.Get("/validate", gatewayHandler.Validate)
		})
	})

	return r
}
