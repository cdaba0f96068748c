package router

import (
	"net/http"

	"onefine/internal/handler"
	"onefine/internal/metrics"
	"onefine/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Deps holds everything the router wires together.
type Deps struct {
	Products *handler.ProductHandler
	Auth     *handler.AuthHandler
	Uploads  *handler.UploadHandler

	// Verifier checks bearer tokens on mutating routes.
	Verifier middleware.TokenVerifier

	// LoginLimiter throttles login attempts; nil disables it.
	LoginLimiter *middleware.RateLimiter

	Recorder       metrics.Recorder
	MetricsHandler http.Handler // served on /metrics when set

	AllowedOrigins []string
	Logger         zerolog.Logger
}

// New creates a new HTTP router with all routes and middleware configured.
func New(deps Deps) http.Handler {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	r := chi.NewRouter()

	// Outermost first: Recovery -> RequestID -> Logging -> Metrics -> CORS
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Metrics(recorder))
	r.Use(middleware.CORS(deps.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusNotFound, `{"error":"not found","code":"NOT_FOUND"}`)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed, `{"error":"method not allowed"}`)
	})

	r.Get("/health", handler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/uploads/{filename}", deps.Uploads.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.LoginLimiter != nil {
				r.Use(deps.LoginLimiter.Middleware)
			}
			r.Post("/auth/login", deps.Auth.Login)
		})

		r.Get("/products", deps.Products.List)

		// Everything that changes the catalogue requires a session token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(deps.Verifier, deps.Logger))
			r.Post("/products", deps.Products.Create)
			r.Put("/products/{id}", deps.Products.Update)
			r.Delete("/products/{id}", deps.Products.Delete)
			r.Post("/upload", deps.Uploads.Upload)
		})
	})

	return r
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
