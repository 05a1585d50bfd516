package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/storefront-api/app"
	"github.com/upb/storefront-api/config"
	"github.com/upb/storefront-api/internal/observability"
	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/utils"
)

// routePrefixes serves every resource both directly and behind the /api proxy prefix
var routePrefixes = []string{"", "/api"}

// SetupRoutes configures all application routes and middleware. The auth
// middlewares sit on the root router so they also run for unknown paths.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(observability.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	// CORS runs before authentication so failures still carry CORS headers
	r.Use(corsHandler(deps.Config.CORS))

	// Authentication and access policy
	r.Use(deps.Interceptor.Authenticate)
	r.Use(deps.AccessPolicy.Enforce)
	r.Use(middleware.Preflight)

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	for _, prefix := range routePrefixes {
		r.Route(prefix+"/auth", func(r chi.Router) {
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Get("/me", deps.AuthHandler.HandleMe)
			r.Get("/count", deps.AuthHandler.HandleCount)
		})

		r.Route(prefix+"/products", func(r chi.Router) {
			r.Get("/", deps.ProductHandler.HandleList)
			r.Get("/json", deps.ProductHandler.HandleList)
			r.Get("/{id}", deps.ProductHandler.HandleGet)
		})

		r.Route(prefix+"/admin", func(r chi.Router) {
			r.Get("/users", deps.AdminHandler.HandleListUsers)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	return r
}

// corsHandler reflects allowed origins instead of answering "*" so that
// credentialed requests are accepted by browsers
func corsHandler(cfg config.CORSConfig) func(http.Handler) http.Handler {
	patterns := cfg.AllowedOrigins
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return originAllowed(patterns, origin)
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodPatch,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	})
}

// originAllowed matches origin against patterns holding at most one "*"
func originAllowed(patterns []string, origin string) bool {
	origin = strings.ToLower(origin)
	for _, pattern := range patterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "*" || pattern == origin {
			return true
		}
		prefix, suffix, ok := strings.Cut(pattern, "*")
		if ok && len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}
