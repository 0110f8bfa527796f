package server

import (
	"net/http"

	"github.com/agentstation/stocksync/internal/mockvendor"
	"github.com/agentstation/stocksync/internal/server/handlers"
	"github.com/agentstation/stocksync/internal/server/middleware"
	"github.com/agentstation/stocksync/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	h := handlers.New(s.store, s.runner, s.cache, s.logger, s.version)

	routes := s.registerRoutes(mux, h)
	return s.applyMiddleware(mux, routes)
}

// registerRoutes registers all routes and returns their paths, used as
// metric labels.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) map[string]bool {
	prefix := s.config.PathPrefix
	routes := map[string]bool{}
	handle := func(path string, fn http.HandlerFunc) {
		mux.HandleFunc(path, fn)
		routes[path] = true
	}

	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	handle("/health", h.HandleHealth)
	handle(prefix+"/health", h.HandleHealth)
	handle(prefix+"/ready", h.HandleReady)

	handle("/products", only(http.MethodGet, h.HandleListProducts))
	handle(prefix+"/products", only(http.MethodGet, h.HandleListProducts))
	handle(prefix+"/stock-out-events", only(http.MethodGet, h.HandleListStockOuts))

	handle(prefix+"/sync", only(http.MethodPost, h.HandleSync))
	handle(prefix+"/sync/last", only(http.MethodGet, h.HandleLastSync))

	if s.config.MetricsEnabled && s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
		routes["/metrics"] = true
	}
	if s.config.MockVendor {
		mockvendor.Mount(mux)
		routes[mockvendor.Path] = true
	}
	return routes
}

// only restricts fn to one method.
func only(method string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			response.MethodNotAllowed(w, r.Method)
			return
		}
		fn(w, r)
	}
}

// applyMiddleware wraps handler with the middleware stack, outermost first.
func (s *Server) applyMiddleware(handler http.Handler, routes map[string]bool) http.Handler {
	cfg := s.config
	stack := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	}

	if s.metrics != nil {
		stack = append(stack, middleware.Metrics(s.metrics, func(r *http.Request) string {
			if routes[r.URL.Path] {
				return r.URL.Path
			}
			return "other"
		}))
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		stack = append(stack, middleware.CORS(corsConfig))
	}

	if s.rateLimiter != nil {
		stack = append(stack, middleware.RateLimit(s.rateLimiter))
	}

	return middleware.Chain(stack...)(handler)
}
