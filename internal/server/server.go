package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/tradelm/tradelm-ai/internal/chat"
	"github.com/tradelm/tradelm-ai/internal/config"
	"github.com/tradelm/tradelm-ai/internal/tagging"
)

// ServiceName appears in the health payload and log output.
const ServiceName = "tradelm-ai"

// Server is the HTTP boundary of the AI microservice.
type Server struct {
	cfg      *config.Config
	orch     *chat.Orchestrator
	tagger   *tagging.Tagger
	logger   *slog.Logger
	validate *validator.Validate
	router   chi.Router
	http     *http.Server
}

// New creates a Server around the injected orchestrator and tagger.
func New(cfg *config.Config, orch *chat.Orchestrator, tagger *tagging.Tagger, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		orch:     orch,
		tagger:   tagger,
		logger:   logger,
		validate: validator.New(),
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			s.cfg.Backend.BaseURL,
			"http://localhost:8000",
			"http://127.0.0.1:8000",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{AuthHeader, "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/health", s.handleHealth)

	// Everything else requires the shared microservice secret.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.Auth.Secret))
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		r.Use(jsonContentType)

		r.Post("/tag-trade", s.handleTagTrade)
		r.Post("/chat/{session_id}", s.handleChat)
	})
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the router (used by tests).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.logger.Info("server starting", slog.String("addr", addr), slog.String("service", ServiceName))
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
