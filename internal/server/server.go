// Package server provides the HTTP server and routing for the
// scheduling pipeline API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Subham170/AI-Recruitment-sub000/internal/config"
	"github.com/Subham170/AI-Recruitment-sub000/internal/database"
	availabilityhandlers "github.com/Subham170/AI-Recruitment-sub000/internal/modules/availability/handlers"
	callshandlers "github.com/Subham170/AI-Recruitment-sub000/internal/modules/calls/handlers"
	matchinghandlers "github.com/Subham170/AI-Recruitment-sub000/internal/modules/matching/handlers"
	taskshandlers "github.com/Subham170/AI-Recruitment-sub000/internal/modules/tasks/handlers"
	"github.com/Subham170/AI-Recruitment-sub000/internal/utils"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	CoreDB  *database.DB
	IndexDB *database.DB
	Config  *config.Config

	CallsHandlers        *callshandlers.Handler
	MatchingHandlers     *matchinghandlers.Handler
	AvailabilityHandlers *availabilityhandlers.Handler
	TasksHandlers        *taskshandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	coreDB         *database.DB
	indexDB        *database.DB
	cfg            *config.Config
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		coreDB:         cfg.CoreDB,
		indexDB:        cfg.IndexDB,
		cfg:            cfg.Config,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.CoreDB, cfg.IndexDB, cfg.Config),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS for the dashboard frontend
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   utils.ParseCSV(s.cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	// Liveness probe outside the /api tree
	s.router.Get("/health", s.systemHandlers.HandleLiveness)

	s.router.Route("/api", func(r chi.Router) {
		cfg.CallsHandlers.RegisterRoutes(r)
		cfg.MatchingHandlers.RegisterRoutes(r)
		cfg.AvailabilityHandlers.RegisterRoutes(r)
		cfg.TasksHandlers.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.systemHandlers.HandleHealth)
			r.Get("/info", s.systemHandlers.HandleInfo)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
