// Package server wires handlers, middleware and routes together and owns
// the HTTP server's lifecycle. This is the composition root: every
// dependency chain (DB → service → handler) is assembled in New, so
// nothing else in the codebase reaches for globals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shareplate/shareplate/internal/auth"
	"github.com/shareplate/shareplate/internal/handler"
	"github.com/shareplate/shareplate/internal/middleware"
	sqliteRepo "github.com/shareplate/shareplate/internal/repository/sqlite"
	"github.com/shareplate/shareplate/internal/service"
)

// Config holds everything main reads from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	Provider  auth.ProviderConfig
}

// Server owns the router and the database connection. The DB is closed
// during graceful shutdown so the WAL is flushed and the file lock released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates the server and assembles the full dependency chain:
// sqlite.DB → services → handlers → routes. Services receive repository
// interfaces, handlers receive services; neither sees a concrete DB.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
//	GET    /api/listings                         public feed
//	GET    /api/listings/{id}                    public detail
//	POST   /api/listings                         auth: post a listing
//	POST   /api/listings/{listingId}/requests    auth: file a request
//	GET    /api/requests                         auth: my requests
//	PATCH  /api/requests/{id}/status             auth: resolve a request
//	GET    /api/login, /api/callback             login flow
//	POST   /api/logout                           clear session
//	GET    /api/auth/user                        auth: current profile
//
// Middleware order: RequestID and RealIP first so the logger sees them,
// Recoverer before everything that can panic, then our request logger.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	listingService := service.NewListingService(s.db, s.logger)
	requestService := service.NewRequestService(s.db, s.logger)

	listingHandler := handler.NewListingHandler(listingService, s.logger)
	requestHandler := handler.NewRequestHandler(requestService, s.logger)

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		// Public reads.
		r.Get("/listings", listingHandler.HandleList)
		r.Get("/listings/{id}", listingHandler.HandleGetByID)

		// Session-protected routes.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/listings", listingHandler.HandleCreate)
			r.Post("/listings/{listingId}/requests", requestHandler.HandleCreate)
			r.Get("/requests", requestHandler.HandleListMine)
			r.Patch("/requests/{id}/status", requestHandler.HandleUpdateStatus)
		})

		// Login flow. Registered only when the provider is configured, so
		// a dev instance without credentials still serves the public API.
		if s.config.Provider.ClientID != "" {
			provider := auth.NewProvider(s.config.Provider)
			authHandler := handler.NewAuthHandler(provider, tokens, s.db, s.logger)

			r.Get("/login", authHandler.HandleLogin)
			r.Get("/callback", authHandler.HandleCallback)
			r.Post("/logout", authHandler.HandleLogout)
			r.With(requireAuth).Get("/auth/user", authHandler.HandleMe)
		} else {
			s.logger.Warn("login provider not configured; auth routes not registered")
		}
	})

	return nil
}

// Router exposes the handler tree, mainly for tests that want to drive the
// full stack through httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, give in-flight requests 30 seconds, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
