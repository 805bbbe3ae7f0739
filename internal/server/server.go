// Package server is the composition root: it opens the store, builds the
// services and handlers, mounts the routes and runs the HTTP server.
//
// Everything is wired here and only here. Handlers get services, services get
// the repository.Store interface, and nothing below this package knows which
// database it talks to.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/bird-tracker/internal/config"
	"github.com/sakif/bird-tracker/internal/handler"
	"github.com/sakif/bird-tracker/internal/middleware"
	"github.com/sakif/bird-tracker/internal/repository/sqlstore"
	"github.com/sakif/bird-tracker/internal/service"
)

// APIPrefix is where the resource routes live.
const APIPrefix = "/api/v1"

// Server owns the router and the store. The store is closed when Start
// returns, or by Close if Start is never called.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  *sqlstore.Store
}

// New opens the database, migrates it if the profile asks for that, and
// mounts every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := sqlstore.Open(sqlstore.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		logger.Info("database migrated", slog.String("driver", cfg.Database.Driver))
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes()
	return s, nil
}

// Store exposes the opened store, e.g. for seeding before Start.
func (s *Server) Store() *sqlstore.Store { return s.store }

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the database. Start does this itself on the way out.
func (s *Server) Close() error { return s.store.Close() }

// setupRoutes mounts middleware and handlers.
//
// GET    /                                 plain-text banner
// GET    /health                           store ping
// GET    /metrics                          prometheus
// GET    /api/v1/users/{username}/{password}
// POST   /api/v1/users
// PATCH  /api/v1/users/{id}
// DELETE /api/v1/users/{id}
// GET    /api/v1/categories/users/{id}
// POST   /api/v1/categories
// GET    /api/v1/sightings/users/{id}
// GET    /api/v1/sightings/categories/{id}
// POST   /api/v1/sightings
// PATCH  /api/v1/sightings/{id}
// DELETE /api/v1/sightings/{id}
func (s *Server) setupRoutes() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)

	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Logger(s.logger))

	users := handler.NewUserHandler(service.NewUserService(s.store, s.logger), s.logger)
	categories := handler.NewCategoryHandler(service.NewCategoryService(s.store, s.logger), s.logger)
	sightings := handler.NewSightingHandler(service.NewSightingService(s.store, s.logger), s.logger)
	root := handler.NewRootHandler(s.store, s.logger)

	s.router.Get("/", root.HandleRoot)
	s.router.Get("/health", root.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router.Route(APIPrefix, func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/{username}/{password}", users.HandleLookup)
			r.Post("/", users.HandleCreate)
			r.Patch("/{id}", users.HandleUpdate)
			r.Delete("/{id}", users.HandleDelete)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/users/{id}", categories.HandleListByUser)
			r.Post("/", categories.HandleCreate)
		})
		r.Route("/sightings", func(r chi.Router) {
			r.Get("/users/{id}", sightings.HandleListByUser)
			r.Get("/categories/{id}", sightings.HandleListByCategory)
			r.Post("/", sightings.HandleCreate)
			r.Patch("/{id}", sightings.HandleUpdate)
			r.Delete("/{id}", sightings.HandleDelete)
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("env", s.config.Env),
			slog.Int("port", s.config.Port),
			slog.String("driver", s.config.Database.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
