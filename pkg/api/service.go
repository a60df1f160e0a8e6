package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/sirupsen/logrus"

	"github.com/crawlpulse/datafilters/pkg/api/handlers"
	"github.com/crawlpulse/datafilters/pkg/api/openapi"
)

// Service defines the API service interface
type Service interface {
	Start(ctx context.Context) error
	Stop() error
}

type service struct {
	app    *fiber.App
	server *http.Server
	config *Config
	deps   handlers.Deps
	log    logrus.FieldLogger
}

// NewService creates a new API service
func NewService(cfg *Config, deps handlers.Deps, log logrus.FieldLogger) Service {
	return &service{
		config: cfg,
		deps:   deps,
		log:    log.WithField("service", "api"),
	}
}

// newApp builds the Fiber app with every route mounted under /api/v1
func (s *service) newApp(ctx context.Context) (*fiber.App, error) {
	if s.deps.Schema == nil {
		schema, err := openapi.NewValidator(ctx)
		if err != nil {
			return nil, err
		}
		s.deps.Schema = schema
	}

	title, _ := s.deps.Schema.Title()

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		AppName:      title,
	})

	setupMiddleware(app, s.config)

	server := handlers.NewServer(s.deps, s.log)
	server.Register(app.Group("/api/v1"))

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	return app, nil
}

// Start builds the app and starts serving in the background
func (s *service) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API service is disabled")
		return nil
	}

	app, err := s.newApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to build api: %w", err)
	}
	s.app = app

	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           adaptor.FiberApp(s.app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.WithField("addr", s.config.Addr).Info("Starting API server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Server failed to start")
		}
	}()

	return nil
}

// Stop gracefully shuts down the API server
func (s *service) Stop() error {
	if s.server == nil {
		return nil
	}

	s.log.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
