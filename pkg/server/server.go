package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	//nolint:gosec // only exposed if pprofAddr config is set
	_ "net/http/pprof"

	"github.com/hibiken/asynq"
	r "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/crawlpulse/datafilters/pkg/api"
	"github.com/crawlpulse/datafilters/pkg/api/handlers"
	"github.com/crawlpulse/datafilters/pkg/api/openapi"
	"github.com/crawlpulse/datafilters/pkg/backend"
	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/evaluator"
	"github.com/crawlpulse/datafilters/pkg/export"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/observability"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
	"github.com/crawlpulse/datafilters/pkg/presets"
	"github.com/crawlpulse/datafilters/pkg/preview"
	"github.com/crawlpulse/datafilters/pkg/redis"
)

// source serves both catalogs and records
type source interface {
	catalog.Catalog
	evaluator.Source
}

// Server represents the main application server
type Server struct {
	log    logrus.FieldLogger
	config *Config

	redis   *r.Client
	backend *backend.Client
	queue   *export.Queue

	Catalog   *catalog.Service
	Evaluator *evaluator.Evaluator
	Preview   *preview.LocalService
	Exports   *export.Service
	Presets   *presets.Store

	api          api.Service
	pprofServer  *http.Server
	healthServer *http.Server
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, log logrus.FieldLogger, config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config: config,
		log:    log,
	}

	redisClient, redisOpt, err := redis.NewClient(config.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	s.redis = redisClient

	src, err := s.newSource()
	if err != nil {
		return nil, err
	}

	store, err := presets.Load(&config.Presets)
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}
	s.Presets = store

	schema, err := openapi.NewValidator(ctx)
	if err != nil {
		return nil, err
	}

	ops := filter.DefaultRegistry()
	pipes := pipeline.NewRegistry()

	cache := catalog.NewCache(redisClient, config.Redis.PrefixKey("catalog:"))
	s.Catalog = catalog.NewService(log, src, cache, &config.Catalog)
	s.Evaluator = evaluator.New(log, s.Catalog, src, evaluator.WithOperators(ops), evaluator.WithPipelines(pipes))
	s.Preview = preview.NewLocalService(s.Evaluator, &config.Preview)

	asynqClient := asynq.NewClient(*redis.NewAsynqRedisOptions(redisOpt))
	s.queue = export.NewQueue(asynqClient, config.Redis.PrefixQueue(config.Export.Queue), &config.Export)
	s.Exports = export.NewService(log, s.Catalog, ops, pipes, s.queue)

	s.api = api.NewService(&config.API, handlers.Deps{
		Catalog:   s.Catalog,
		Operators: ops,
		Pipelines: pipes,
		Presets:   store,
		Preview:   s.Preview,
		Exports:   s.Exports,
		Schema:    schema,
	}, log)

	return s, nil
}

func (s *Server) newSource() (source, error) {
	if s.config.Backend.URL != "" {
		client, err := backend.NewClient(s.log, &s.config.Backend)
		if err != nil {
			return nil, fmt.Errorf("failed to create backend client: %w", err)
		}
		s.backend = client
		return client, nil
	}

	mem, err := backend.LoadFile(s.config.DatasetFile)
	if err != nil {
		return nil, err
	}
	s.log.WithField("file", s.config.DatasetFile).Info("Serving datasets from file")
	return mem, nil
}

// Start starts the server and all its components, blocking until ctx is
// cancelled or a signal arrives
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	observability.StartMetricsServer(s.log, s.config.MetricsAddr)

	if err := s.api.Start(ctx); err != nil {
		return fmt.Errorf("failed to start api: %w", err)
	}

	if s.config.PProfAddr != "" {
		g.Go(func() error {
			if err := s.startPProf(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if s.config.HealthCheckAddr != "" {
		g.Go(func() error {
			if err := s.startHealthCheck(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		// ctx is cancelled; cleanup gets its own deadline
		return s.stop(context.Background())
	})

	s.log.Info("Data filters server started")

	return g.Wait()
}

func (s *Server) stop(ctx context.Context) error {
	cleanupCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("Starting graceful shutdown...")

	if err := s.api.Stop(); err != nil {
		s.log.WithError(err).Error("failed to stop api")
	}

	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.log.WithError(err).Error("failed to close export queue")
		}
	}

	if s.backend != nil {
		if err := s.backend.Stop(); err != nil {
			s.log.WithError(err).Error("failed to stop backend client")
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.WithError(err).Error("failed to close redis")
		}
	}

	if s.pprofServer != nil {
		if err := s.pprofServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown pprof server")
		}
	}

	if s.healthServer != nil {
		if err := s.healthServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown health server")
		}
	}

	if err := observability.StopMetricsServer(cleanupCtx); err != nil {
		s.log.WithError(err).Error("failed to stop metrics server")
	}

	s.log.Info("Server stopped gracefully")

	return nil
}

func (s *Server) startPProf() error {
	s.log.WithField("addr", s.config.PProfAddr).Info("Starting pprof server")

	s.pprofServer = &http.Server{
		Addr:              s.config.PProfAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	return s.pprofServer.ListenAndServe()
}

func (s *Server) startHealthCheck() error {
	s.log.WithField("addr", s.config.HealthCheckAddr).Info("Starting healthcheck server")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := s.redis.Ping(req.Context()).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.healthServer = &http.Server{
		Addr:              s.config.HealthCheckAddr,
		Handler:           mux,
		ReadHeaderTimeout: 120 * time.Second,
	}

	return s.healthServer.ListenAndServe()
}
