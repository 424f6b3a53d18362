package main

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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hszk-dev/mediagate/internal/api/handler"
	"github.com/hszk-dev/mediagate/internal/api/middleware"
	"github.com/hszk-dev/mediagate/internal/config"
	"github.com/hszk-dev/mediagate/internal/infrastructure/storage"
	"github.com/hszk-dev/mediagate/internal/infrastructure/tracing"
	"github.com/hszk-dev/mediagate/internal/usecase"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(os.Stdout, cfg.Log)
	setupLogging(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	store, err := storage.New(ctx, storage.Config{
		Driver: cfg.Storage.Driver,
		MinIO: storage.MinIOConfig{
			Endpoint:       cfg.Storage.MinIO.Endpoint,
			PublicEndpoint: cfg.Storage.MinIO.PublicEndpoint,
			AccessKey:      cfg.Storage.MinIO.AccessKey,
			SecretKey:      cfg.Storage.MinIO.SecretKey,
			Bucket:         cfg.Storage.Bucket,
			Region:         cfg.Storage.MinIO.Region,
			UseSSL:         cfg.Storage.MinIO.UseSSL,
		},
		S3: storage.S3Config{
			Endpoint:     cfg.Storage.S3.Endpoint,
			AccountID:    cfg.Storage.S3.AccountID,
			Region:       cfg.Storage.S3.Region,
			AccessKey:    cfg.Storage.S3.AccessKey,
			SecretKey:    cfg.Storage.S3.SecretKey,
			Bucket:       cfg.Storage.Bucket,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		},
		Transport: storage.TransportConfig{
			ConnectTimeout:        cfg.Storage.ConnectTimeout,
			ResponseHeaderTimeout: cfg.Storage.ResponseHeaderTimeout,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	svc := usecase.NewMediaService(store, usecase.Config{
		Prefix:               cfg.Media.Prefix,
		StrictRanges:         cfg.Media.StrictRanges,
		PresignMinExpiry:     cfg.Media.PresignMinExpiry,
		PresignMaxExpiry:     cfg.Media.PresignMaxExpiry,
		PresignDefaultExpiry: cfg.Media.PresignDefaultExpiry,
	})

	// The bucket may come up after us; report but keep serving.
	probeCtx, cancelProbe := context.WithTimeout(ctx, 5*time.Second)
	if status := svc.Health(probeCtx); status.IsHealthy() {
		logger.Info("storage reachable",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("bucket", status.BucketName),
		)
	}
	cancelProbe()

	r := setupRouter(logger, cfg, svc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	servers := []*http.Server{srv}

	if cfg.Metrics.Enabled && cfg.Metrics.Port != 0 {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			logger.Info("starting server", slog.String("addr", s.Addr), slog.String("version", version))
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s error: %w", s.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("server %s shutdown error: %w", s.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(logger *slog.Logger, cfg *config.Config, svc usecase.MediaService) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxAge:         cfg.CORS.MaxAge,
	}))

	healthHandler := handler.NewHealthHandler(svc, version)
	videoHandler := handler.NewVideoHandler(svc, cfg.Media.CacheMaxAge)
	presignHandler := handler.NewPresignHandler(svc)

	r.Get("/", healthHandler.Index)
	r.Get("/health", healthHandler.Health)
	r.Get("/livez", healthHandler.Live)

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/videos", videoHandler.List)
		r.Get("/videos/*", videoHandler.Stream)
		r.Head("/videos/*", videoHandler.Stream)
		r.Get("/presign", presignHandler.Get)
	})

	return r
}
