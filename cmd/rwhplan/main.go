package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rwhplan/internal/config"
	"github.com/kailas-cloud/rwhplan/internal/db"
	dbRedis "github.com/kailas-cloud/rwhplan/internal/db/redis"
	"github.com/kailas-cloud/rwhplan/internal/domain"
	"github.com/kailas-cloud/rwhplan/internal/domain/feature"
	"github.com/kailas-cloud/rwhplan/internal/estimator"
	logpkg "github.com/kailas-cloud/rwhplan/internal/logger"
	"github.com/kailas-cloud/rwhplan/internal/metrics"
	"github.com/kailas-cloud/rwhplan/internal/repository/predcache"
	"github.com/kailas-cloud/rwhplan/internal/repository/reference"
	chiTransport "github.com/kailas-cloud/rwhplan/internal/transport/chi"
	healthuc "github.com/kailas-cloud/rwhplan/internal/usecase/health"
	locationuc "github.com/kailas-cloud/rwhplan/internal/usecase/location"
	predictionuc "github.com/kailas-cloud/rwhplan/internal/usecase/prediction"
	"github.com/kailas-cloud/rwhplan/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rwhplan API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("reference_source", cfg.Reference.Source),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	ctx := context.Background()

	// Reference tables. A failed load degrades the service instead of stopping it.
	refStore := loadReference(ctx, cfg.Reference, logger)

	// Estimator bundle. Without it the pipeline answers 503.
	metrics.RegisterPredictionMetrics()
	bundle, err := estimator.LoadBundle(cfg.Models.BundlePath)
	var (
		scaler       feature.Scaler
		ensemble     *estimator.Ensemble
		modelVersion = cfg.Models.Version
	)
	if err != nil {
		logger.Error("Failed to load estimator bundle", zap.String("path", cfg.Models.BundlePath), zap.Error(err))
	} else {
		scaler, ensemble = bundle.Scaler, bundle.Ensemble
		if modelVersion == "" {
			modelVersion = bundle.Version
		}
		logger.Info("Estimator bundle loaded",
			zap.String("model_version", modelVersion),
			zap.Int("models_loaded", ensemble.Loaded()),
			zap.Bool("ready", ensemble.Ready()),
		)
	}
	if modelVersion == "" {
		modelVersion = "unknown"
	}
	metrics.ModelsLoaded.Set(float64(ensemble.Loaded()))

	// Pass nil interface (not typed nil pointer!) when no bundle is loaded.
	var est predictionuc.Estimator
	if ensemble != nil {
		est = ensemble
	}

	resolver := locationuc.New(refStore)
	pipeline := predictionuc.New(resolver, scaler, est).WithRecorder(metrics.NewRecorder())

	var predictor domain.Predictor = pipeline
	var cachePinger healthuc.DBPinger
	if cfg.Cache.Enabled {
		store, err := newCacheStore(ctx, cfg.Cache)
		if err != nil {
			logger.Warn("Prediction cache disabled", zap.Error(err))
		} else {
			defer store.Close()
			cachePinger = store
			predictor = predcache.New(pipeline, store, modelVersion,
				time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.PredictionCacheTotal, logger)
			logger.Info("Prediction cache enabled", zap.String("driver", cfg.Cache.Driver))
		}
	}

	healthSvc := healthuc.New(ensemble, refStore, cachePinger)
	server := chiTransport.NewServer(predictor, healthSvc, refStore, modelVersion, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// loadReference loads the groundwater and soil tables from the configured source.
// Any failure yields a degraded store.
func loadReference(ctx context.Context, cfg config.ReferenceConfig, logger *zap.Logger) *reference.Store {
	var (
		store *reference.Store
		err   error
	)
	switch cfg.Source {
	case config.SourcePostgres:
		store, err = loadPostgresReference(ctx, cfg)
	default:
		store, err = reference.LoadCSV(cfg.GroundwaterPath, cfg.SoilPath)
	}
	if err != nil {
		logger.Warn("Reference data unavailable, serving default profile",
			zap.String("source", cfg.Source), zap.Error(err))
		return reference.NewDegraded(err)
	}

	logger.Info("Reference data loaded",
		zap.String("source", cfg.Source),
		zap.Int("stations", store.StationCount()),
		zap.Int("towns", store.TownCount()),
	)
	return store
}

func loadPostgresReference(ctx context.Context, cfg config.ReferenceConfig) (*reference.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.LoadTimeoutSec)*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	// Tables are read once at startup; the pool is not needed afterwards.
	defer pool.Close()

	return reference.LoadPostgres(ctx, pool)
}

// newCacheStore creates the cache database store and waits until it answers.
func newCacheStore(ctx context.Context, cfg config.CacheConfig) (db.Store, error) {
	// valkey and redis speak the same protocol; both go through the rueidis store.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Addrs,
		Password:   cfg.Password,
		ClientName: "rwhplan-" + cfg.Driver,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
	}
	return store, nil
}
