package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lawnald/counselrank/internal/config"
	dbRedis "github.com/lawnald/counselrank/internal/db/redis"
	"github.com/lawnald/counselrank/internal/domain"
	logpkg "github.com/lawnald/counselrank/internal/logger"
	"github.com/lawnald/counselrank/internal/metrics"
	"github.com/lawnald/counselrank/internal/repository/catalog"
	"github.com/lawnald/counselrank/internal/repository/embcache"
	"github.com/lawnald/counselrank/internal/repository/presence"
	"github.com/lawnald/counselrank/internal/repository/snapshot"
	chiTransport "github.com/lawnald/counselrank/internal/transport/chi"
	openaiTransport "github.com/lawnald/counselrank/internal/transport/openai"
	analysisuc "github.com/lawnald/counselrank/internal/usecase/analysis"
	healthuc "github.com/lawnald/counselrank/internal/usecase/health"
	indexinguc "github.com/lawnald/counselrank/internal/usecase/indexing"
	rankinguc "github.com/lawnald/counselrank/internal/usecase/ranking"
	"github.com/lawnald/counselrank/internal/vectorstore"
	"github.com/lawnald/counselrank/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting counselrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("redis_enabled", cfg.Redis.Enabled()),
	)

	metrics.Register()

	ctx := context.Background()

	// Redis is optional: without it the service runs with no embedding cache
	// and with in-memory presence.
	var store *dbRedis.Store
	if cfg.Redis.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis")
	}

	taxonomy := cfg.BuildTaxonomy()
	embedder := buildEmbedder(cfg, store, logger)
	classifier := openaiTransport.NewClassifier(&openaiTransport.ClassifierConfig{
		APIKey:    cfg.OpenAI.APIKey,
		BaseURL:   cfg.OpenAI.BaseURL,
		Model:     cfg.Classifier.Model,
		MaxTokens: cfg.Classifier.MaxTokens,
		Timeout:   time.Duration(cfg.Classifier.TimeoutSec) * time.Second,
		Taxonomy:  taxonomy,
		Logger:    logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("classifier_model", cfg.Classifier.Model),
	)

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load professional catalog",
			zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}
	logger.Info("Catalog loaded", zap.Int("professionals", cat.Len()))

	index := vectorstore.New()
	snapshots := snapshot.New(cfg.Index.SnapshotPath)

	indexSvc := indexinguc.New(cat, embedder, index, snapshots, logger).
		WithLimits(cfg.Index.MaxProfessionals, cfg.Index.RebuildConcurrency).
		WithContentTypes(cfg.IndexableContentTypes())
	if err := indexSvc.LoadOrRebuild(ctx); err != nil {
		logger.Fatal("Failed to initialize index", zap.Error(err))
	}

	var tracker rankinguc.PresenceTracker
	if store != nil {
		tracker = presence.NewRedisTracker(store, cfg.Presence.KeyPrefix, logger)
	} else {
		tracker = presence.NewMemoryTracker()
	}

	analysisSvc := analysisuc.New(classifier, logger)
	rankingSvc := rankinguc.New(
		analysisSvc, embedder, index, cat, tracker,
		taxonomy, cfg.Scoring.Weights, cfg.BuildContentWeights(), logger,
	)

	var redisPinger healthuc.RedisPinger
	if store != nil {
		redisPinger = store
	}
	healthSvc := healthuc.New(redisPinger, newEmbeddingHealthChecker(embedder), index)

	server := chiTransport.NewServer(rankingSvc, indexSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.AdminAuthMiddleware(cfg.Auth.AdminAPIKeys))
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Truncating.
func buildEmbedder(cfg config.Config, store *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	// Truncation is outermost so the cache key matches the embedded text.
	return domain.NewTruncatingEmbedder(embedder, cfg.Embedding.MaxInputChars)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
