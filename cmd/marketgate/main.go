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

	"github.com/kailas-cloud/marketgate/internal/config"
	"github.com/kailas-cloud/marketgate/internal/eventbus"
	logpkg "github.com/kailas-cloud/marketgate/internal/logger"
	"github.com/kailas-cloud/marketgate/internal/metrics"
	"github.com/kailas-cloud/marketgate/internal/platform/cloud"
	"github.com/kailas-cloud/marketgate/internal/repository/infocache"
	chiTransport "github.com/kailas-cloud/marketgate/internal/transport/chi"
	bulkuc "github.com/kailas-cloud/marketgate/internal/usecase/bulk"
	healthuc "github.com/kailas-cloud/marketgate/internal/usecase/health"
	productuc "github.com/kailas-cloud/marketgate/internal/usecase/product"
	promptuc "github.com/kailas-cloud/marketgate/internal/usecase/prompt"
	"github.com/kailas-cloud/marketgate/internal/version"
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

	logger.Info("Starting marketgate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("platform_url", cfg.Platform.BaseURL),
		zap.Strings("redis_addrs", cfg.Platform.RedisAddrs),
	)

	// Create the platform gateway driver
	driver, err := cloud.New(cloud.Config{
		BaseURL:       cfg.Platform.BaseURL,
		APIKey:        cfg.Platform.APIKey,
		RedisAddrs:    cfg.Platform.RedisAddrs,
		RedisPassword: cfg.Platform.RedisPassword,
		ChannelPrefix: cfg.Platform.ChannelPrefix,
		HTTPTimeout:   time.Duration(cfg.Platform.HTTPTimeoutSec) * time.Second,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("Failed to create platform driver", zap.Error(err))
	}
	defer driver.Close()

	// Wait for the notification feed to be ready
	ctx := context.Background()
	if err := driver.WaitForReady(ctx, time.Duration(cfg.Platform.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Platform notification feed not ready", zap.Error(err))
	}
	logger.Info("Connected to platform notification feed")

	// Register platform metrics explicitly (no init())
	metrics.RegisterPlatformMetrics()

	// Event bus normalizes the per-kind notification streams — composition root
	bus := eventbus.New()
	bus.Attach(driver)

	// Create use case services
	promptSvc := promptuc.New(driver, driver, logger)
	bulkSvc := bulkuc.New(promptSvc, bus, logger).
		WithDefaultTimeout(time.Duration(cfg.Bulk.ItemTimeoutSec) * time.Second).
		WithMaxBatchSize(cfg.Bulk.MaxBatchSize)
	productSvc := productuc.New(driver)

	// Product info resolver, optionally behind the Redis read-through cache
	var resolver chiTransport.InfoResolver = productSvc
	if cfg.Cache.TTLSec > 0 {
		resolver = infocache.New(
			productSvc, driver.Redis(),
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.InfoCacheTotal, logger,
		)
		logger.Info("Product info cache enabled", zap.Int("ttl_sec", cfg.Cache.TTLSec))
	}

	// Health service
	healthSvc := healthuc.New(driver)

	// Create chi server
	server := chiTransport.NewServer(promptSvc, bulkSvc, resolver, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
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
