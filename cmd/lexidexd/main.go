// Command lexidexd runs the collection layer as an HTTP daemon.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lexidex/internal/collection"
	"github.com/kailas-cloud/lexidex/internal/config"
	"github.com/kailas-cloud/lexidex/internal/domain/schema"
	"github.com/kailas-cloud/lexidex/internal/health"
	logpkg "github.com/kailas-cloud/lexidex/internal/logger"
	"github.com/kailas-cloud/lexidex/internal/metrics"
	"github.com/kailas-cloud/lexidex/internal/shard"
	"github.com/kailas-cloud/lexidex/internal/shard/instrumented"
	"github.com/kailas-cloud/lexidex/internal/shard/memindex"
	"github.com/kailas-cloud/lexidex/internal/store"
	"github.com/kailas-cloud/lexidex/internal/store/memstore"
	storeredis "github.com/kailas-cloud/lexidex/internal/store/redis"
	transporthttp "github.com/kailas-cloud/lexidex/internal/transport/http"
	"github.com/kailas-cloud/lexidex/internal/version"
)

func main() {
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

	logger.Info("starting lexidexd",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Int("num_shards", cfg.Collection.NumShards),
	)

	st, closeStore, err := buildStore(cfg)
	if err != nil {
		logger.Fatal("failed to create store", zap.Error(err))
	}
	defer closeStore()

	if pinger, ok := st.(interface {
		WaitForReady(context.Context, time.Duration) error
	}); ok {
		ctx := context.Background()
		if err := pinger.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("store not ready", zap.Error(err))
		}
	}
	logger.Info("connected to store")

	metrics.RegisterCollectionMetrics()

	constants := collection.Constants{
		MaxResults:         cfg.Collection.MaxResults,
		SnippetStrAboveLen: cfg.Collection.SnippetStrAboveLen,
	}

	newShard := func(collectionName string, shardIndex int, s schema.Schema) shard.Shard {
		return instrumented.New(memindex.New(s), collectionName, shardIndex)
	}

	manager := collection.NewManager(st, newShard, cfg.Collection.NumShards, constants)
	healthSvc := health.New(st.(health.StorePinger))

	server := transporthttp.New(manager, healthSvc, logger)
	handler := wideEventMiddleware(logger)(chiMiddleware.RequestID(server.Router()))

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}

// buildStore selects the durable store backend named by cfg.Store.Driver.
// The returned close func is always safe to call, even for drivers with
// no underlying connection to release.
func buildStore(cfg config.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		return memstore.New(), func() {}, nil
	case "redis", "valkey":
		s, err := storeredis.NewStore(storeredis.Config{
			Addrs:    cfg.Store.Addrs,
			Password: cfg.Store.Password,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return s, s.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
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

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
