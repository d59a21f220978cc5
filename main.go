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

	"github.com/gin-gonic/gin"
	"github.com/gogotex/personstore/handlers"
	"github.com/gogotex/personstore/internal/config"
	"github.com/gogotex/personstore/internal/database"
	"github.com/gogotex/personstore/internal/person/handler"
	"github.com/gogotex/personstore/internal/person/repository"
	"github.com/gogotex/personstore/internal/person/service"
	"github.com/gogotex/personstore/internal/storage"
	"github.com/gogotex/personstore/internal/tokens"
	"github.com/gogotex/personstore/pkg/logger"
	"github.com/gogotex/personstore/pkg/metrics"
	"github.com/gogotex/personstore/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v jwt=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "", cfg.JWT.Secret != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Redis is optional; it only backs the shared rate limiter.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
			logger.Infof("connected to Redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// One connection attempt. On failure the service still starts on the
	// in-memory store and /ready reports the missing database.
	var repo repository.Repository
	storeReady := false
	h, err := database.Open(ctx, cfg.MongoDB)
	if err != nil {
		logger.Warnf("using memory-backed person store")
		repo = repository.NewMemoryRepo()
	} else {
		defer func() { _ = h.Close(context.Background()) }()
		mrepo := repository.NewMongoRepo(h.People())
		if err := mrepo.EnsureIndexes(ctx); err != nil {
			logger.Warnf("%v", err)
		}
		repo = mrepo
		storeReady = true
	}
	svc := service.NewService(repo)

	var verifier middleware.Verifier
	if v := tokens.NewHMACVerifier(cfg.JWT.Secret); v != nil {
		verifier = v
	}
	guard := middleware.OptionalAuth(verifier)

	handler.RegisterPersonRoutes(r, svc, guard)

	if cfg.MinIO.Endpoint != "" {
		objects, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("snapshot export disabled: %v", err)
		} else {
			handler.RegisterExportRoute(r, storage.NewExporter(svc, objects), guard)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := gin.H{"mongo": storeReady, "redis": !cfg.RateLimit.UseRedis || rdb != nil}
		status, code := "ready", http.StatusOK
		if !storeReady || (cfg.RateLimit.UseRedis && rdb == nil) {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("starting person service on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("server failed: %v", err)
		return
	}
	logger.Infof("person service stopped")
}
