package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/aadharbata/content-creator-platform-sub002/cmd/api/router/v1"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/auth"
	cacheAdapter "github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/cache/adapter"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/config"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/database"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/metrics"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/realtime"
	queueAdapter "github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/queue/adapter"
	"github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/task"
	repoAdapter "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env not loaded")
	}

	cfg := config.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := log.With().Str("service", "chat-gateway").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.Connect(ctx, cfg.DBURL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()

	cache, err := cacheAdapter.NewRedisAdapter(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to redis")
	}
	defer cache.Close()

	queueClient, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect task queue")
	}
	defer queueClient.Close()

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	registry := realtime.NewRegistry()
	presence := realtime.NewPresencePublisher(cache, cfg.PresenceTTL, logger)
	broadcaster := realtime.NewBroadcaster(
		registry,
		repoAdapter.NewPgMembershipStore(pool),
		task.NewNotifier(queueClient),
		logger,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Keep presence keys alive while their connections are.
	go presence.Heartbeat(rootCtx, registry)

	r := gin.New()
	r.Use(gin.Recovery(), metrics.GinMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		hctx, hcancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer hcancel()
		if err := pool.Ping(hctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		if err := cache.Ping(hctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "cache unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1.RegisterRoutes(r, pool, registry, broadcaster, presence, verifier, cfg, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	registry.Close()
	logger.Info().Msg("goodbye")
}
