package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/config"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/database"
	queueAdapter "github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/queue/adapter"
	"github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/task"

	"github.com/joho/godotenv"
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
	}
	logger := log.With().Str("service", "chat-worker").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.Connect(ctx, cfg.DBURL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()

	srv, err := queueAdapter.NewAsynqServer(cfg.RedisURL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect task queue")
	}

	task.RegisterOfflineNotifyTask(srv, pool)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("worker running")
	if err := srv.Run(rootCtx); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
	logger.Info().Msg("goodbye")
}
