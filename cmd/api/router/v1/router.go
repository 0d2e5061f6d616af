package v1

import (
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/auth"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/config"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/realtime"
	httpHandler "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/presentation/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(
	r *gin.Engine,
	pool *pgxpool.Pool,
	registry *realtime.Registry,
	broadcaster *realtime.Broadcaster,
	presence *realtime.PresencePublisher,
	verifier auth.Verifier,
	cfg config.Config,
	logger zerolog.Logger,
) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, pool, registry, broadcaster, presence, verifier, cfg, logger)
}
