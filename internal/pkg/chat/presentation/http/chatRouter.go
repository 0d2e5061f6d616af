package http

import (
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/auth"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/config"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/realtime"
	"github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/presentation/controller"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(
	g *gin.RouterGroup,
	pool *pgxpool.Pool,
	registry *realtime.Registry,
	broadcaster *realtime.Broadcaster,
	presence *realtime.PresencePublisher,
	verifier auth.Verifier,
	cfg config.Config,
	logger zerolog.Logger,
) {
	socketCtl := controller.NewGatewaySocketController(pool, registry, broadcaster, presence, verifier, cfg, logger)
	historyCtl := controller.NewHistoryController(pool, cfg.StoreTimeout)
	unreadCtl := controller.NewUnreadController(pool, cfg.StoreTimeout)
	presenceCtl := controller.NewPresenceController(registry, presence)

	// GET /api/v1/chat/ws -> websocket endpoint; the token is checked there,
	// not by middleware, so a bad handshake never upgrades.
	g.GET("/chat/ws", socketCtl.Handle())

	authed := g.Group("/", auth.Middleware(verifier))

	// GET /api/v1/rooms/:roomKey/messages -> paged room history
	authed.GET("/rooms/:roomKey/messages", historyCtl.Handle())

	// GET /api/v1/rooms/:roomKey/unread -> caller's unread count for a room
	authed.GET("/rooms/:roomKey/unread", unreadCtl.Handle())

	// GET /api/v1/presence/:userId -> whether the user is online anywhere
	authed.GET("/presence/:userId", presenceCtl.Handle())
}
