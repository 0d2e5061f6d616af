package controller

import (
	"net/http"

	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/auth"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/realtime"

	"github.com/gin-gonic/gin"
)

// PresenceController answers whether a user currently holds a live
// connection anywhere in the cluster. The local registry answers for this
// node; the shared cache answers for everyone else.
type PresenceController struct {
	registry *realtime.Registry
	presence *realtime.PresencePublisher
}

func NewPresenceController(registry *realtime.Registry, presence *realtime.PresencePublisher) *PresenceController {
	return &PresenceController{registry: registry, presence: presence}
}

func (ctl *PresenceController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.IdentityFrom(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		userID := c.Param("userId")
		if ctl.registry.UserOnline(userID) {
			c.JSON(http.StatusOK, gin.H{"userId": userID, "online": true})
			return
		}
		online, err := ctl.presence.IsOnline(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence lookup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": userID, "online": online})
	}
}
