package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/auth"
	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	"github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/usecase"
	repoAdapter "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnreadController reports the caller's unread count for a single room,
// for badge rendering before the client opens a socket.
type UnreadController struct {
	authorizeUC  *usecase.AuthorizeJoinUseCase
	resyncUC     *usecase.ResyncUseCase
	storeTimeout time.Duration
}

func NewUnreadController(pool *pgxpool.Pool, storeTimeout time.Duration) *UnreadController {
	members := repoAdapter.NewPgMembershipStore(pool)
	return &UnreadController{
		authorizeUC:  usecase.NewAuthorizeJoinUseCase(members),
		resyncUC:     usecase.NewResyncUseCase(repoAdapter.NewPgMessageStore(pool), members),
		storeTimeout: storeTimeout,
	}
}

func (ctl *UnreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		room, err := chat.ParseRoomKey(c.Param("roomKey"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.storeTimeout)
		defer cancel()

		if err := ctl.authorizeUC.Execute(ctx, usecase.AuthorizeJoinInput{UserID: identity.UserID, Room: room}); err != nil {
			respondError(c, err)
			return
		}
		unread, err := ctl.resyncUC.Unread(ctx, identity.UserID, room)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomKey": room, "unreadCount": unread})
	}
}
