package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/auth"
	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	"github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/usecase"
	repoAdapter "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryController serves paged room history over REST for clients that
// want to scroll back further than the join backfill.
type HistoryController struct {
	authorizeUC  *usecase.AuthorizeJoinUseCase
	historyUC    *usecase.HistoryUseCase
	storeTimeout time.Duration
}

func NewHistoryController(pool *pgxpool.Pool, storeTimeout time.Duration) *HistoryController {
	return &HistoryController{
		authorizeUC:  usecase.NewAuthorizeJoinUseCase(repoAdapter.NewPgMembershipStore(pool)),
		historyUC:    usecase.NewHistoryUseCase(repoAdapter.NewPgMessageStore(pool)),
		storeTimeout: storeTimeout,
	}
}

func (ctl *HistoryController) Handle() gin.HandlerFunc {
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
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.storeTimeout)
		defer cancel()

		if err := ctl.authorizeUC.Execute(ctx, usecase.AuthorizeJoinInput{UserID: identity.UserID, Room: room}); err != nil {
			respondError(c, err)
			return
		}
		messages, err := ctl.historyUC.Execute(ctx, usecase.HistoryInput{
			Room:           room,
			SinceMessageID: c.Query("since"),
			Limit:          limit,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		if messages == nil {
			messages = []chat.Message{}
		}
		c.JSON(http.StatusOK, gin.H{"roomKey": room, "messages": messages})
	}
}

// respondError maps domain errors onto REST status codes the same way the
// socket controller maps them onto frames.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this room"})
	case errors.Is(err, chat.ErrInvalidRoomKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrRoomNotFound), errors.Is(err, chat.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrStore):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary failure"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
