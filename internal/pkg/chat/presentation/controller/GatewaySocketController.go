package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/auth"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/config"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/metrics"
	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/realtime"
	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	"github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/usecase"
	repoAdapter "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/adapter"
	repository "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/port"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultReadTimeout = 60 * time.Second

// GatewaySocketController owns the websocket endpoint: it authenticates the
// handshake, registers the connection, wires join/leave/send/mark-read
// commands to the use cases, and guarantees deregistration on disconnect.
type GatewaySocketController struct {
	registry    *realtime.Registry
	broadcaster *realtime.Broadcaster
	presence    *realtime.PresencePublisher
	verifier    auth.Verifier

	authorizeUC *usecase.AuthorizeJoinUseCase
	sendUC      *usecase.SendMessageUseCase
	resyncUC    *usecase.ResyncUseCase
	markReadUC  *usecase.MarkReadUseCase

	upgrader     websocket.Upgrader
	storeTimeout time.Duration
	cmdRate      rate.Limit
	cmdBurst     int
	logger       zerolog.Logger
}

func NewGatewaySocketController(
	pool *pgxpool.Pool,
	registry *realtime.Registry,
	broadcaster *realtime.Broadcaster,
	presence *realtime.PresencePublisher,
	verifier auth.Verifier,
	cfg config.Config,
	logger zerolog.Logger,
) *GatewaySocketController {
	return newGatewaySocketController(
		repoAdapter.NewPgMessageStore(pool),
		repoAdapter.NewPgMembershipStore(pool),
		registry, broadcaster, presence, verifier, cfg, logger,
	)
}

// newGatewaySocketController wires the controller over the store ports
// directly, independent of the Postgres adapters.
func newGatewaySocketController(
	messages repository.MessageStore,
	members repository.MembershipStore,
	registry *realtime.Registry,
	broadcaster *realtime.Broadcaster,
	presence *realtime.PresencePublisher,
	verifier auth.Verifier,
	cfg config.Config,
	logger zerolog.Logger,
) *GatewaySocketController {
	return &GatewaySocketController{
		registry:    registry,
		broadcaster: broadcaster,
		presence:    presence,
		verifier:    verifier,
		authorizeUC: usecase.NewAuthorizeJoinUseCase(members),
		sendUC:      usecase.NewSendMessageUseCase(messages, registry),
		resyncUC:    usecase.NewResyncUseCase(messages, members),
		markReadUC:  usecase.NewMarkReadUseCase(messages, members),
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: cfg.HandshakeTimeout,
			CheckOrigin: func(r *http.Request) bool {
				// The token is the gate; origins vary across platform apps.
				return true
			},
		},
		storeTimeout: cfg.StoreTimeout,
		cmdRate:      rate.Limit(cfg.CommandRate),
		cmdBurst:     cfg.CommandBurst,
		logger:       logger.With().Str("component", "gateway").Logger(),
	}
}

// ===================== wire frames =====================

type inboundFrame struct {
	Type           string `json:"type"`
	RoomKey        string `json:"roomKey,omitempty"`
	Content        string `json:"content,omitempty"`
	SinceMessageID string `json:"sinceMessageId,omitempty"`
	UptoMessageID  string `json:"uptoMessageId,omitempty"`
}

type connectedFrame struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
}

type joinedFrame struct {
	Type        string         `json:"type"`
	RoomKey     chat.RoomKey   `json:"roomKey"`
	Messages    []chat.Message `json:"messages"`
	UnreadCount int            `json:"unreadCount"`
}

type ackFrame struct {
	Type    string       `json:"type"`
	RoomKey chat.RoomKey `json:"roomKey"`
}

type messageAckFrame struct {
	Type    string       `json:"type"`
	Message chat.Message `json:"message"`
}

type unreadUpdateFrame struct {
	Type        string       `json:"type"`
	RoomKey     chat.RoomKey `json:"roomKey"`
	UnreadCount int          `json:"unreadCount"`
}

type forbiddenFrame struct {
	Type    string `json:"type"`
	RoomKey string `json:"roomKey,omitempty"`
	Reason  string `json:"reason"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Handle upgrades the HTTP request and processes frames until the client
// disconnects. A failed handshake closes the transport without registering
// any state.
func (ctl *GatewaySocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		identity, err := ctl.verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; nothing was registered.
			return
		}

		conn := realtime.NewConnection(identity.UserID, identity.DisplayName, ws)
		ctl.registry.Add(conn)
		metrics.WsConnections.Inc()
		ctl.presence.Online(c.Request.Context(), conn.UserID)
		ctl.logger.Info().
			Str("connection_id", conn.ID).
			Str("user_id", conn.UserID).
			Msg("connection established")

		defer func() {
			if userOffline := ctl.registry.Remove(conn.ID); userOffline {
				ctl.presence.Offline(context.Background(), conn.UserID)
			}
			metrics.WsConnections.Dec()
			conn.Close(websocket.CloseNormalClosure, "session closed")
			ctl.logger.Info().Str("connection_id", conn.ID).Msg("connection closed")
		}()

		ws.SetReadLimit(16 << 10)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		ctl.reply(conn, connectedFrame{Type: "connected", ConnectionID: conn.ID})

		limiter := rate.NewLimiter(ctl.cmdRate, ctl.cmdBurst)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if !limiter.Allow() {
				ctl.replyError(conn, "rate_limited", "too many commands")
				continue
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "join_room":
				ctl.handleJoin(c, conn, frame)
			case "leave_room":
				ctl.handleLeave(conn, frame)
			case "send_message":
				ctl.handleSend(c, conn, frame)
			case "mark_as_read":
				ctl.handleMarkRead(c, conn, frame)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *GatewaySocketController) handleJoin(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	room, err := chat.ParseRoomKey(frame.RoomKey)
	if err != nil {
		ctl.replyError(conn, "bad_request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.storeTimeout)
	defer cancel()

	// Membership is re-checked on every join; a user who left a community
	// since their last session is turned away here.
	if err := ctl.authorizeUC.Execute(ctx, usecase.AuthorizeJoinInput{UserID: conn.UserID, Room: room}); err != nil {
		ctl.replyCommandError(conn, frame.RoomKey, err)
		return
	}

	if !ctl.registry.Join(conn.ID, room) {
		// The connection disconnected while the join was being authorized.
		return
	}

	res, err := ctl.resyncUC.Execute(ctx, usecase.ResyncInput{
		UserID:         conn.UserID,
		Room:           room,
		SinceMessageID: frame.SinceMessageID,
	})
	if err != nil {
		// Join and backfill succeed or fail together so the client can
		// simply retry join_room without risking a silent gap.
		ctl.registry.Leave(conn.ID, room)
		ctl.replyCommandError(conn, frame.RoomKey, err)
		return
	}

	messages := res.Messages
	if messages == nil {
		messages = []chat.Message{}
	}
	ctl.reply(conn, joinedFrame{Type: "joined", RoomKey: room, Messages: messages, UnreadCount: res.UnreadCount})
}

func (ctl *GatewaySocketController) handleLeave(conn *realtime.Connection, frame inboundFrame) {
	room, err := chat.ParseRoomKey(frame.RoomKey)
	if err != nil {
		ctl.replyError(conn, "bad_request", err.Error())
		return
	}
	ctl.registry.Leave(conn.ID, room)
	ctl.reply(conn, ackFrame{Type: "left", RoomKey: room})
}

func (ctl *GatewaySocketController) handleSend(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	room, err := chat.ParseRoomKey(frame.RoomKey)
	if err != nil {
		ctl.replyError(conn, "bad_request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.storeTimeout)
	defer cancel()

	msg, err := ctl.sendUC.Execute(ctx, usecase.SendMessageInput{
		ConnectionID: conn.ID,
		SenderID:     conn.UserID,
		Room:         room,
		Content:      frame.Content,
	})
	if err != nil {
		ctl.replyCommandError(conn, frame.RoomKey, err)
		return
	}
	metrics.MessagesTotal.WithLabelValues(string(room.Kind)).Inc()

	// The ack carries the authoritative message so the sender reconciles its
	// optimistic local copy by id.
	ctl.reply(conn, messageAckFrame{Type: "message_ack", Message: *msg})

	// Fan-out happens strictly after the store accepted the write. Use a
	// fresh deadline: the send's budget may be nearly spent.
	pubCtx, pubCancel := context.WithTimeout(context.Background(), ctl.storeTimeout)
	defer pubCancel()
	ctl.broadcaster.Publish(pubCtx, *msg)
}

func (ctl *GatewaySocketController) handleMarkRead(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	room, err := chat.ParseRoomKey(frame.RoomKey)
	if err != nil {
		ctl.replyError(conn, "bad_request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.storeTimeout)
	defer cancel()

	res, err := ctl.markReadUC.Execute(ctx, usecase.MarkReadInput{
		UserID:        conn.UserID,
		Room:          room,
		UptoMessageID: frame.UptoMessageID,
	})
	if err != nil {
		ctl.replyCommandError(conn, frame.RoomKey, err)
		return
	}
	ctl.reply(conn, ackFrame{Type: "read_ack", RoomKey: room})

	if !res.Advanced {
		return
	}
	// Keep the user's other devices consistent: they learn the new unread
	// count without having to resync.
	update := unreadUpdateFrame{Type: "unread_update", RoomKey: room, UnreadCount: res.UnreadCount}
	for _, other := range ctl.registry.ConnectionsOf(conn.UserID) {
		if other.ID == conn.ID {
			continue
		}
		ctl.reply(other, update)
	}
}

// replyCommandError maps domain and use case errors onto the typed frames
// the protocol promises; every rejected command gets a deterministic
// response.
func (ctl *GatewaySocketController) replyCommandError(conn *realtime.Connection, roomKey string, err error) {
	switch {
	case errors.Is(err, chat.ErrForbidden):
		ctl.reply(conn, forbiddenFrame{Type: "forbidden", RoomKey: roomKey, Reason: "not a member of this room"})
	case errors.Is(err, chat.ErrNotJoined):
		ctl.reply(conn, forbiddenFrame{Type: "forbidden", RoomKey: roomKey, Reason: "room not joined"})
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrContentTooLong):
		ctl.replyError(conn, "validation", err.Error())
	case errors.Is(err, chat.ErrRoomNotFound), errors.Is(err, chat.ErrMessageNotFound):
		ctl.replyError(conn, "not_found", err.Error())
	case errors.Is(err, chat.ErrInvalidRoomKey):
		ctl.replyError(conn, "bad_request", err.Error())
	case errors.Is(err, usecase.ErrStore):
		ctl.replyError(conn, "store_unavailable", "temporary failure, retry the command")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *GatewaySocketController) replyError(conn *realtime.Connection, code, message string) {
	ctl.reply(conn, errorFrame{Type: "error", Code: code, Error: message})
}

func (ctl *GatewaySocketController) reply(conn *realtime.Connection, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		ctl.logger.Error().Err(err).Msg("encode frame")
		return
	}
	_ = conn.Send(payload)
}
