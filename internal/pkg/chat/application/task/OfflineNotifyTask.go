package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/metrics"
	qport "github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/queue/port"
	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	"github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/usecase"
	repoAdapter "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/adapter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// OfflineNotifyTaskType is the queue task name for notifying a member who
// had no connection in the room when a message landed.
const OfflineNotifyTaskType = "chat:offline_notify"

// OfflineNotifyPayload is the JSON payload transported via the queue. Kept
// decoupled from domain types to avoid tight coupling with JSON tags.
type OfflineNotifyPayload struct {
	UserID    string `json:"userId"`
	RoomKey   string `json:"roomKey"`
	MessageID string `json:"messageId"`
}

// Notifier enqueues offline notification tasks. It satisfies the
// broadcaster's OfflineNotifier interface.
type Notifier struct {
	queue qport.Client
}

func NewNotifier(queue qport.Client) *Notifier {
	return &Notifier{queue: queue}
}

// NotifyOffline enqueues one task per (user, message). The unique TTL
// debounces rapid-fire messages into a single pending notification per room.
func (n *Notifier) NotifyOffline(ctx context.Context, userID string, msg chat.Message) error {
	payload, err := json.Marshal(OfflineNotifyPayload{
		UserID:    userID,
		RoomKey:   msg.Room.String(),
		MessageID: msg.ID,
	})
	if err != nil {
		return err
	}
	_, err = n.queue.Enqueue(ctx, qport.Task{Type: OfflineNotifyTaskType, Payload: payload}, qport.EnqueueOption{
		Queue:     "chat",
		MaxRetry:  3,
		UniqueTTL: time.Minute,
	})
	if err == nil {
		metrics.OfflineNotifications.Inc()
	}
	return err
}

// RegisterOfflineNotifyTask binds the task handler to the provided server.
// The handler recomputes the user's unread count at processing time — the
// read cursor may have moved since enqueue — and emits the notification.
func RegisterOfflineNotifyTask(srv qport.Server, pool *pgxpool.Pool) {
	messages := repoAdapter.NewPgMessageStore(pool)
	members := repoAdapter.NewPgMembershipStore(pool)
	resync := usecase.NewResyncUseCase(messages, members)

	srv.Register(OfflineNotifyTaskType, func(ctx context.Context, t qport.Task) error {
		var p OfflineNotifyPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not help
			return nil
		}
		room, err := chat.ParseRoomKey(p.RoomKey)
		if err != nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		unread, err := resync.Unread(ctx, p.UserID, room)
		if err != nil {
			// store hiccup: let the queue retry
			return err
		}
		if unread == 0 {
			// user caught up between enqueue and processing
			return nil
		}

		// TODO: hand off to the platform's push-notification sender once the
		// mobile apps register device tokens.
		log.Info().
			Str("user_id", p.UserID).
			Str("room", p.RoomKey).
			Int("unread", unread).
			Msg("offline member has unread messages")
		return nil
	})
}
