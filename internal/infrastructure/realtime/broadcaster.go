package realtime

import (
	"context"
	"encoding/json"

	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/metrics"
	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"

	"github.com/rs/zerolog"
)

// MemberLister exposes the room's eligible member set; the membership store
// satisfies it.
type MemberLister interface {
	EligibleMemberIDs(ctx context.Context, room chat.RoomKey) ([]string, error)
}

// OfflineNotifier is told about eligible members who had no connection in
// the room when a message landed. The asynq-backed notifier implements it.
type OfflineNotifier interface {
	NotifyOffline(ctx context.Context, userID string, msg chat.Message) error
}

type newMessageFrame struct {
	Type    string       `json:"type"`
	Message chat.Message `json:"message"`
}

// Broadcaster fans a persisted message out to every connection currently
// joined to its room. Callers must only hand it messages that the store has
// already accepted — write-then-fan-out, never the reverse.
type Broadcaster struct {
	registry *Registry
	members  MemberLister
	notifier OfflineNotifier
	logger   zerolog.Logger
}

// NewBroadcaster wires the fan-out path. notifier may be nil, in which case
// offline members simply accrue unread counts until their next resync.
func NewBroadcaster(registry *Registry, members MemberLister, notifier OfflineNotifier, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		members:  members,
		notifier: notifier,
		logger:   logger.With().Str("component", "broadcaster").Logger(),
	}
}

// Publish delivers msg exactly once to each connection joined to the room
// and returns the delivery count. Eligible members without a joined
// connection are handed to the offline notifier; their unread counts are a
// property of their read cursor, computed lazily on resync, so a notifier
// failure is logged and never fails the send.
func (b *Broadcaster) Publish(ctx context.Context, msg chat.Message) int {
	payload, err := json.Marshal(newMessageFrame{Type: "new_message", Message: msg})
	if err != nil {
		b.logger.Error().Err(err).Str("message_id", msg.ID).Msg("encode new_message frame")
		return 0
	}

	joined := b.registry.MembersOf(msg.Room)
	joinedUsers := make(map[string]struct{}, len(joined))
	delivered := 0
	for _, conn := range joined {
		joinedUsers[conn.UserID] = struct{}{}
		if err := conn.Send(payload); err != nil {
			b.logger.Warn().Err(err).
				Str("connection_id", conn.ID).
				Str("message_id", msg.ID).
				Msg("deliver new_message")
			continue
		}
		delivered++
	}
	metrics.BroadcastDeliveries.Add(float64(delivered))

	b.notifyOffline(ctx, msg, joinedUsers)
	return delivered
}

func (b *Broadcaster) notifyOffline(ctx context.Context, msg chat.Message, joinedUsers map[string]struct{}) {
	if b.notifier == nil {
		return
	}
	eligible, err := b.members.EligibleMemberIDs(ctx, msg.Room)
	if err != nil {
		b.logger.Warn().Err(err).Str("room", msg.Room.String()).Msg("list eligible members")
		return
	}
	for _, userID := range eligible {
		if userID == msg.SenderID {
			continue
		}
		if _, ok := joinedUsers[userID]; ok {
			continue
		}
		if err := b.notifier.NotifyOffline(ctx, userID, msg); err != nil {
			b.logger.Warn().Err(err).
				Str("user_id", userID).
				Str("message_id", msg.ID).
				Msg("enqueue offline notification")
		}
	}
}
