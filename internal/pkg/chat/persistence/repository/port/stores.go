package repository

import (
	"context"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
)

// MessageStore owns durable message rows. The gateway treats Create as a
// single indivisible call: the message insert and the room's last-activity
// bump happen in one transaction on the store side, and nothing is broadcast
// before Create returns.
type MessageStore interface {
	Create(ctx context.Context, room chat.RoomKey, senderID, content string) (chat.Message, error)

	// ListSince returns messages strictly after since, ordered ascending by
	// (created_at, id), capped at limit.
	ListSince(ctx context.Context, room chat.RoomKey, since chat.Cursor, limit int) ([]chat.Message, error)

	// CountSince reports how many persisted messages order after since.
	CountSince(ctx context.Context, room chat.RoomKey, since chat.Cursor) (int, error)

	// FindByID resolves a message id within a room to the full message,
	// returning chat.ErrMessageNotFound when absent.
	FindByID(ctx context.Context, room chat.RoomKey, messageID string) (chat.Message, error)
}

// MembershipStore owns room eligibility and per-user read cursors.
type MembershipStore interface {
	IsDirectParticipant(ctx context.Context, userID, conversationID string) (bool, error)
	IsCommunityMember(ctx context.Context, userID, communityID string) (bool, error)

	// EligibleMemberIDs lists the user ids allowed in the room: the two
	// participants of a direct conversation, or the community's member set.
	EligibleMemberIDs(ctx context.Context, room chat.RoomKey) ([]string, error)

	// GetReadCursor returns the zero cursor when the user has never
	// acknowledged anything in the room.
	GetReadCursor(ctx context.Context, userID string, room chat.RoomKey) (chat.Cursor, error)

	// SetReadCursor advances the stored cursor only when cursor orders after
	// the current value; it reports whether an advance happened. The stored
	// cursor is monotonically non-decreasing.
	SetReadCursor(ctx context.Context, userID string, room chat.RoomKey, cursor chat.Cursor) (bool, error)
}
