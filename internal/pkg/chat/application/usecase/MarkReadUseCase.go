package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	repository "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput acknowledges messages up to and including UptoMessageID.
type MarkReadInput struct {
	UserID        string
	Room          chat.RoomKey
	UptoMessageID string
}

// MarkReadResult reports whether the cursor moved, and when it did, the
// unread count that remains so the gateway can fan an unread_update out to
// the user's other devices.
type MarkReadResult struct {
	Advanced    bool
	UnreadCount int
}

// MarkReadUseCase advances the user's read cursor for a room. The cursor is
// monotonically non-decreasing: acknowledging an older message than the
// current cursor is a no-op, never an error.
type MarkReadUseCase struct {
	Messages repository.MessageStore
	Members  repository.MembershipStore
}

func NewMarkReadUseCase(messages repository.MessageStore, members repository.MembershipStore) *MarkReadUseCase {
	return &MarkReadUseCase{Messages: messages, Members: members}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) (*MarkReadResult, error) {
	if in.UserID == "" || in.Room.ID == "" || in.UptoMessageID == "" {
		return nil, fmt.Errorf("%w: user, room and message id are required", chat.ErrInvalidRoomKey)
	}

	anchor, err := uc.Messages.FindByID(ctx, in.Room, in.UptoMessageID)
	if err != nil {
		if errors.Is(err, chat.ErrMessageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	advanced, err := uc.Members.SetReadCursor(ctx, in.UserID, in.Room, anchor.Cursor())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !advanced {
		return &MarkReadResult{Advanced: false}, nil
	}

	unread, err := uc.Messages.CountSince(ctx, in.Room, anchor.Cursor())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &MarkReadResult{Advanced: true, UnreadCount: unread}, nil
}
