package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	repository "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/port"
)

// ResyncPageSize caps how many messages a single resync call returns.
// Clients page by repeating the call with the last returned message as the
// new cursor; the gateway never silently drops messages.
const ResyncPageSize = 50

// ResyncInput describes a backfill request after (re)connect. When the
// client supplies SinceMessageID the tail starts after that message;
// otherwise it starts at the user's stored read cursor.
type ResyncInput struct {
	UserID         string
	Room           chat.RoomKey
	SinceMessageID string
}

// ResyncResult carries one ascending page of missed messages plus the total
// unread count relative to the stored read cursor. The count is independent
// of the page so a client can show "12 unread" while only the first page
// has loaded.
type ResyncResult struct {
	Messages    []chat.Message
	UnreadCount int
}

// ResyncUseCase backfills messages missed while disconnected.
type ResyncUseCase struct {
	Messages repository.MessageStore
	Members  repository.MembershipStore
}

func NewResyncUseCase(messages repository.MessageStore, members repository.MembershipStore) *ResyncUseCase {
	return &ResyncUseCase{Messages: messages, Members: members}
}

func (uc *ResyncUseCase) Execute(ctx context.Context, in ResyncInput) (*ResyncResult, error) {
	if in.UserID == "" || in.Room.ID == "" {
		return nil, fmt.Errorf("%w: user and room are required", chat.ErrInvalidRoomKey)
	}

	readCursor, err := uc.Members.GetReadCursor(ctx, in.UserID, in.Room)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	since := readCursor
	if in.SinceMessageID != "" {
		anchor, err := uc.Messages.FindByID(ctx, in.Room, in.SinceMessageID)
		if err != nil {
			if errors.Is(err, chat.ErrMessageNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		since = anchor.Cursor()
	}

	msgs, err := uc.Messages.ListSince(ctx, in.Room, since, ResyncPageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	unread, err := uc.Messages.CountSince(ctx, in.Room, readCursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return &ResyncResult{Messages: msgs, UnreadCount: unread}, nil
}

// Unread computes just the unread count for a user in a room, reusing the
// stored read cursor. Serves the REST unread summary and offline
// notifications without pulling a message page.
func (uc *ResyncUseCase) Unread(ctx context.Context, userID string, room chat.RoomKey) (int, error) {
	readCursor, err := uc.Members.GetReadCursor(ctx, userID, room)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	unread, err := uc.Messages.CountSince(ctx, room, readCursor)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return unread, nil
}
