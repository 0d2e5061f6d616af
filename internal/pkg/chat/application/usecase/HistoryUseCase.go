package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	repository "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/port"
)

// HistoryInput fetches a page of room history over REST. SinceMessageID is
// optional; when empty the page starts from the beginning of the room.
type HistoryInput struct {
	Room           chat.RoomKey
	SinceMessageID string
	Limit          int
}

// HistoryUseCase serves paginated message history. It shares the ListSince
// path with resync so REST and websocket clients always observe the same
// (createdAt, id) ordering.
type HistoryUseCase struct {
	Messages repository.MessageStore
}

func NewHistoryUseCase(messages repository.MessageStore) *HistoryUseCase {
	return &HistoryUseCase{Messages: messages}
}

func (uc *HistoryUseCase) Execute(ctx context.Context, in HistoryInput) ([]chat.Message, error) {
	if in.Room.ID == "" {
		return nil, fmt.Errorf("%w: room is required", chat.ErrInvalidRoomKey)
	}
	limit := in.Limit
	if limit <= 0 || limit > ResyncPageSize {
		limit = ResyncPageSize
	}

	var since chat.Cursor
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

	msgs, err := uc.Messages.ListSince(ctx, in.Room, since, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return msgs, nil
}
