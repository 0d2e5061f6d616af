package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	repository "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/port"
)

// RoomPresence reports whether a live connection has joined a room. The
// realtime registry implements it; use cases only need the read side.
type RoomPresence interface {
	IsJoined(connectionID string, room chat.RoomKey) bool
}

// SendMessageInput carries the data needed to ingest a new message.
type SendMessageInput struct {
	ConnectionID string
	SenderID     string
	Room         chat.RoomKey
	Content      string
}

// SendMessageUseCase runs the ingestion pipeline. Each step is a hard gate:
// the connection must have joined the room, the content must pass per-kind
// validation, and the message must be durably persisted before the caller is
// allowed to broadcast anything.
type SendMessageUseCase struct {
	Messages repository.MessageStore
	Rooms    RoomPresence
}

func NewSendMessageUseCase(messages repository.MessageStore, rooms RoomPresence) *SendMessageUseCase {
	return &SendMessageUseCase{Messages: messages, Rooms: rooms}
}

// Execute validates and persists a message. On success the returned message
// carries the store-assigned id and timestamp; on any failure nothing has
// been persisted and nothing may be broadcast.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.SenderID == "" || in.Room.ID == "" {
		return nil, fmt.Errorf("%w: sender and room are required", chat.ErrInvalidRoomKey)
	}

	// A connection may only send into rooms it has joined in this session.
	if !uc.Rooms.IsJoined(in.ConnectionID, in.Room) {
		return nil, chat.ErrNotJoined
	}

	content, err := chat.ValidateContent(in.Room, in.Content)
	if err != nil {
		return nil, err
	}

	msg, err := uc.Messages.Create(ctx, in.Room, in.SenderID, content)
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &msg, nil
}
