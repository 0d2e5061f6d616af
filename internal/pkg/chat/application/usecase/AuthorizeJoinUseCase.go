package usecase

import (
	"context"
	"fmt"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	repository "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/port"
)

// AuthorizeJoinInput validates a request to attach a connection to a room.
type AuthorizeJoinInput struct {
	UserID string
	Room   chat.RoomKey
}

// AuthorizeJoinUseCase answers "is user U allowed in room R". It queries the
// membership store on every join request — never cached across reconnects,
// because membership can change between sessions.
type AuthorizeJoinUseCase struct {
	Members repository.MembershipStore
}

func NewAuthorizeJoinUseCase(members repository.MembershipStore) *AuthorizeJoinUseCase {
	return &AuthorizeJoinUseCase{Members: members}
}

func (uc *AuthorizeJoinUseCase) Execute(ctx context.Context, in AuthorizeJoinInput) error {
	if in.UserID == "" || in.Room.ID == "" {
		return fmt.Errorf("%w: user and room are required", chat.ErrInvalidRoomKey)
	}

	var (
		ok  bool
		err error
	)
	switch in.Room.Kind {
	case chat.RoomKindCommunity:
		ok, err = uc.Members.IsCommunityMember(ctx, in.UserID, in.Room.ID)
	case chat.RoomKindDirect:
		ok, err = uc.Members.IsDirectParticipant(ctx, in.UserID, in.Room.ID)
	default:
		return fmt.Errorf("%w: unknown kind %q", chat.ErrInvalidRoomKey, in.Room.Kind)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !ok {
		return chat.ErrForbidden
	}
	return nil
}
