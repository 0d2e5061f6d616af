package usecase

import (
	"context"
	"errors"
	"testing"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeJoinUseCase(t *testing.T) {
	ctx := context.Background()
	members := newFakeMembershipStore()
	members.participants["conv1"] = []string{"alice", "bob"}
	members.members["club1"] = []string{"alice", "carol"}
	uc := NewAuthorizeJoinUseCase(members)

	direct := chat.RoomKey{Kind: chat.RoomKindDirect, ID: "conv1"}
	community := chat.RoomKey{Kind: chat.RoomKindCommunity, ID: "club1"}

	t.Run("direct participant may join", func(t *testing.T) {
		require.NoError(t, uc.Execute(ctx, AuthorizeJoinInput{UserID: "alice", Room: direct}))
		require.NoError(t, uc.Execute(ctx, AuthorizeJoinInput{UserID: "bob", Room: direct}))
	})

	t.Run("outsider is forbidden on direct room", func(t *testing.T) {
		err := uc.Execute(ctx, AuthorizeJoinInput{UserID: "carol", Room: direct})
		assert.ErrorIs(t, err, chat.ErrForbidden)
	})

	t.Run("community member may join", func(t *testing.T) {
		require.NoError(t, uc.Execute(ctx, AuthorizeJoinInput{UserID: "carol", Room: community}))
	})

	t.Run("non-member is forbidden on community room", func(t *testing.T) {
		err := uc.Execute(ctx, AuthorizeJoinInput{UserID: "bob", Room: community})
		assert.ErrorIs(t, err, chat.ErrForbidden)
	})

	t.Run("membership change is observed on the next join", func(t *testing.T) {
		require.NoError(t, uc.Execute(ctx, AuthorizeJoinInput{UserID: "carol", Room: community}))

		// carol leaves the community; the re-check on join must notice.
		members.members["club1"] = []string{"alice"}
		err := uc.Execute(ctx, AuthorizeJoinInput{UserID: "carol", Room: community})
		assert.ErrorIs(t, err, chat.ErrForbidden)
	})

	t.Run("store failure surfaces as ErrStore", func(t *testing.T) {
		members.err = errors.New("connection reset")
		defer func() { members.err = nil }()
		err := uc.Execute(ctx, AuthorizeJoinInput{UserID: "alice", Room: direct})
		assert.ErrorIs(t, err, ErrStore)
	})

	t.Run("missing input is rejected", func(t *testing.T) {
		err := uc.Execute(ctx, AuthorizeJoinInput{UserID: "", Room: direct})
		assert.ErrorIs(t, err, chat.ErrInvalidRoomKey)
	})
}
