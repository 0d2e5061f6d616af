package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkReadUseCase(t *testing.T) {
	ctx := context.Background()
	room := chat.RoomKey{Kind: chat.RoomKindCommunity, ID: "club1"}

	messages := newFakeMessageStore()
	members := newFakeMembershipStore()
	var all []chat.Message
	for i := 0; i < 4; i++ {
		m, err := messages.Create(ctx, room, "alice", fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
		all = append(all, m)
	}
	uc := NewMarkReadUseCase(messages, members)

	t.Run("advances the cursor and reports remaining unread", func(t *testing.T) {
		res, err := uc.Execute(ctx, MarkReadInput{UserID: "bob", Room: room, UptoMessageID: all[1].ID})
		require.NoError(t, err)
		assert.True(t, res.Advanced)
		assert.Equal(t, 2, res.UnreadCount)

		cur, err := members.GetReadCursor(ctx, "bob", room)
		require.NoError(t, err)
		assert.Equal(t, all[1].Cursor(), cur)
	})

	t.Run("older cursor is a no-op, never a regression", func(t *testing.T) {
		res, err := uc.Execute(ctx, MarkReadInput{UserID: "bob", Room: room, UptoMessageID: all[0].ID})
		require.NoError(t, err)
		assert.False(t, res.Advanced)

		cur, err := members.GetReadCursor(ctx, "bob", room)
		require.NoError(t, err)
		assert.Equal(t, all[1].Cursor(), cur, "cursor must not move backwards")
	})

	t.Run("marking the same message twice is a no-op", func(t *testing.T) {
		res, err := uc.Execute(ctx, MarkReadInput{UserID: "bob", Room: room, UptoMessageID: all[1].ID})
		require.NoError(t, err)
		assert.False(t, res.Advanced)
	})

	t.Run("reading everything zeroes the unread count", func(t *testing.T) {
		res, err := uc.Execute(ctx, MarkReadInput{UserID: "bob", Room: room, UptoMessageID: all[3].ID})
		require.NoError(t, err)
		assert.True(t, res.Advanced)
		assert.Zero(t, res.UnreadCount)
	})

	t.Run("unknown message id", func(t *testing.T) {
		_, err := uc.Execute(ctx, MarkReadInput{UserID: "bob", Room: room, UptoMessageID: "nope"})
		assert.ErrorIs(t, err, chat.ErrMessageNotFound)
	})

	t.Run("store failure maps to ErrStore", func(t *testing.T) {
		members.err = errors.New("down")
		defer func() { members.err = nil }()
		_, err := uc.Execute(ctx, MarkReadInput{UserID: "bob", Room: room, UptoMessageID: all[2].ID})
		assert.ErrorIs(t, err, ErrStore)
	})

	t.Run("missing input is rejected", func(t *testing.T) {
		_, err := uc.Execute(ctx, MarkReadInput{UserID: "bob", Room: room})
		assert.ErrorIs(t, err, chat.ErrInvalidRoomKey)
	})
}
