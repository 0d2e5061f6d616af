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

func TestResyncUseCase(t *testing.T) {
	ctx := context.Background()
	room := chat.RoomKey{Kind: chat.RoomKindDirect, ID: "conv1"}

	seed := func(t *testing.T, n int) (*fakeMessageStore, *fakeMembershipStore, *ResyncUseCase, []chat.Message) {
		t.Helper()
		messages := newFakeMessageStore()
		members := newFakeMembershipStore()
		var all []chat.Message
		for i := 0; i < n; i++ {
			m, err := messages.Create(ctx, room, "alice", fmt.Sprintf("msg %d", i))
			require.NoError(t, err)
			all = append(all, m)
		}
		return messages, members, NewResyncUseCase(messages, members), all
	}

	t.Run("defaults to the stored read cursor", func(t *testing.T) {
		_, members, uc, all := seed(t, 5)
		_, err := members.SetReadCursor(ctx, "bob", room, all[1].Cursor())
		require.NoError(t, err)

		res, err := uc.Execute(ctx, ResyncInput{UserID: "bob", Room: room})
		require.NoError(t, err)
		assert.Len(t, res.Messages, 3)
		assert.Equal(t, all[2].ID, res.Messages[0].ID)
		assert.Equal(t, 3, res.UnreadCount)
	})

	t.Run("explicit client cursor wins, unread stays cursor-relative", func(t *testing.T) {
		_, members, uc, all := seed(t, 5)
		_, err := members.SetReadCursor(ctx, "bob", room, all[0].Cursor())
		require.NoError(t, err)

		res, err := uc.Execute(ctx, ResyncInput{UserID: "bob", Room: room, SinceMessageID: all[3].ID})
		require.NoError(t, err)
		// Page starts after the supplied message...
		require.Len(t, res.Messages, 1)
		assert.Equal(t, all[4].ID, res.Messages[0].ID)
		// ...but the unread count is still measured from the read cursor.
		assert.Equal(t, 4, res.UnreadCount)
	})

	t.Run("never read user gets the full tail", func(t *testing.T) {
		_, _, uc, all := seed(t, 3)
		res, err := uc.Execute(ctx, ResyncInput{UserID: "bob", Room: room})
		require.NoError(t, err)
		assert.Len(t, res.Messages, len(all))
		assert.Equal(t, len(all), res.UnreadCount)
	})

	t.Run("pages are capped and resumable", func(t *testing.T) {
		_, _, uc, all := seed(t, ResyncPageSize+7)
		res, err := uc.Execute(ctx, ResyncInput{UserID: "bob", Room: room})
		require.NoError(t, err)
		require.Len(t, res.Messages, ResyncPageSize)
		assert.Equal(t, ResyncPageSize+7, res.UnreadCount)

		// Repeat with the last returned message as the new cursor.
		last := res.Messages[len(res.Messages)-1]
		res2, err := uc.Execute(ctx, ResyncInput{UserID: "bob", Room: room, SinceMessageID: last.ID})
		require.NoError(t, err)
		require.Len(t, res2.Messages, 7)
		assert.Equal(t, all[len(all)-1].ID, res2.Messages[6].ID)
	})

	t.Run("idempotent for the same cursor with no intervening sends", func(t *testing.T) {
		_, _, uc, all := seed(t, 6)
		in := ResyncInput{UserID: "bob", Room: room, SinceMessageID: all[2].ID}
		first, err := uc.Execute(ctx, in)
		require.NoError(t, err)
		second, err := uc.Execute(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("unknown anchor message", func(t *testing.T) {
		_, _, uc, _ := seed(t, 2)
		_, err := uc.Execute(ctx, ResyncInput{UserID: "bob", Room: room, SinceMessageID: "nope"})
		assert.ErrorIs(t, err, chat.ErrMessageNotFound)
	})

	t.Run("store failure maps to ErrStore", func(t *testing.T) {
		messages, _, uc, _ := seed(t, 2)
		messages.err = errors.New("down")
		_, err := uc.Execute(ctx, ResyncInput{UserID: "bob", Room: room})
		assert.ErrorIs(t, err, ErrStore)
	})

	t.Run("Unread reuses the stored cursor", func(t *testing.T) {
		_, members, uc, all := seed(t, 4)
		_, err := members.SetReadCursor(ctx, "bob", room, all[2].Cursor())
		require.NoError(t, err)
		unread, err := uc.Unread(ctx, "bob", room)
		require.NoError(t, err)
		assert.Equal(t, 1, unread)
	})
}
