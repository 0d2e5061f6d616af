package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMemberLister struct {
	members map[string][]string
}

func (s *stubMemberLister) EligibleMemberIDs(ctx context.Context, room chat.RoomKey) ([]string, error) {
	return s.members[room.String()], nil
}

type recordingNotifier struct {
	notified []string
}

func (n *recordingNotifier) NotifyOffline(ctx context.Context, userID string, msg chat.Message) error {
	n.notified = append(n.notified, userID)
	return nil
}

func testMessage(room chat.RoomKey, sender string) chat.Message {
	return chat.Message{
		ID:        "m1",
		Room:      room,
		SenderID:  sender,
		Content:   "hi",
		CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestBroadcasterPublish(t *testing.T) {
	ctx := context.Background()
	room := chat.RoomKey{Kind: chat.RoomKindDirect, ID: "conv1"}

	t.Run("delivers once to every joined connection", func(t *testing.T) {
		r := NewRegistry()
		alice := newTestConnection("alice")
		bob := newTestConnection("bob")
		r.Add(alice)
		r.Add(bob)
		require.True(t, r.Join(alice.ID, room))
		require.True(t, r.Join(bob.ID, room))

		lister := &stubMemberLister{members: map[string][]string{room.String(): {"alice", "bob"}}}
		b := NewBroadcaster(r, lister, nil, zerolog.Nop())

		delivered := b.Publish(ctx, testMessage(room, "alice"))
		assert.Equal(t, 2, delivered)

		var frame struct {
			Type    string       `json:"type"`
			Message chat.Message `json:"message"`
		}
		require.NoError(t, json.Unmarshal(recvPayload(t, bob), &frame))
		assert.Equal(t, "new_message", frame.Type)
		assert.Equal(t, "hi", frame.Message.Content)
		assert.Equal(t, "m1", frame.Message.ID)

		// No second copy buffered for anyone.
		select {
		case <-bob.send:
			t.Fatal("duplicate delivery")
		default:
		}
	})

	t.Run("connections outside the room receive nothing", func(t *testing.T) {
		r := NewRegistry()
		alice := newTestConnection("alice")
		bob := newTestConnection("bob")
		r.Add(alice)
		r.Add(bob)
		require.True(t, r.Join(alice.ID, room))
		// bob is connected but never joined the room.

		lister := &stubMemberLister{members: map[string][]string{room.String(): {"alice", "bob"}}}
		notifier := &recordingNotifier{}
		b := NewBroadcaster(r, lister, notifier, zerolog.Nop())

		delivered := b.Publish(ctx, testMessage(room, "alice"))
		assert.Equal(t, 1, delivered)
		select {
		case <-bob.send:
			t.Fatal("bob is not joined and must not receive a push")
		default:
		}
		// Instead he is recorded for offline notification.
		assert.Equal(t, []string{"bob"}, notifier.notified)
	})

	t.Run("sender is never offline-notified", func(t *testing.T) {
		r := NewRegistry()
		lister := &stubMemberLister{members: map[string][]string{room.String(): {"alice", "bob"}}}
		notifier := &recordingNotifier{}
		b := NewBroadcaster(r, lister, notifier, zerolog.Nop())

		// Nobody connected at all: only the non-sender member is notified.
		b.Publish(ctx, testMessage(room, "alice"))
		assert.Equal(t, []string{"bob"}, notifier.notified)
	})

	t.Run("multi-device users get one frame per connection", func(t *testing.T) {
		r := NewRegistry()
		phone := newTestConnection("bob")
		laptop := newTestConnection("bob")
		r.Add(phone)
		r.Add(laptop)
		require.True(t, r.Join(phone.ID, room))
		require.True(t, r.Join(laptop.ID, room))

		lister := &stubMemberLister{members: map[string][]string{room.String(): {"alice", "bob"}}}
		notifier := &recordingNotifier{}
		b := NewBroadcaster(r, lister, notifier, zerolog.Nop())

		delivered := b.Publish(ctx, testMessage(room, "alice"))
		assert.Equal(t, 2, delivered)
		recvPayload(t, phone)
		recvPayload(t, laptop)
		// bob had a joined connection, so no offline notification for him;
		// alice is the sender.
		assert.Empty(t, notifier.notified)
	})
}
