package realtime

import (
	"fmt"
	"sync"
	"testing"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConnection builds a connection without a socket. The write loop is
// never started, so sends land in the buffered channel for inspection.
func newTestConnection(userID string) *Connection {
	c := NewConnection(userID, userID, nil)
	return c
}

func recvPayload(t *testing.T, c *Connection) []byte {
	t.Helper()
	select {
	case b := <-c.send:
		return b
	default:
		t.Fatal("no payload buffered")
		return nil
	}
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	room := chat.RoomKey{Kind: chat.RoomKindDirect, ID: "conv1"}

	conn := newTestConnection("alice")
	r.Add(conn)
	assert.Equal(t, 1, r.OnlineCount())
	assert.True(t, r.UserOnline("alice"))

	require.True(t, r.Join(conn.ID, room))
	require.Len(t, r.MembersOf(room), 1)

	t.Run("remove tears down room membership", func(t *testing.T) {
		offline := r.Remove(conn.ID)
		assert.True(t, offline)
		assert.Empty(t, r.MembersOf(room))
		assert.False(t, r.UserOnline("alice"))
		assert.Zero(t, r.OnlineCount())
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		assert.False(t, r.Remove(conn.ID))
		assert.False(t, r.Remove("never-existed"))
	})
}

func TestRegistryMultiDevice(t *testing.T) {
	r := NewRegistry()
	room := chat.RoomKey{Kind: chat.RoomKindCommunity, ID: "club1"}

	phone := newTestConnection("alice")
	laptop := newTestConnection("alice")
	r.Add(phone)
	r.Add(laptop)

	require.True(t, r.Join(phone.ID, room))
	require.True(t, r.Join(laptop.ID, room))
	assert.Len(t, r.MembersOf(room), 2)
	assert.Len(t, r.ConnectionsOf("alice"), 2)
	assert.ElementsMatch(t, []string{"alice"}, r.OnlineUsers())

	t.Run("user stays online until the last connection drops", func(t *testing.T) {
		assert.False(t, r.Remove(phone.ID))
		assert.True(t, r.UserOnline("alice"))
		assert.True(t, r.Remove(laptop.ID))
		assert.False(t, r.UserOnline("alice"))
	})
}

func TestRegistryJoinLeave(t *testing.T) {
	r := NewRegistry()
	room := chat.RoomKey{Kind: chat.RoomKindDirect, ID: "conv1"}
	other := chat.RoomKey{Kind: chat.RoomKindDirect, ID: "conv2"}

	conn := newTestConnection("alice")
	r.Add(conn)

	t.Run("join is idempotent", func(t *testing.T) {
		require.True(t, r.Join(conn.ID, room))
		require.True(t, r.Join(conn.ID, room))
		assert.Len(t, r.MembersOf(room), 1)
		assert.True(t, r.IsJoined(conn.ID, room))
	})

	t.Run("leave is idempotent and scoped to one room", func(t *testing.T) {
		require.True(t, r.Join(conn.ID, other))
		r.Leave(conn.ID, room)
		r.Leave(conn.ID, room)
		assert.False(t, r.IsJoined(conn.ID, room))
		assert.True(t, r.IsJoined(conn.ID, other))
	})

	t.Run("join of an unregistered connection is refused", func(t *testing.T) {
		assert.False(t, r.Join("ghost", room))
		assert.False(t, r.IsJoined("ghost", room))
	})

	t.Run("empty rooms are dropped from the table", func(t *testing.T) {
		r.Leave(conn.ID, other)
		assert.Empty(t, r.MembersOf(other))
	})
}

func TestRegistryConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()
	const workers = 16

	var wg sync.WaitGroup
	conns := make([]*Connection, workers)
	for i := 0; i < workers; i++ {
		conns[i] = newTestConnection(fmt.Sprintf("user%d", i%4))
		r.Add(conns[i])
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(c *Connection, n int) {
			defer wg.Done()
			room := chat.RoomKey{Kind: chat.RoomKindCommunity, ID: fmt.Sprintf("room%d", n%3)}
			for j := 0; j < 100; j++ {
				r.Join(c.ID, room)
				r.MembersOf(room)
				r.Leave(c.ID, room)
			}
		}(conns[i], i)
	}
	wg.Wait()

	for n := 0; n < 3; n++ {
		room := chat.RoomKey{Kind: chat.RoomKindCommunity, ID: fmt.Sprintf("room%d", n)}
		assert.Empty(t, r.MembersOf(room))
	}
	assert.Equal(t, workers, r.OnlineCount())
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry()
	room := chat.RoomKey{Kind: chat.RoomKindDirect, ID: "conv1"}
	conn := newTestConnection("alice")
	r.Add(conn)
	require.True(t, r.Join(conn.ID, room))

	r.Close()
	assert.Zero(t, r.OnlineCount())
	assert.Empty(t, r.MembersOf(room))
	assert.ErrorIs(t, conn.Send([]byte("x")), ErrConnectionClosed)
}
