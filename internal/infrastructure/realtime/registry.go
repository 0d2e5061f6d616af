package realtime

import (
	"sync"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"

	"github.com/gorilla/websocket"
)

// Registry is the process-wide presence table and room registry: which
// connections exist, which user owns each, and which connections currently
// sit in which room. It is the only shared mutable state inside the gateway;
// all operations hold the lock for short, I/O-free critical sections, so a
// reader never observes a half-completed join.
//
// Stale membership is torn down explicitly on Remove — never left for the
// garbage collector.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*Connection                      // connectionID -> connection
	userConns map[string]map[string]*Connection           // userID -> connectionID -> connection
	rooms     map[chat.RoomKey]map[string]*Connection     // roomKey -> connectionID -> connection
	connRooms map[string]map[chat.RoomKey]struct{}        // connectionID -> joined rooms
}

// NewRegistry constructs an initialized Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:     make(map[string]*Connection),
		userConns: make(map[string]map[string]*Connection),
		rooms:     make(map[chat.RoomKey]map[string]*Connection),
		connRooms: make(map[string]map[chat.RoomKey]struct{}),
	}
}

// Add registers a connection. A user may hold any number of simultaneous
// connections; none of them replaces another.
func (r *Registry) Add(conn *Connection) {
	r.mu.Lock()
	r.conns[conn.ID] = conn
	byUser := r.userConns[conn.UserID]
	if byUser == nil {
		byUser = make(map[string]*Connection)
		r.userConns[conn.UserID] = byUser
	}
	byUser[conn.ID] = conn
	r.connRooms[conn.ID] = make(map[chat.RoomKey]struct{})
	r.mu.Unlock()

	conn.Start()
}

// Remove deregisters a connection: it leaves every joined room and drops out
// of the presence table. Idempotent — removing an unknown id is a no-op. It
// reports whether this was the user's last active connection.
func (r *Registry) Remove(connectionID string) (userOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return false
	}
	delete(r.conns, connectionID)

	for room := range r.connRooms[connectionID] {
		r.leaveLocked(connectionID, room)
	}
	delete(r.connRooms, connectionID)

	byUser := r.userConns[conn.UserID]
	delete(byUser, connectionID)
	if len(byUser) == 0 {
		delete(r.userConns, conn.UserID)
		return true
	}
	return false
}

// Join adds the connection to a room. Authorization must already have
// succeeded. Idempotent: joining twice is a no-op. It reports false when the
// connection is not registered (e.g. it disconnected while the join was
// being authorized).
func (r *Registry) Join(connectionID string, room chat.RoomKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return false
	}

	members := r.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		r.rooms[room] = members
	}
	members[connectionID] = conn
	r.connRooms[connectionID][room] = struct{}{}
	return true
}

// Leave removes the connection from a room. Leaving a room not joined is a
// no-op.
func (r *Registry) Leave(connectionID string, room chat.RoomKey) {
	r.mu.Lock()
	r.leaveLocked(connectionID, room)
	r.mu.Unlock()
}

func (r *Registry) leaveLocked(connectionID string, room chat.RoomKey) {
	members := r.rooms[room]
	if members == nil {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	if joined, ok := r.connRooms[connectionID]; ok {
		delete(joined, room)
	}
}

// IsJoined reports whether the connection currently sits in the room.
func (r *Registry) IsJoined(connectionID string, room chat.RoomKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.connRooms[connectionID][room]
	return ok
}

// MembersOf snapshots the connections currently joined to a room. The
// returned slice is safe to iterate without holding any lock.
func (r *Registry) MembersOf(room chat.RoomKey) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	if len(members) == 0 {
		return nil
	}
	out := make([]*Connection, 0, len(members))
	for _, conn := range members {
		out = append(out, conn)
	}
	return out
}

// ConnectionsOf snapshots every live connection of a user.
func (r *Registry) ConnectionsOf(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byUser := r.userConns[userID]
	if len(byUser) == 0 {
		return nil
	}
	out := make([]*Connection, 0, len(byUser))
	for _, conn := range byUser {
		out = append(out, conn)
	}
	return out
}

// UserOnline reports whether the user holds at least one live connection.
func (r *Registry) UserOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userConns[userID]) > 0
}

// OnlineUsers snapshots the ids of users holding at least one connection.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.userConns))
	for userID := range r.userConns {
		out = append(out, userID)
	}
	return out
}

// OnlineCount returns the number of live connections.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Close terminates all tracked connections and clears registry state.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[string]*Connection)
	r.userConns = make(map[string]map[string]*Connection)
	r.rooms = make(map[chat.RoomKey]map[string]*Connection)
	r.connRooms = make(map[string]map[chat.RoomKey]struct{})
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.CloseGoingAway, "gateway shutdown")
	}
}
