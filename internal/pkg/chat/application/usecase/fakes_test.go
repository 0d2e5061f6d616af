package usecase

import (
	"context"
	"fmt"
	"time"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
)

// In-memory store fakes shared by the use case tests. Ordering semantics
// mirror the Postgres adapters: ascending (createdAt, id), id breaking ties.

type fakeMessageStore struct {
	msgs      map[string][]chat.Message // room key -> ascending log
	seq       int
	base      time.Time
	createErr error
	err       error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		msgs: make(map[string][]chat.Message),
		base: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (s *fakeMessageStore) Create(ctx context.Context, room chat.RoomKey, senderID, content string) (chat.Message, error) {
	if s.createErr != nil {
		return chat.Message{}, s.createErr
	}
	s.seq++
	msg := chat.Message{
		ID:        fmt.Sprintf("m%03d", s.seq),
		Room:      room,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.base.Add(time.Duration(s.seq) * time.Second),
	}
	s.msgs[room.String()] = append(s.msgs[room.String()], msg)
	return msg, nil
}

func (s *fakeMessageStore) ListSince(ctx context.Context, room chat.RoomKey, since chat.Cursor, limit int) ([]chat.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []chat.Message
	for _, m := range s.msgs[room.String()] {
		if m.Cursor().After(since) {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeMessageStore) CountSince(ctx context.Context, room chat.RoomKey, since chat.Cursor) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	count := 0
	for _, m := range s.msgs[room.String()] {
		if m.Cursor().After(since) {
			count++
		}
	}
	return count, nil
}

func (s *fakeMessageStore) FindByID(ctx context.Context, room chat.RoomKey, messageID string) (chat.Message, error) {
	if s.err != nil {
		return chat.Message{}, s.err
	}
	for _, m := range s.msgs[room.String()] {
		if m.ID == messageID {
			return m, nil
		}
	}
	return chat.Message{}, chat.ErrMessageNotFound
}

type fakeMembershipStore struct {
	participants map[string][]string // conversationID -> userIDs
	members      map[string][]string // communityID -> userIDs
	cursors      map[string]chat.Cursor
	err          error
}

func newFakeMembershipStore() *fakeMembershipStore {
	return &fakeMembershipStore{
		participants: make(map[string][]string),
		members:      make(map[string][]string),
		cursors:      make(map[string]chat.Cursor),
	}
}

func cursorKey(userID string, room chat.RoomKey) string {
	return userID + "|" + room.String()
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *fakeMembershipStore) IsDirectParticipant(ctx context.Context, userID, conversationID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return contains(s.participants[conversationID], userID), nil
}

func (s *fakeMembershipStore) IsCommunityMember(ctx context.Context, userID, communityID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return contains(s.members[communityID], userID), nil
}

func (s *fakeMembershipStore) EligibleMemberIDs(ctx context.Context, room chat.RoomKey) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if room.Kind == chat.RoomKindCommunity {
		return s.members[room.ID], nil
	}
	return s.participants[room.ID], nil
}

func (s *fakeMembershipStore) GetReadCursor(ctx context.Context, userID string, room chat.RoomKey) (chat.Cursor, error) {
	if s.err != nil {
		return chat.Cursor{}, s.err
	}
	return s.cursors[cursorKey(userID, room)], nil
}

func (s *fakeMembershipStore) SetReadCursor(ctx context.Context, userID string, room chat.RoomKey, cursor chat.Cursor) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	key := cursorKey(userID, room)
	if !cursor.After(s.cursors[key]) {
		return false, nil
	}
	s.cursors[key] = cursor
	return true, nil
}

// fakePresence satisfies RoomPresence for send tests.
type fakePresence map[string]bool

func (p fakePresence) IsJoined(connectionID string, room chat.RoomKey) bool {
	return p[connectionID+"|"+room.String()]
}

func (p fakePresence) join(connectionID string, room chat.RoomKey) {
	p[connectionID+"|"+room.String()] = true
}
