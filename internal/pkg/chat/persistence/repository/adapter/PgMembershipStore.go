package adapter

import (
	"context"
	"errors"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	repository "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure interface compliance at compile time
var _ repository.MembershipStore = (*PgMembershipStore)(nil)

// PgMembershipStore answers room eligibility questions and owns per-user
// read cursors. Monotonicity of the cursor is enforced in SQL so concurrent
// mark-as-read calls from multiple devices cannot move it backwards.
type PgMembershipStore struct {
	pool *pgxpool.Pool
}

func NewPgMembershipStore(pool *pgxpool.Pool) *PgMembershipStore {
	return &PgMembershipStore{pool: pool}
}

func (s *PgMembershipStore) IsDirectParticipant(ctx context.Context, userID, conversationID string) (bool, error) {
	if s == nil || s.pool == nil {
		return false, errors.New("PgMembershipStore: nil pool")
	}
	var ok bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.participant
			WHERE conversation_id = $1::uuid AND user_id = $2::uuid
		)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

func (s *PgMembershipStore) IsCommunityMember(ctx context.Context, userID, communityID string) (bool, error) {
	if s == nil || s.pool == nil {
		return false, errors.New("PgMembershipStore: nil pool")
	}
	var ok bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.community_member
			WHERE community_id = $1::uuid AND user_id = $2::uuid
		)
	`, communityID, userID).Scan(&ok)
	return ok, err
}

func (s *PgMembershipStore) EligibleMemberIDs(ctx context.Context, room chat.RoomKey) ([]string, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("PgMembershipStore: nil pool")
	}
	var query string
	switch room.Kind {
	case chat.RoomKindCommunity:
		query = `SELECT user_id::text FROM chat.community_member WHERE community_id = $1::uuid`
	default:
		query = `SELECT user_id::text FROM chat.participant WHERE conversation_id = $1::uuid`
	}
	rows, err := s.pool.Query(ctx, query, room.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PgMembershipStore) GetReadCursor(ctx context.Context, userID string, room chat.RoomKey) (chat.Cursor, error) {
	if s == nil || s.pool == nil {
		return chat.Cursor{}, errors.New("PgMembershipStore: nil pool")
	}
	var cur chat.Cursor
	rows, err := s.pool.Query(ctx, `
		SELECT last_read_at, last_read_msg
		FROM chat.read_cursor
		WHERE user_id = $1::uuid AND room_kind = $2 AND room_id = $3
	`, userID, room.Kind, room.ID)
	if err != nil {
		return chat.Cursor{}, err
	}
	defer rows.Close()

	// No row means the user has never acknowledged anything in the room.
	if rows.Next() {
		if err := rows.Scan(&cur.At, &cur.ID); err != nil {
			return chat.Cursor{}, err
		}
	}
	return cur, rows.Err()
}

func (s *PgMembershipStore) SetReadCursor(ctx context.Context, userID string, room chat.RoomKey, cursor chat.Cursor) (bool, error) {
	if s == nil || s.pool == nil {
		return false, errors.New("PgMembershipStore: nil pool")
	}
	ct, err := s.pool.Exec(ctx, `
		INSERT INTO chat.read_cursor (user_id, room_kind, room_id, last_read_at, last_read_msg)
		VALUES ($1::uuid, $2, $3, $4, $5)
		ON CONFLICT (user_id, room_kind, room_id) DO UPDATE
		SET last_read_at = EXCLUDED.last_read_at,
		    last_read_msg = EXCLUDED.last_read_msg
		WHERE chat.read_cursor.last_read_at < EXCLUDED.last_read_at
		   OR (chat.read_cursor.last_read_at = EXCLUDED.last_read_at
		       AND chat.read_cursor.last_read_msg < EXCLUDED.last_read_msg)
	`, userID, room.Kind, room.ID, cursor.At, cursor.ID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
