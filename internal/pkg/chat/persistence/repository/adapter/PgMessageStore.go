package adapter

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/application/domain"
	repository "github.com/aadharbata/content-creator-platform-sub002/internal/pkg/chat/persistence/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure interface compliance at compile time
var _ repository.MessageStore = (*PgMessageStore)(nil)

// PgMessageStore persists messages in Postgres. Create runs the message
// insert and the room's last_message_at bump in one transaction so the
// gateway can treat it as a single indivisible call.
type PgMessageStore struct {
	pool *pgxpool.Pool
}

func NewPgMessageStore(pool *pgxpool.Pool) *PgMessageStore {
	return &PgMessageStore{pool: pool}
}

func (s *PgMessageStore) Create(ctx context.Context, room chat.RoomKey, senderID, content string) (chat.Message, error) {
	if s == nil || s.pool == nil {
		return chat.Message{}, errors.New("PgMessageStore: nil pool")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return chat.Message{}, fmt.Errorf("message store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// clock_timestamp(), not now(): now() is frozen at transaction start, so
	// two overlapping sends could commit with identical created_at and a
	// random-uuid tie-break, letting the later commit sort before a cursor a
	// reader already acknowledged. The real wall clock keeps insert order and
	// (created_at, id) order aligned.
	msg := chat.Message{Room: room, SenderID: senderID, Content: content}
	err = tx.QueryRow(ctx, `
		INSERT INTO chat.message (room_kind, room_id, sender_id, content, created_at)
		VALUES ($1, $2, $3::uuid, $4, clock_timestamp())
		RETURNING id::text, created_at
	`, room.Kind, room.ID, senderID, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return chat.Message{}, fmt.Errorf("message store: insert: %w", err)
	}

	var bump string
	switch room.Kind {
	case chat.RoomKindCommunity:
		bump = `UPDATE chat.community SET last_message_at = $2 WHERE id = $1::uuid`
	default:
		bump = `UPDATE chat.conversation SET last_message_at = $2 WHERE id = $1::uuid`
	}
	ct, err := tx.Exec(ctx, bump, room.ID, msg.CreatedAt)
	if err != nil {
		return chat.Message{}, fmt.Errorf("message store: bump last_message_at: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return chat.Message{}, chat.ErrRoomNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return chat.Message{}, fmt.Errorf("message store: commit: %w", err)
	}
	return msg, nil
}

func (s *PgMessageStore) ListSince(ctx context.Context, room chat.RoomKey, since chat.Cursor, limit int) ([]chat.Message, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("PgMessageStore: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, sender_id::text, content, created_at
		FROM chat.message
		WHERE room_kind = $1 AND room_id = $2
		  AND (created_at > $3 OR (created_at = $3 AND id::text > $4))
		ORDER BY created_at ASC, id::text ASC
		LIMIT $5
	`, room.Kind, room.ID, since.At, since.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		msg := chat.Message{Room: room}
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (s *PgMessageStore) CountSince(ctx context.Context, room chat.RoomKey, since chat.Cursor) (int, error) {
	if s == nil || s.pool == nil {
		return 0, errors.New("PgMessageStore: nil pool")
	}
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM chat.message
		WHERE room_kind = $1 AND room_id = $2
		  AND (created_at > $3 OR (created_at = $3 AND id::text > $4))
	`, room.Kind, room.ID, since.At, since.ID).Scan(&count)
	return count, err
}

func (s *PgMessageStore) FindByID(ctx context.Context, room chat.RoomKey, messageID string) (chat.Message, error) {
	if s == nil || s.pool == nil {
		return chat.Message{}, errors.New("PgMessageStore: nil pool")
	}
	msg := chat.Message{Room: room}
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, sender_id::text, content, created_at
		FROM chat.message
		WHERE room_kind = $1 AND room_id = $2 AND id::text = $3
	`, room.Kind, room.ID, messageID).Scan(&msg.ID, &msg.SenderID, &msg.Content, &msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Message{}, chat.ErrMessageNotFound
	}
	if err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}
