package chat

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message is an immutable log entry in a room. ID and CreatedAt are assigned
// by the persistence layer at write time; (CreatedAt, ID) is the room-local
// ordering key.
type Message struct {
	ID        string    `db:"id" json:"id"`
	Room      RoomKey   `db:"room" json:"roomKey"`
	SenderID  string    `db:"sender_id" json:"senderId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Cursor returns the ordering position of this message.
func (m Message) Cursor() Cursor {
	return Cursor{At: m.CreatedAt, ID: m.ID}
}

// ValidateContent normalizes and validates message content for the given
// room before any store call is made. It returns the trimmed content.
func ValidateContent(room RoomKey, content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if max := room.MaxContentLen(); utf8.RuneCountInString(trimmed) > max {
		return "", fmt.Errorf("%w: limit %d characters for %s rooms", ErrContentTooLong, max, room.Kind)
	}
	return trimmed, nil
}
