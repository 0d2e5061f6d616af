package chat

import "time"

// Cursor marks a position in a room's message log. Messages are totally
// ordered per room by (CreatedAt, ID), with ID breaking timestamp ties.
// The zero Cursor sits before every message.
type Cursor struct {
	At time.Time `json:"at"`
	ID string    `json:"id"`
}

func (c Cursor) IsZero() bool {
	return c.At.IsZero() && c.ID == ""
}

// Before reports whether c orders strictly before other.
func (c Cursor) Before(other Cursor) bool {
	if !c.At.Equal(other.At) {
		return c.At.Before(other.At)
	}
	return c.ID < other.ID
}

// After reports whether c orders strictly after other.
func (c Cursor) After(other Cursor) bool {
	return other.Before(c)
}
