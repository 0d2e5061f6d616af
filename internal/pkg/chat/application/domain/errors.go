package chat

import "errors"

// Domain-level errors for gateway behaviors. Controllers map these to typed
// protocol frames with errors.Is; nothing is ever broadcast on an error path.
var (
	ErrInvalidRoomKey  = errors.New("chat: invalid room key")
	ErrForbidden       = errors.New("chat: user is not a member of the room")
	ErrNotJoined       = errors.New("chat: connection has not joined the room")
	ErrEmptyMessage    = errors.New("chat: empty message")
	ErrContentTooLong  = errors.New("chat: message exceeds the room content cap")
	ErrRoomNotFound    = errors.New("chat: room not found")
	ErrMessageNotFound = errors.New("chat: message not found")
)
