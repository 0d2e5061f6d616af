package chat

import (
	"fmt"
	"strings"
)

// RoomKind discriminates the two room flavors served by the gateway.
type RoomKind string

const (
	RoomKindDirect    RoomKind = "direct"
	RoomKindCommunity RoomKind = "community"
)

// Per-kind content caps, in characters (runes).
const (
	MaxDirectContentLen    = 1000
	MaxCommunityContentLen = 2000
)

// RoomKey identifies either a two-party conversation or a community's shared
// conversation. Join, send and resync all dispatch on Kind through the same
// code path instead of duplicating per-kind pipelines.
type RoomKey struct {
	Kind RoomKind
	ID   string
}

// ParseRoomKey decodes the wire form "direct:<id>" / "community:<id>".
func ParseRoomKey(s string) (RoomKey, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return RoomKey{}, fmt.Errorf("%w: %q", ErrInvalidRoomKey, s)
	}
	switch RoomKind(kind) {
	case RoomKindDirect, RoomKindCommunity:
		return RoomKey{Kind: RoomKind(kind), ID: id}, nil
	default:
		return RoomKey{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRoomKey, kind)
	}
}

func (k RoomKey) String() string { return string(k.Kind) + ":" + k.ID }

// MaxContentLen returns the content cap for messages sent into this room.
func (k RoomKey) MaxContentLen() int {
	if k.Kind == RoomKindCommunity {
		return MaxCommunityContentLen
	}
	return MaxDirectContentLen
}

// MarshalText / UnmarshalText keep the wire form of a RoomKey a plain string
// inside JSON frames.
func (k RoomKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *RoomKey) UnmarshalText(b []byte) error {
	parsed, err := ParseRoomKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
