package chat

import (
	"context"
	"fmt"
	"time"
)

// Pin durations accepted on the wire.
const (
	PinDuration24h     = "24h"
	PinDuration7d      = "7d"
	PinDurationForever = "forever"
)

func pinDeadline(duration string) (*time.Time, error) {
	switch duration {
	case PinDuration24h:
		t := time.Now().Add(24 * time.Hour).UTC()
		return &t, nil
	case PinDuration7d:
		t := time.Now().Add(7 * 24 * time.Hour).UTC()
		return &t, nil
	case PinDurationForever:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown pin duration %q", ErrInvariant, duration)
	}
}

// Pin highlights one message in a room, optionally time-bounded. A room
// holds at most one active pin: pinning over an existing pin atomically
// unpins the previous message.
func (s *Service) Pin(ctx context.Context, roomId, actorId, messageId int, duration string) error {
	until, err := pinDeadline(duration)
	if err != nil {
		return err
	}

	room, err := s.db.GetRoomWithMembers(roomId)
	if err != nil {
		return storeErr(err)
	}
	if !isMember(room, actorId) {
		return ErrForbidden
	}

	msg, err := s.db.GetMessage(messageId)
	if err != nil {
		return storeErr(err)
	}
	if msg.RoomId != roomId || msg.IsDeleted {
		return ErrNotFound
	}

	if err := s.db.SetPin(roomId, messageId, until); err != nil {
		return storeErr(err)
	}

	s.notifyRoomUpdated(roomId)

	return nil
}

// Unpin clears the room's active pin. Unpinning an unpinned room is a no-op.
func (s *Service) Unpin(ctx context.Context, roomId, actorId int) error {
	room, err := s.db.GetRoomWithMembers(roomId)
	if err != nil {
		return storeErr(err)
	}
	if !isMember(room, actorId) {
		return ErrForbidden
	}

	if err := s.db.ClearPin(roomId); err != nil {
		return storeErr(err)
	}

	s.notifyRoomUpdated(roomId)

	return nil
}
