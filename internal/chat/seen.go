package chat

import (
	"context"
	"errors"
)

// MarkSeen batch-transitions every message the viewer didn't send, up to and
// including upToSeq, from sent to seen, and advances the viewer's read
// position. The transition is forward-only: replaying an older upToSeq never
// moves a message back. Clients call this when the room is focused; the
// server never marks on its own.
func (s *Service) MarkSeen(ctx context.Context, roomId, viewerId, upToSeq int) (int, error) {
	if _, err := s.db.GetMember(roomId, viewerId); err != nil {
		if errors.Is(storeErr(err), ErrNotFound) {
			return 0, ErrForbidden
		}
		return 0, storeErr(err)
	}

	n, err := s.db.MarkSeen(roomId, viewerId, upToSeq)
	if err != nil {
		return 0, storeErr(err)
	}

	if n > 0 && s.notifier != nil {
		room, err := s.db.GetRoomById(roomId)
		if err != nil {
			s.log.Printf("seen fan-out skipped for room %d: %v", roomId, err)
			return n, nil
		}
		s.notifier.MessagesSeen(room.ExternalId, viewerId, upToSeq)
	}

	return n, nil
}
