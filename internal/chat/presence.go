package chat

import (
	"context"
	"fmt"
	"time"
)

// Heartbeat refreshes the user's online flag. Called by the hub on every
// pong; the flag lapses on its own when the heartbeats stop.
func (s *Service) Heartbeat(ctx context.Context, userId int) error {
	if err := s.presence.Heartbeat(ctx, userId); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// WentOffline drops the online flag immediately and records a durable
// last-seen timestamp for "last seen at" display.
func (s *Service) WentOffline(ctx context.Context, userId int) error {
	if err := s.presence.SetOffline(ctx, userId); err != nil {
		s.log.Printf("offline flag for user %d: %v", userId, err)
	}

	if err := s.db.UpdateLastSeen(userId, time.Now().UTC()); err != nil {
		return storeErr(err)
	}

	return nil
}
