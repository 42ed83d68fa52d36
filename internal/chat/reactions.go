package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const (
	reactionRetries = 3
	reactionBackoff = 25 * time.Millisecond
)

// React toggles or switches the user's reaction on a message. A user holds
// at most one reaction per message: re-selecting the current emoji removes
// it, a different emoji replaces it. Lost races against concurrent writers
// are retried a bounded number of times before surfacing ErrConflict.
func (s *Service) React(ctx context.Context, messageId, userId int, emoji string) (map[string][]int, error) {
	if emoji == "" {
		return nil, fmt.Errorf("%w: emoji required", ErrInvariant)
	}

	msg, err := s.db.GetMessage(messageId)
	if err != nil {
		return nil, storeErr(err)
	}
	if msg.IsDeleted {
		return nil, ErrNotFound
	}

	if _, err := s.db.GetMember(msg.RoomId, userId); err != nil {
		if errors.Is(storeErr(err), ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, storeErr(err)
	}

	var lastErr error
	for attempt := 0; attempt < reactionRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(reactionBackoff * time.Duration(attempt)):
			}
		}

		if _, err := s.db.SetReaction(messageId, userId, emoji); err != nil {
			if isRetryableConflict(err) {
				lastErr = err
				continue
			}
			return nil, storeErr(err)
		}

		lastErr = nil
		break
	}
	if lastErr != nil {
		s.log.Printf("reaction on message %d lost %d races: %v", messageId, reactionRetries, lastErr)
		return nil, ErrConflict
	}

	reactions, err := s.db.GetReactions(messageId)
	if err != nil {
		return nil, storeErr(err)
	}

	if s.notifier != nil {
		if room, err := s.db.GetRoomById(msg.RoomId); err == nil {
			s.notifier.ReactionChanged(room.ExternalId, messageId, reactions)
		}
	}

	return reactions, nil
}

// Reactions returns the emoji buckets for one message. Empty buckets never
// appear: a bucket exists only while at least one user holds that emoji.
func (s *Service) Reactions(ctx context.Context, messageId int) (map[string][]int, error) {
	reactions, err := s.db.GetReactions(messageId)
	if err != nil {
		return nil, storeErr(err)
	}

	return reactions, nil
}

// isRetryableConflict matches errors a repeat of the same write can resolve:
// serialization_failure, deadlock_detected, and unique_violation. The last
// covers two sessions of one user racing a first reaction; the loser's retry
// sees the committed row and toggles it.
func isRetryableConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01" || pqErr.Code == "23505"
	}
	return false
}
