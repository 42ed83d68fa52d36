// Package chat holds the domain services in front of the message and room
// stores: membership invariants, append/edit/delete cascades, seen batches,
// pinning, reaction aggregation and the report pipeline. The realtime hub
// and the HTTP handlers both call into this package; it never calls back
// into them except through the Notifier interface.
package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/types"
)

// Notifier receives domain events for fan-out to live subscribers. The hub
// implements it; a nil notifier disables fan-out (tests, batch tools).
type Notifier interface {
	MessageAdded(roomExternalId string, msg types.Message)
	MessageEdited(roomExternalId string, msg types.Message)
	MessageDeleted(roomExternalId string, msg types.Message)
	MessagesSeen(roomExternalId string, viewerId, upToSeq int)
	ReactionChanged(roomExternalId string, messageId int, reactions map[string][]int)
	RoomUpdated(room types.Room)
	TypingChanged(roomExternalId string, userId int, typing bool)
}

// PresenceTracker is the slice of the presence package the services need.
type PresenceTracker interface {
	Heartbeat(ctx context.Context, userId int) error
	SetOffline(ctx context.Context, userId int) error
	SetTyping(ctx context.Context, roomExternalId string, userId int, typing bool) error
	TypingUsers(ctx context.Context, roomExternalId string) ([]int, error)
	IsOnline(ctx context.Context, userId int) (bool, error)
}

type Service struct {
	db       database.Repository
	presence PresenceTracker
	notifier Notifier
	log      *log.Logger
}

func NewService(db database.Repository, presence PresenceTracker, logger *log.Logger) *Service {
	return &Service{
		db:       db,
		presence: presence,
		log:      logger,
	}
}

// SetNotifier wires the fan-out layer in after construction; the hub needs
// the service to exist first.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// storeErr maps repository failures onto the taxonomy: a missing row is
// ErrNotFound, anything else is the persistence layer failing.
func storeErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// notifyRoomUpdated reloads the room and pushes a RoomUpdated event. Fan-out
// failures are not the caller's problem; the write already committed.
func (s *Service) notifyRoomUpdated(roomId int) {
	if s.notifier == nil {
		return
	}

	room, err := s.db.GetRoomWithMembers(roomId)
	if err != nil {
		s.log.Printf("room update fan-out skipped for room %d: %v", roomId, err)
		return
	}

	s.notifier.RoomUpdated(toRoom(room))
}
