package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/presence"
	"github.com/dmelnick/relaychat/internal/types"
	"github.com/teris-io/shortid"
)

// DirectRoomExternalId derives the deterministic external id for a 1:1 room
// from the unordered user pair. Both racers of a concurrent create compute
// the same id, so the unique constraint collapses them onto one row.
func DirectRoomExternalId(a, b int) string {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("d%dx%d", lo, hi)
}

// CreateDirectRoom creates or returns the 1:1 room between two users.
// Idempotent: concurrent calls with the same pair observe the same room.
func (s *Service) CreateDirectRoom(ctx context.Context, userId, otherId int) (types.Room, error) {
	if userId == otherId {
		return types.Room{}, fmt.Errorf("%w: cannot open a direct room with yourself", ErrInvariant)
	}

	if _, err := s.db.GetAccountById(otherId); err != nil {
		return types.Room{}, storeErr(err)
	}

	room, created, err := s.db.CreateDirectRoom(database.CreateDirectRoomParams{
		ExternalId: DirectRoomExternalId(userId, otherId),
		CreatedBy:  userId,
		MemberIds:  [2]int{userId, otherId},
	})
	if err != nil {
		return types.Room{}, storeErr(err)
	}

	full, err := s.db.GetRoomWithMembers(room.Id)
	if err != nil {
		return types.Room{}, storeErr(err)
	}

	if created {
		s.notifyRoomUpdated(room.Id)
	}

	return toRoom(full), nil
}

// CreateGroup creates a group room with the creator as its sole initial
// admin. At least one other member is required.
func (s *Service) CreateGroup(ctx context.Context, creatorId int, memberIds []int, name string) (types.Room, error) {
	if name == "" {
		return types.Room{}, fmt.Errorf("%w: group name required", ErrInvariant)
	}

	others := 0
	for _, id := range memberIds {
		if id != creatorId {
			others++
		}
	}
	if others < 1 {
		return types.Room{}, fmt.Errorf("%w: a group needs at least one member besides its creator", ErrInvariant)
	}

	sid, err := shortid.Generate()
	if err != nil {
		return types.Room{}, fmt.Errorf("generate room id: %w", err)
	}

	room, err := s.db.CreateGroupRoom(database.CreateGroupRoomParams{
		ExternalId: sid,
		Name:       name,
		CreatedBy:  creatorId,
		MemberIds:  memberIds,
	})
	if err != nil {
		return types.Room{}, storeErr(err)
	}

	full, err := s.db.GetRoomWithMembers(room.Id)
	if err != nil {
		return types.Room{}, storeErr(err)
	}

	s.notifyRoomUpdated(room.Id)

	return toRoom(full), nil
}

func (s *Service) GetRoom(ctx context.Context, roomExternalId string, viewerId int) (types.Room, error) {
	dbRoom, err := s.db.GetRoomByExternalId(roomExternalId)
	if err != nil {
		return types.Room{}, storeErr(err)
	}

	full, err := s.db.GetRoomWithMembers(dbRoom.Id)
	if err != nil {
		return types.Room{}, storeErr(err)
	}

	if !isMember(full, viewerId) {
		return types.Room{}, ErrForbidden
	}

	room := toRoom(full)

	typing, err := s.presence.TypingUsers(ctx, room.ExternalId)
	if err != nil {
		// typing state is ephemeral and tolerates staleness
		s.log.Printf("typing lookup failed for room %s: %v", room.ExternalId, err)
	} else {
		room.TypingUserIds = typing
	}

	for i := range room.Members {
		online, err := s.presence.IsOnline(ctx, room.Members[i].Id)
		if err != nil {
			break
		}
		room.Members[i].IsOnline = online
	}

	return room, nil
}

// ListRooms returns the viewer's visible rooms, tombstones applied.
func (s *Service) ListRooms(ctx context.Context, viewerId int) ([]types.RoomSummary, error) {
	memberships, err := s.db.ListRoomsForUser(viewerId)
	if err != nil {
		return nil, storeErr(err)
	}

	summaries := make([]types.RoomSummary, 0, len(memberships))
	for _, mb := range memberships {
		summaries = append(summaries, toSummary(mb))
	}

	return summaries, nil
}

// AddMember adds a user to a group room. Group admins only.
func (s *Service) AddMember(ctx context.Context, roomId, actorId, userId int) error {
	room, err := s.db.GetRoomWithMembers(roomId)
	if err != nil {
		return storeErr(err)
	}

	if !room.IsGroup {
		return fmt.Errorf("%w: direct rooms have a fixed pair of members", ErrInvariant)
	}
	if !isRoomAdmin(room, actorId) {
		return ErrForbidden
	}

	if _, err := s.db.GetAccountById(userId); err != nil {
		return storeErr(err)
	}

	if _, err := s.db.AddMember(roomId, userId, false); err != nil {
		return storeErr(err)
	}

	s.notifyRoomUpdated(roomId)

	return nil
}

// RemoveMember removes a user from a group room. A member may remove
// themselves (leave); removing anyone else requires group admin. The room
// may never be left with members but no admin: the sole admin must promote a
// successor first, unless they are also the last member.
func (s *Service) RemoveMember(ctx context.Context, roomId, actorId, userId int) error {
	room, err := s.db.GetRoomWithMembers(roomId)
	if err != nil {
		return storeErr(err)
	}

	if !room.IsGroup {
		return fmt.Errorf("%w: direct rooms have a fixed pair of members", ErrInvariant)
	}

	leaving := actorId == userId
	if !leaving && !isRoomAdmin(room, actorId) {
		return ErrForbidden
	}

	var target *database.Member
	admins := 0
	for i, m := range room.Members {
		if m.IsAdmin {
			admins++
		}
		if m.AccountId == userId {
			target = &room.Members[i]
		}
	}
	if target == nil {
		return ErrNotFound
	}

	if target.IsAdmin && admins == 1 && len(room.Members) > 1 {
		return fmt.Errorf("%w: promote another admin before removing the last one", ErrInvariant)
	}

	if err := s.db.RemoveMember(roomId, userId); err != nil {
		return storeErr(err)
	}

	s.notifyRoomUpdated(roomId)

	return nil
}

// PromoteAdmin grants group admin to an existing member.
func (s *Service) PromoteAdmin(ctx context.Context, roomId, actorId, userId int) error {
	room, err := s.db.GetRoomWithMembers(roomId)
	if err != nil {
		return storeErr(err)
	}

	if !room.IsGroup {
		return fmt.Errorf("%w: direct rooms have no admins", ErrInvariant)
	}
	if !isRoomAdmin(room, actorId) {
		return ErrForbidden
	}

	if err := s.db.SetMemberAdmin(roomId, userId, true); err != nil {
		return storeErr(err)
	}

	s.notifyRoomUpdated(roomId)

	return nil
}

// SetBackground changes the room's chat background image. Any member may set
// it; an empty url restores the default.
func (s *Service) SetBackground(ctx context.Context, roomId, actorId int, url string) error {
	room, err := s.db.GetRoomWithMembers(roomId)
	if err != nil {
		return storeErr(err)
	}
	if !isMember(room, actorId) {
		return ErrForbidden
	}

	if err := s.db.SetRoomBackground(roomId, url); err != nil {
		return storeErr(err)
	}

	s.notifyRoomUpdated(roomId)

	return nil
}

// HideRoom records a per-user tombstone ("delete chat for me"). Shared data
// is untouched; the room reappears for this user on new activity.
func (s *Service) HideRoom(ctx context.Context, userId, roomId int) error {
	if err := s.db.HideRoomForUser(userId, roomId, time.Now()); err != nil {
		return storeErr(err)
	}

	return nil
}

// SetTyping updates the actor's typing flag and fans the change out to the
// room. The flag expires on its own; a missing clear is self-healing.
func (s *Service) SetTyping(ctx context.Context, roomExternalId string, userId int, typing bool) error {
	room, err := s.db.GetRoomByExternalId(roomExternalId)
	if err != nil {
		return storeErr(err)
	}

	if _, err := s.db.GetMember(room.Id, userId); err != nil {
		if errors.Is(storeErr(err), ErrNotFound) {
			return ErrForbidden
		}
		return storeErr(err)
	}

	if err := s.presence.SetTyping(ctx, roomExternalId, userId, typing); err != nil {
		if errors.Is(err, presence.ErrRateLimited) {
			return ErrRateLimited
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if s.notifier != nil {
		s.notifier.TypingChanged(roomExternalId, userId, typing)
	}

	return nil
}

func isMember(room *database.Room, userId int) bool {
	for _, m := range room.Members {
		if m.AccountId == userId {
			return true
		}
	}
	return false
}

func isRoomAdmin(room *database.Room, userId int) bool {
	for _, m := range room.Members {
		if m.AccountId == userId {
			return m.IsAdmin
		}
	}
	return false
}
