package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/types"
)

// DisabledNow reports whether an account's disable is in force at the given
// time. A temporary disable lapses on its own once its deadline passes; a
// disable without a deadline holds until an admin lifts it.
func DisabledNow(u database.User, now time.Time) bool {
	if !u.IsDisabled {
		return false
	}
	return u.DisabledUntil == nil || u.DisabledUntil.After(now)
}

// Block prevents future direct messages between the two users. Asymmetric on
// purpose: the existing room and its history stay visible to both.
func (s *Service) Block(ctx context.Context, userId, targetId int) error {
	if userId == targetId {
		return fmt.Errorf("%w: cannot block yourself", ErrInvariant)
	}

	if _, err := s.db.GetAccountById(targetId); err != nil {
		return storeErr(err)
	}

	if err := s.db.CreateBlock(userId, targetId); err != nil {
		return storeErr(err)
	}

	return nil
}

func (s *Service) Unblock(ctx context.Context, userId, targetId int) error {
	if err := s.db.DeleteBlock(userId, targetId); err != nil {
		return storeErr(err)
	}

	return nil
}

// DisableUser temporarily locks an account until the given time. Admin only.
func (s *Service) DisableUser(ctx context.Context, adminId, userId int, until *time.Time) error {
	if err := s.requireAdmin(adminId); err != nil {
		return err
	}

	if err := s.db.SetAccountDisabled(userId, until); err != nil {
		return storeErr(err)
	}

	return nil
}

// BanUser permanently bans an account. Admin only. Accounts are never hard
// deleted; the flag stops future sends while history stays intact.
func (s *Service) BanUser(ctx context.Context, adminId, userId int, banned bool) error {
	if err := s.requireAdmin(adminId); err != nil {
		return err
	}

	if err := s.db.SetAccountBanned(userId, banned); err != nil {
		return storeErr(err)
	}

	return nil
}

func (s *Service) ListUsers(ctx context.Context, adminId int) ([]types.User, error) {
	if err := s.requireAdmin(adminId); err != nil {
		return nil, err
	}

	dbUsers, err := s.db.ListAccounts()
	if err != nil {
		return nil, storeErr(err)
	}

	users := make([]types.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, toUser(u))
	}

	return users, nil
}

// Announce publishes an admin broadcast visible to all users.
func (s *Service) Announce(ctx context.Context, adminId int, title, body string) (types.Announcement, error) {
	if err := s.requireAdmin(adminId); err != nil {
		return types.Announcement{}, err
	}
	if title == "" || body == "" {
		return types.Announcement{}, fmt.Errorf("%w: announcement needs a title and a body", ErrInvariant)
	}

	a, err := s.db.CreateAnnouncement(adminId, title, body)
	if err != nil {
		return types.Announcement{}, storeErr(err)
	}

	return types.Announcement(a), nil
}

func (s *Service) Announcements(ctx context.Context, limit int) ([]types.Announcement, error) {
	dbAnnouncements, err := s.db.ListAnnouncements(limit)
	if err != nil {
		return nil, storeErr(err)
	}

	announcements := make([]types.Announcement, 0, len(dbAnnouncements))
	for _, a := range dbAnnouncements {
		announcements = append(announcements, types.Announcement(a))
	}

	return announcements, nil
}
