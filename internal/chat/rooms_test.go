package chat

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDirectRoomExternalId(t *testing.T) {
	assert.Equal(t, "d3x7", DirectRoomExternalId(3, 7))
	assert.Equal(t, "d3x7", DirectRoomExternalId(7, 3), "expected id to be order-insensitive")
}

func TestCreateDirectRoom(t *testing.T) {
	t.Run("rejects a room with yourself", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.CreateDirectRoom(context.Background(), 1, 1)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("unknown peer", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetAccountById", 2).Return(database.User{}, sql.ErrNoRows)

		_, err := svc.CreateDirectRoom(context.Background(), 1, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returns the existing room on a repeat create", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		room := directRoomFixture(10, 1, 2)
		db.On("GetAccountById", 2).Return(database.User{Id: 2}, nil)
		db.On("CreateDirectRoom", database.CreateDirectRoomParams{
			ExternalId: "d1x2",
			CreatedBy:  1,
			MemberIds:  [2]int{1, 2},
		}).Return(database.Room{Id: 10, ExternalId: "d1x2"}, false, nil)
		db.On("GetRoomWithMembers", 10).Return(room, nil)

		got, err := svc.CreateDirectRoom(context.Background(), 1, 2)
		assert.NoError(t, err)
		assert.Equal(t, "d1x2", got.ExternalId)
		assert.Len(t, got.Members, 2)
	})
}

func TestCreateGroup(t *testing.T) {
	t.Run("requires a name", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.CreateGroup(context.Background(), 1, []int{2}, "")
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("requires another member", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.CreateGroup(context.Background(), 1, []int{1}, "just me")
		assert.ErrorIs(t, err, ErrInvariant)
	})
}

func TestGetRoom(t *testing.T) {
	t.Run("non-member is forbidden", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetRoomByExternalId", "grp-room").Return(database.Room{Id: 5}, nil)
		db.On("GetRoomWithMembers", 5).Return(groupRoomFixture(5, []int{1, 2}, 1), nil)

		_, err := svc.GetRoom(context.Background(), "grp-room", 99)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("fills typing and online state", func(t *testing.T) {
		svc, db, pres := newTestService(t)
		defer db.AssertExpectations(t)
		defer pres.AssertExpectations(t)

		db.On("GetRoomByExternalId", "grp-room").Return(database.Room{Id: 5}, nil)
		db.On("GetRoomWithMembers", 5).Return(groupRoomFixture(5, []int{1, 2}, 1), nil)
		pres.On("TypingUsers", mock.Anything, "grp-room").Return([]int{2}, nil)
		pres.On("IsOnline", mock.Anything, 1).Return(true, nil)
		pres.On("IsOnline", mock.Anything, 2).Return(false, nil)

		room, err := svc.GetRoom(context.Background(), "grp-room", 1)
		assert.NoError(t, err)
		assert.Equal(t, []int{2}, room.TypingUserIds)
		assert.True(t, room.Members[0].IsOnline)
		assert.False(t, room.Members[1].IsOnline)
	})
}

func TestRemoveMember(t *testing.T) {
	t.Run("member may leave", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetRoomWithMembers", 5).Return(groupRoomFixture(5, []int{1, 2, 3}, 1), nil)
		db.On("RemoveMember", 5, 2).Return(nil)

		err := svc.RemoveMember(context.Background(), 5, 2, 2)
		assert.NoError(t, err)
	})

	t.Run("non-admin cannot remove others", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetRoomWithMembers", 5).Return(groupRoomFixture(5, []int{1, 2, 3}, 1), nil)

		err := svc.RemoveMember(context.Background(), 5, 2, 3)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("last admin cannot leave a populated room", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetRoomWithMembers", 5).Return(groupRoomFixture(5, []int{1, 2, 3}, 1), nil)

		err := svc.RemoveMember(context.Background(), 5, 1, 1)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("sole remaining member may leave even as admin", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetRoomWithMembers", 5).Return(groupRoomFixture(5, []int{1}, 1), nil)
		db.On("RemoveMember", 5, 1).Return(nil)

		err := svc.RemoveMember(context.Background(), 5, 1, 1)
		assert.NoError(t, err)
	})

	t.Run("direct rooms are fixed", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetRoomWithMembers", 10).Return(directRoomFixture(10, 1, 2), nil)

		err := svc.RemoveMember(context.Background(), 10, 1, 2)
		assert.ErrorIs(t, err, ErrInvariant)
	})
}

func TestPromoteAdmin(t *testing.T) {
	svc, db, _ := newTestService(t)
	defer db.AssertExpectations(t)

	db.On("GetRoomWithMembers", 5).Return(groupRoomFixture(5, []int{1, 2}, 1), nil).Twice()
	db.On("SetMemberAdmin", 5, 2, true).Return(nil)

	err := svc.PromoteAdmin(context.Background(), 5, 1, 2)
	assert.NoError(t, err)

	err = svc.PromoteAdmin(context.Background(), 5, 2, 1)
	assert.ErrorIs(t, err, ErrForbidden, "expected non-admin promote to be rejected")
}

func TestSetTyping(t *testing.T) {
	t.Run("maps the rate limit error", func(t *testing.T) {
		svc, db, pres := newTestService(t)
		defer db.AssertExpectations(t)
		defer pres.AssertExpectations(t)

		db.On("GetRoomByExternalId", "grp-room").Return(database.Room{Id: 5}, nil)
		db.On("GetMember", 5, 1).Return(database.Member{RoomId: 5, AccountId: 1}, nil)
		pres.On("SetTyping", mock.Anything, "grp-room", 1, true).Return(presence.ErrRateLimited)

		err := svc.SetTyping(context.Background(), "grp-room", 1, true)
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("fans the change out", func(t *testing.T) {
		svc, db, pres := newTestService(t)
		notifier := &MockNotifier{}
		svc.SetNotifier(notifier)
		defer db.AssertExpectations(t)
		defer pres.AssertExpectations(t)
		defer notifier.AssertExpectations(t)

		db.On("GetRoomByExternalId", "grp-room").Return(database.Room{Id: 5}, nil)
		db.On("GetMember", 5, 1).Return(database.Member{RoomId: 5, AccountId: 1}, nil)
		pres.On("SetTyping", mock.Anything, "grp-room", 1, true).Return(nil)
		notifier.On("TypingChanged", "grp-room", 1, true).Return()

		err := svc.SetTyping(context.Background(), "grp-room", 1, true)
		assert.NoError(t, err)
	})
}

func TestSetBackground(t *testing.T) {
	t.Run("members only", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetRoomWithMembers", 5).Return(groupRoomFixture(5, []int{1, 2}, 1), nil)

		err := svc.SetBackground(context.Background(), 5, 9, "https://cdn/bg.png")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("stores the background and fans out", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		notifier := &MockNotifier{}
		svc.SetNotifier(notifier)
		defer db.AssertExpectations(t)
		defer notifier.AssertExpectations(t)

		room := groupRoomFixture(5, []int{1, 2}, 1)
		db.On("GetRoomWithMembers", 5).Return(room, nil)
		db.On("SetRoomBackground", 5, "https://cdn/bg.png").Return(nil)
		notifier.On("RoomUpdated", mock.Anything).Return()

		err := svc.SetBackground(context.Background(), 5, 2, "https://cdn/bg.png")
		assert.NoError(t, err)
	})
}

func TestHideRoom(t *testing.T) {
	svc, db, _ := newTestService(t)
	defer db.AssertExpectations(t)

	db.On("HideRoomForUser", 1, 5, mock.Anything).Return(nil)

	err := svc.HideRoom(context.Background(), 1, 5)
	assert.NoError(t, err)
}
