package chat

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/stretchr/testify/assert"
)

func TestMarkSeen(t *testing.T) {
	t.Run("non-member is forbidden", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetMember", 5, 9).Return(database.Member{}, sql.ErrNoRows)

		_, err := svc.MarkSeen(context.Background(), 5, 9, 7)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("replaying an older watermark changes nothing", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		notifier := &MockNotifier{}
		svc.SetNotifier(notifier)
		defer db.AssertExpectations(t)
		defer notifier.AssertExpectations(t)

		db.On("GetMember", 5, 1).Return(database.Member{RoomId: 5, AccountId: 1, LastReadSeqId: 10}, nil)
		db.On("MarkSeen", 5, 1, 7).Return(0, nil)

		n, err := svc.MarkSeen(context.Background(), 5, 1, 7)
		assert.NoError(t, err)
		assert.Zero(t, n)
		notifier.AssertNotCalled(t, "MessagesSeen")
	})

	t.Run("notifies when rows transition", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		notifier := &MockNotifier{}
		svc.SetNotifier(notifier)
		defer db.AssertExpectations(t)
		defer notifier.AssertExpectations(t)

		db.On("GetMember", 5, 1).Return(database.Member{RoomId: 5, AccountId: 1}, nil)
		db.On("MarkSeen", 5, 1, 7).Return(3, nil)
		db.On("GetRoomById", 5).Return(database.Room{Id: 5, ExternalId: "grp-room"}, nil)
		notifier.On("MessagesSeen", "grp-room", 1, 7).Return()

		n, err := svc.MarkSeen(context.Background(), 5, 1, 7)
		assert.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}
