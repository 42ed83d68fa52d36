package chat

import (
	"context"
	"testing"
	"time"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/stretchr/testify/assert"
)

func TestBlock(t *testing.T) {
	t.Run("cannot block yourself", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		err := svc.Block(context.Background(), 1, 1)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("records the block", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetAccountById", 2).Return(database.User{Id: 2}, nil)
		db.On("CreateBlock", 1, 2).Return(nil)

		err := svc.Block(context.Background(), 1, 2)
		assert.NoError(t, err)
	})
}

func TestDisabledNow(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, DisabledNow(database.User{}, now), "expected an enabled account to pass")
	assert.True(t, DisabledNow(database.User{IsDisabled: true}, now), "expected an open-ended disable to hold")
	assert.True(t, DisabledNow(database.User{IsDisabled: true, DisabledUntil: &future}, now), "expected an unexpired window to hold")
	assert.False(t, DisabledNow(database.User{IsDisabled: true, DisabledUntil: &past}, now), "expected a lapsed window to clear")
}

func TestDisableUser(t *testing.T) {
	t.Run("admin only", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetAccountById", 1).Return(database.User{Id: 1}, nil)

		err := svc.DisableUser(context.Background(), 1, 2, nil)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("sets the lock window", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		until := time.Now().Add(time.Hour)
		db.On("GetAccountById", 1).Return(database.User{Id: 1, IsAdmin: true}, nil)
		db.On("SetAccountDisabled", 2, &until).Return(nil)

		err := svc.DisableUser(context.Background(), 1, 2, &until)
		assert.NoError(t, err)
	})
}

func TestBanUser(t *testing.T) {
	svc, db, _ := newTestService(t)
	defer db.AssertExpectations(t)

	db.On("GetAccountById", 1).Return(database.User{Id: 1, IsAdmin: true}, nil)
	db.On("SetAccountBanned", 2, true).Return(nil)

	err := svc.BanUser(context.Background(), 1, 2, true)
	assert.NoError(t, err)
}

func TestAnnounce(t *testing.T) {
	t.Run("needs a title and a body", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetAccountById", 1).Return(database.User{Id: 1, IsAdmin: true}, nil)

		_, err := svc.Announce(context.Background(), 1, "maintenance", "")
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("publishes", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		defer db.AssertExpectations(t)

		db.On("GetAccountById", 1).Return(database.User{Id: 1, IsAdmin: true}, nil)
		db.On("CreateAnnouncement", 1, "maintenance", "back at noon").
			Return(database.Announcement{Id: 7, AuthorId: 1, Title: "maintenance", Body: "back at noon"}, nil)

		a, err := svc.Announce(context.Background(), 1, "maintenance", "back at noon")
		assert.NoError(t, err)
		assert.Equal(t, 7, a.Id)
	})
}
