package chat

import (
	"context"
	"testing"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/testutil"
	"github.com/dmelnick/relaychat/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockPresence struct {
	mock.Mock
}

func (m *MockPresence) Heartbeat(ctx context.Context, userId int) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}
func (m *MockPresence) SetOffline(ctx context.Context, userId int) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}
func (m *MockPresence) SetTyping(ctx context.Context, roomExternalId string, userId int, typing bool) error {
	args := m.Called(ctx, roomExternalId, userId, typing)
	return args.Error(0)
}
func (m *MockPresence) TypingUsers(ctx context.Context, roomExternalId string) ([]int, error) {
	args := m.Called(ctx, roomExternalId)
	return args.Get(0).([]int), args.Error(1)
}
func (m *MockPresence) IsOnline(ctx context.Context, userId int) (bool, error) {
	args := m.Called(ctx, userId)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) MessageAdded(roomExternalId string, msg types.Message) {
	m.Called(roomExternalId, msg)
}
func (m *MockNotifier) MessageEdited(roomExternalId string, msg types.Message) {
	m.Called(roomExternalId, msg)
}
func (m *MockNotifier) MessageDeleted(roomExternalId string, msg types.Message) {
	m.Called(roomExternalId, msg)
}
func (m *MockNotifier) MessagesSeen(roomExternalId string, viewerId, upToSeq int) {
	m.Called(roomExternalId, viewerId, upToSeq)
}
func (m *MockNotifier) ReactionChanged(roomExternalId string, messageId int, reactions map[string][]int) {
	m.Called(roomExternalId, messageId, reactions)
}
func (m *MockNotifier) RoomUpdated(room types.Room) {
	m.Called(room)
}
func (m *MockNotifier) TypingChanged(roomExternalId string, userId int, typing bool) {
	m.Called(roomExternalId, userId, typing)
}

func newTestService(t *testing.T) (*Service, *database.MockRepository, *MockPresence) {
	db := &database.MockRepository{}
	presence := &MockPresence{}
	svc := NewService(db, presence, testutil.TestLogger(t))
	return svc, db, presence
}

func groupRoomFixture(roomId int, memberIds []int, adminIds ...int) *database.Room {
	admins := make(map[int]bool, len(adminIds))
	for _, id := range adminIds {
		admins[id] = true
	}

	room := &database.Room{
		Id:         roomId,
		ExternalId: "grp-room",
		Name:       "test group",
		IsGroup:    true,
	}
	for _, id := range memberIds {
		room.Members = append(room.Members, database.Member{
			RoomId:    roomId,
			AccountId: id,
			IsAdmin:   admins[id],
		})
	}

	return room
}

func directRoomFixture(roomId, a, b int) *database.Room {
	return &database.Room{
		Id:         roomId,
		ExternalId: DirectRoomExternalId(a, b),
		IsGroup:    false,
		Members: []database.Member{
			{RoomId: roomId, AccountId: a},
			{RoomId: roomId, AccountId: b},
		},
	}
}
