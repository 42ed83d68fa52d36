package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) ListAccounts() ([]User, error) {
	args := m.Called()
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) SetAccountDisabled(accountId int, until *time.Time) error {
	args := m.Called(accountId, until)
	return args.Error(0)
}
func (m *MockRepository) SetAccountBanned(accountId int, banned bool) error {
	args := m.Called(accountId, banned)
	return args.Error(0)
}
func (m *MockRepository) UpdateLastSeen(accountId int, t time.Time) error {
	args := m.Called(accountId, t)
	return args.Error(0)
}
func (m *MockRepository) CreateBlock(blockerId, blockedId int) error {
	args := m.Called(blockerId, blockedId)
	return args.Error(0)
}
func (m *MockRepository) DeleteBlock(blockerId, blockedId int) error {
	args := m.Called(blockerId, blockedId)
	return args.Error(0)
}
func (m *MockRepository) BlockExistsBetween(a, b int) (bool, error) {
	args := m.Called(a, b)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) CreateDirectRoom(params CreateDirectRoomParams) (Room, bool, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Bool(1), args.Error(2)
}
func (m *MockRepository) CreateGroupRoom(params CreateGroupRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) GetRoomById(roomId int) (Room, error) {
	args := m.Called(roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) GetRoomByExternalId(externalId string) (Room, error) {
	args := m.Called(externalId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) GetRoomWithMembers(roomId int) (*Room, error) {
	args := m.Called(roomId)
	if room, ok := args.Get(0).(*Room); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockRepository) GetMember(roomId, accountId int) (Member, error) {
	args := m.Called(roomId, accountId)
	return args.Get(0).(Member), args.Error(1)
}
func (m *MockRepository) AddMember(roomId, accountId int, isAdmin bool) (Member, error) {
	args := m.Called(roomId, accountId, isAdmin)
	return args.Get(0).(Member), args.Error(1)
}
func (m *MockRepository) RemoveMember(roomId, accountId int) error {
	args := m.Called(roomId, accountId)
	return args.Error(0)
}
func (m *MockRepository) SetMemberAdmin(roomId, accountId int, isAdmin bool) error {
	args := m.Called(roomId, accountId, isAdmin)
	return args.Error(0)
}
func (m *MockRepository) ListRoomsForUser(accountId int) ([]Membership, error) {
	args := m.Called(accountId)
	return args.Get(0).([]Membership), args.Error(1)
}
func (m *MockRepository) SetRoomBackground(roomId int, url string) error {
	args := m.Called(roomId, url)
	return args.Error(0)
}
func (m *MockRepository) HideRoomForUser(accountId, roomId int, at time.Time) error {
	args := m.Called(accountId, roomId, at)
	return args.Error(0)
}
func (m *MockRepository) UpdateLastReadSeqId(accountId, roomId, seqId int) error {
	args := m.Called(accountId, roomId, seqId)
	return args.Error(0)
}
func (m *MockRepository) AppendMessage(params AppendMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) GetMessage(messageId int) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) UpdateMessageText(messageId int, content, preview string, editedAt time.Time) (Message, error) {
	args := m.Called(messageId, content, preview, editedAt)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) SoftDeleteMessage(messageId int, placeholder string) (Message, error) {
	args := m.Called(messageId, placeholder)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) GetMessages(roomId, since, before, limit int) ([]Message, error) {
	args := m.Called(roomId, since, before, limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) MarkSeen(roomId, viewerId, upToSeq int) (int, error) {
	args := m.Called(roomId, viewerId, upToSeq)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) SetPin(roomId, messageId int, until *time.Time) error {
	args := m.Called(roomId, messageId, until)
	return args.Error(0)
}
func (m *MockRepository) ClearPin(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockRepository) SetReaction(messageId, accountId int, emoji string) (bool, error) {
	args := m.Called(messageId, accountId, emoji)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) GetReactions(messageId int) (map[string][]int, error) {
	args := m.Called(messageId)
	return args.Get(0).(map[string][]int), args.Error(1)
}
func (m *MockRepository) GetReactionsForMessages(messageIds []int) (map[int]map[string][]int, error) {
	args := m.Called(messageIds)
	return args.Get(0).(map[int]map[string][]int), args.Error(1)
}
func (m *MockRepository) CreateReport(params CreateReportParams) (Report, error) {
	args := m.Called(params)
	return args.Get(0).(Report), args.Error(1)
}
func (m *MockRepository) GetReport(reportId string) (Report, error) {
	args := m.Called(reportId)
	return args.Get(0).(Report), args.Error(1)
}
func (m *MockRepository) ListReports() ([]Report, error) {
	args := m.Called()
	return args.Get(0).([]Report), args.Error(1)
}
func (m *MockRepository) UpdateReport(params UpdateReportParams) (Report, error) {
	args := m.Called(params)
	return args.Get(0).(Report), args.Error(1)
}
func (m *MockRepository) CreateStatusUpdate(params CreateStatusUpdateParams) (StatusUpdate, error) {
	args := m.Called(params)
	return args.Get(0).(StatusUpdate), args.Error(1)
}
func (m *MockRepository) GetStatusUpdate(statusId int) (StatusUpdate, error) {
	args := m.Called(statusId)
	return args.Get(0).(StatusUpdate), args.Error(1)
}
func (m *MockRepository) ListStatusUpdates(limit int) ([]StatusUpdate, error) {
	args := m.Called(limit)
	return args.Get(0).([]StatusUpdate), args.Error(1)
}
func (m *MockRepository) ToggleStatusLike(statusId, accountId int) (bool, error) {
	args := m.Called(statusId, accountId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) GetStatusLikes(statusId int) ([]int, error) {
	args := m.Called(statusId)
	return args.Get(0).([]int), args.Error(1)
}
func (m *MockRepository) CreateStatusComment(params CreateStatusCommentParams) (StatusComment, error) {
	args := m.Called(params)
	return args.Get(0).(StatusComment), args.Error(1)
}
func (m *MockRepository) ListStatusComments(statusId int) ([]StatusComment, error) {
	args := m.Called(statusId)
	return args.Get(0).([]StatusComment), args.Error(1)
}
func (m *MockRepository) CreateAnnouncement(authorId int, title, body string) (Announcement, error) {
	args := m.Called(authorId, title, body)
	return args.Get(0).(Announcement), args.Error(1)
}
func (m *MockRepository) ListAnnouncements(limit int) ([]Announcement, error) {
	args := m.Called(limit)
	return args.Get(0).([]Announcement), args.Error(1)
}
