package database

import "time"

type Repository interface {
	Ping() error

	CreateAccount(params CreateAccountParams) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	ListAccounts() ([]User, error)
	SetAccountDisabled(accountId int, until *time.Time) error
	SetAccountBanned(accountId int, banned bool) error
	UpdateLastSeen(accountId int, t time.Time) error

	CreateBlock(blockerId, blockedId int) error
	DeleteBlock(blockerId, blockedId int) error
	BlockExistsBetween(a, b int) (bool, error)

	CreateDirectRoom(params CreateDirectRoomParams) (Room, bool, error)
	CreateGroupRoom(params CreateGroupRoomParams) (Room, error)
	GetRoomById(roomId int) (Room, error)
	GetRoomByExternalId(externalId string) (Room, error)
	GetRoomWithMembers(roomId int) (*Room, error)
	GetMember(roomId, accountId int) (Member, error)
	AddMember(roomId, accountId int, isAdmin bool) (Member, error)
	RemoveMember(roomId, accountId int) error
	SetMemberAdmin(roomId, accountId int, isAdmin bool) error
	ListRoomsForUser(accountId int) ([]Membership, error)
	SetRoomBackground(roomId int, url string) error
	HideRoomForUser(accountId, roomId int, at time.Time) error
	UpdateLastReadSeqId(accountId, roomId, seqId int) error

	AppendMessage(params AppendMessageParams) (Message, error)
	GetMessage(messageId int) (Message, error)
	UpdateMessageText(messageId int, content, preview string, editedAt time.Time) (Message, error)
	SoftDeleteMessage(messageId int, placeholder string) (Message, error)
	GetMessages(roomId, since, before, limit int) ([]Message, error)
	MarkSeen(roomId, viewerId, upToSeq int) (int, error)

	SetPin(roomId, messageId int, until *time.Time) error
	ClearPin(roomId int) error

	SetReaction(messageId, accountId int, emoji string) (bool, error)
	GetReactions(messageId int) (map[string][]int, error)
	GetReactionsForMessages(messageIds []int) (map[int]map[string][]int, error)

	CreateReport(params CreateReportParams) (Report, error)
	GetReport(reportId string) (Report, error)
	ListReports() ([]Report, error)
	UpdateReport(params UpdateReportParams) (Report, error)

	CreateStatusUpdate(params CreateStatusUpdateParams) (StatusUpdate, error)
	GetStatusUpdate(statusId int) (StatusUpdate, error)
	ListStatusUpdates(limit int) ([]StatusUpdate, error)
	ToggleStatusLike(statusId, accountId int) (bool, error)
	GetStatusLikes(statusId int) ([]int, error)
	CreateStatusComment(params CreateStatusCommentParams) (StatusComment, error)
	ListStatusComments(statusId int) ([]StatusComment, error)

	CreateAnnouncement(authorId int, title, body string) (Announcement, error)
	ListAnnouncements(limit int) ([]Announcement, error)
}
