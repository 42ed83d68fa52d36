package database

import "time"

type User struct {
	Id            int
	Username      string
	DisplayName   string
	EmailAddress  string
	PasswordHash  string
	AvatarUrl     string
	IsAdmin       bool
	IsDisabled    bool
	DisabledUntil *time.Time
	IsBanned      bool
	LastSeenAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Room struct {
	Id                 int
	ExternalId         string
	Name               string
	IsGroup            bool
	AvatarUrl          string
	BackgroundImageUrl string
	SeqId              int
	CreatedBy          int
	PinnedMessageId    *int
	PinnedUntil        *time.Time
	LastMessage        string
	LastMessageAt      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Members            []Member
}

type Member struct {
	Id            int
	RoomId        int
	AccountId     int
	Username      string
	DisplayName   string
	IsAdmin       bool
	LastReadSeqId int
	HiddenAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Membership is one row of a user's room list, with the room preview and the
// user's read position joined in.
type Membership struct {
	Room          Room
	LastReadSeqId int
	UnreadCount   int
}

type Message struct {
	Id                  int
	RoomId              int
	SeqId               int
	SenderId            int
	SenderName          string
	Content             string
	AttachmentUrl       *string
	AttachmentName      *string
	AttachmentMimeClass *string
	AttachmentSize      *int64
	Status              string
	IsDeleted           bool
	EditedAt            *time.Time
	IsPinned            bool
	PinnedUntil         *time.Time
	ReplyToId           *int
	ReplyToSenderId     *int
	ReplyToSenderName   *string
	ReplyToPreview      *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Report struct {
	Id               string
	RoomId           int
	ReportedBy       int
	TargetUserId     *int
	CapturedMessages []byte
	Status           string
	AdminNotes       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type StatusUpdate struct {
	Id              int
	AuthorId        int
	AuthorName      string
	AuthorAvatarUrl string
	Body            string
	ImageUrl        string
	LikerIds        []int
	CommentCount    int
	CreatedAt       time.Time
}

type StatusComment struct {
	Id         int
	StatusId   int
	AuthorId   int
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

type Announcement struct {
	Id        int
	AuthorId  int
	Title     string
	Body      string
	CreatedAt time.Time
}

type CreateAccountParams struct {
	Username     string
	DisplayName  string
	EmailAddress string
	PasswordHash string
}

type UpdateAccountParams struct {
	UserId      int
	DisplayName string
	AvatarUrl   string
}

type CreateDirectRoomParams struct {
	ExternalId string
	CreatedBy  int
	MemberIds  [2]int
}

type CreateGroupRoomParams struct {
	ExternalId string
	Name       string
	CreatedBy  int
	MemberIds  []int
}

type AppendMessageParams struct {
	RoomId              int
	SenderId            int
	SenderName          string
	Content             string
	AttachmentUrl       *string
	AttachmentName      *string
	AttachmentMimeClass *string
	AttachmentSize      *int64
	ReplyToId           *int
	ReplyToSenderId     *int
	ReplyToSenderName   *string
	ReplyToPreview      *string
	Preview             string
	CreatedAt           time.Time
}

type CreateStatusUpdateParams struct {
	AuthorId        int
	AuthorName      string
	AuthorAvatarUrl string
	Body            string
	ImageUrl        string
}

type CreateStatusCommentParams struct {
	StatusId   int
	AuthorId   int
	AuthorName string
	Body       string
}

type CreateReportParams struct {
	Id               string
	RoomId           int
	ReportedBy       int
	TargetUserId     *int
	CapturedMessages []byte
}

type UpdateReportParams struct {
	Id         string
	Status     string
	AdminNotes string
}
