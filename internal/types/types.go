package types

import (
	"time"
)

type User struct {
	Id            int        `json:"id"`
	Username      string     `json:"username"`
	DisplayName   string     `json:"display_name"`
	EmailAddress  string     `json:"email_address,omitempty"`
	AvatarUrl     string     `json:"avatar_url,omitempty"`
	Password      string     `json:"-"`
	IsAdmin       bool       `json:"is_admin,omitempty"`
	IsOnline      bool       `json:"is_online,omitempty"`
	IsDisabled    bool       `json:"is_disabled,omitempty"`
	DisabledUntil *time.Time `json:"disabled_until,omitempty"`
	IsBanned      bool       `json:"is_banned,omitempty"`
	LastSeenAt    *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at,omitempty"`
}

type Member struct {
	User
	IsRoomAdmin bool `json:"is_room_admin"`
}

type Room struct {
	Id                 int        `json:"id"`
	ExternalId         string     `json:"external_id"`
	Name               string     `json:"name,omitempty"`
	IsGroup            bool       `json:"is_group"`
	AvatarUrl          string     `json:"avatar_url,omitempty"`
	BackgroundImageUrl string     `json:"background_image_url,omitempty"`
	SeqId              int        `json:"seq_id"`
	CreatedBy          int        `json:"created_by"`
	Members            []Member   `json:"members,omitempty"`
	Pinned             *PinnedRef `json:"pinned,omitempty"`
	LastMessage        string     `json:"last_message,omitempty"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	TypingUserIds      []int      `json:"typing_user_ids,omitempty"`
	CreatedAt          time.Time  `json:"created_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at,omitempty"`
}

// PinnedRef points at the single highlighted message in a room. A nil Until
// means the pin never expires.
type PinnedRef struct {
	MessageId int        `json:"message_id"`
	Until     *time.Time `json:"until,omitempty"`
}

// RoomSummary is one entry in a user's room list.
type RoomSummary struct {
	Room
	LastReadSeqId int `json:"last_read_seq_id"`
	UnreadCount   int `json:"unread_count"`
}

const (
	MessageStatusSent = "sent"
	MessageStatusSeen = "seen"
)

type Message struct {
	Id          int              `json:"id"`
	RoomId      int              `json:"room_id"`
	SeqId       int              `json:"seq_id"`
	SenderId    int              `json:"sender_id"`
	SenderName  string           `json:"sender_name"`
	Content     string           `json:"content,omitempty"`
	Attachment  *Attachment      `json:"attachment,omitempty"`
	Status      string           `json:"status"`
	IsDeleted   bool             `json:"is_deleted,omitempty"`
	EditedAt    *time.Time       `json:"edited_at,omitempty"`
	IsPinned    bool             `json:"is_pinned,omitempty"`
	PinnedUntil *time.Time       `json:"pinned_until,omitempty"`
	ReplyTo     *ReplyRef        `json:"reply_to,omitempty"`
	Reactions   map[string][]int `json:"reactions,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Attachment is a reference to an externally stored blob. The server never
// touches the blob itself.
type Attachment struct {
	Url       string `json:"url"`
	Name      string `json:"name"`
	MimeClass string `json:"mime_class"`
	Size      int64  `json:"size"`
}

// ReplyRef is an immutable snapshot of the message being replied to, so the
// preview survives later edits or deletion of the original.
type ReplyRef struct {
	MessageId  int    `json:"message_id"`
	SenderId   int    `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Preview    string `json:"preview"`
}

const (
	ReportStatusPending     = "pending"
	ReportStatusNoAction    = "reviewed_no_action"
	ReportStatusActionTaken = "reviewed_action_taken"
)

type Report struct {
	Id               string            `json:"id"`
	RoomId           int               `json:"room_id"`
	ReportedByUserId int               `json:"reported_by_user_id"`
	TargetUserId     int               `json:"target_user_id,omitempty"`
	CapturedMessages []CapturedMessage `json:"captured_messages"`
	Status           string            `json:"status"`
	AdminNotes       string            `json:"admin_notes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// CapturedMessage is a redacted snapshot of one message at report time.
type CapturedMessage struct {
	SenderId   int       `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Preview    string    `json:"preview"`
	SentAt     time.Time `json:"sent_at"`
}

// StatusUpdate is a profile feed post, separate from room messaging. Author
// name and avatar are snapshots taken at posting time.
type StatusUpdate struct {
	Id              int       `json:"id"`
	AuthorId        int       `json:"author_id"`
	AuthorName      string    `json:"author_name"`
	AuthorAvatarUrl string    `json:"author_avatar_url,omitempty"`
	Body            string    `json:"body,omitempty"`
	ImageUrl        string    `json:"image_url,omitempty"`
	LikedByUserIds  []int     `json:"liked_by_user_ids,omitempty"`
	CommentCount    int       `json:"comment_count"`
	CreatedAt       time.Time `json:"created_at"`
}

type StatusComment struct {
	Id         int       `json:"id"`
	StatusId   int       `json:"status_id"`
	AuthorId   int       `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type Announcement struct {
	Id        int       `json:"id"`
	AuthorId  int       `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
