package chat

import (
	"time"
	"unicode/utf8"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/types"
)

const previewLength = 64

// deletedPlaceholder is what readers see in previews and reply snapshots
// once a message is soft-deleted.
const deletedPlaceholder = "This message was deleted"

func preview(content string, attachmentName *string) string {
	if content == "" && attachmentName != nil {
		return "Attachment: " + *attachmentName
	}
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}

	runes := []rune(content)
	return string(runes[:previewLength]) + "…"
}

// activePin applies read-time expiry: a pin whose deadline has passed is
// logically unpinned even before lazy cleanup rewrites the rows.
func activePin(messageId *int, until *time.Time) *types.PinnedRef {
	if messageId == nil {
		return nil
	}
	if until != nil && !until.After(time.Now()) {
		return nil
	}

	return &types.PinnedRef{MessageId: *messageId, Until: until}
}

func toUser(u database.User) types.User {
	return types.User{
		Id:            u.Id,
		Username:      u.Username,
		DisplayName:   u.DisplayName,
		EmailAddress:  u.EmailAddress,
		AvatarUrl:     u.AvatarUrl,
		IsAdmin:       u.IsAdmin,
		IsDisabled:    u.IsDisabled,
		DisabledUntil: u.DisabledUntil,
		IsBanned:      u.IsBanned,
		LastSeenAt:    u.LastSeenAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func toRoom(r *database.Room) types.Room {
	room := types.Room{
		Id:                 r.Id,
		ExternalId:         r.ExternalId,
		Name:               r.Name,
		IsGroup:            r.IsGroup,
		AvatarUrl:          r.AvatarUrl,
		BackgroundImageUrl: r.BackgroundImageUrl,
		SeqId:              r.SeqId,
		CreatedBy:          r.CreatedBy,
		Pinned:             activePin(r.PinnedMessageId, r.PinnedUntil),
		LastMessage:        r.LastMessage,
		LastMessageAt:      r.LastMessageAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	for _, m := range r.Members {
		room.Members = append(room.Members, types.Member{
			User: types.User{
				Id:          m.AccountId,
				Username:    m.Username,
				DisplayName: m.DisplayName,
			},
			IsRoomAdmin: m.IsAdmin,
		})
	}

	return room
}

func toMessage(m database.Message) types.Message {
	msg := types.Message{
		Id:         m.Id,
		RoomId:     m.RoomId,
		SeqId:      m.SeqId,
		SenderId:   m.SenderId,
		SenderName: m.SenderName,
		Status:     m.Status,
		IsDeleted:  m.IsDeleted,
		EditedAt:   m.EditedAt,
		Timestamp:  m.CreatedAt,
	}

	if m.IsDeleted {
		// content and attachment are already blanked in the store; keep the
		// wire representation empty as well
		return msg
	}

	msg.Content = m.Content
	if m.AttachmentUrl != nil {
		msg.Attachment = &types.Attachment{
			Url:       *m.AttachmentUrl,
			Name:      derefString(m.AttachmentName),
			MimeClass: derefString(m.AttachmentMimeClass),
			Size:      derefInt64(m.AttachmentSize),
		}
	}

	if pin := activePin(&m.Id, m.PinnedUntil); m.IsPinned && (m.PinnedUntil == nil || pin != nil) {
		msg.IsPinned = true
		msg.PinnedUntil = m.PinnedUntil
	}

	if m.ReplyToId != nil {
		msg.ReplyTo = &types.ReplyRef{
			MessageId:  *m.ReplyToId,
			SenderId:   derefInt(m.ReplyToSenderId),
			SenderName: derefString(m.ReplyToSenderName),
			Preview:    derefString(m.ReplyToPreview),
		}
	}

	return msg
}

func toStatusUpdate(s database.StatusUpdate) types.StatusUpdate {
	return types.StatusUpdate{
		Id:              s.Id,
		AuthorId:        s.AuthorId,
		AuthorName:      s.AuthorName,
		AuthorAvatarUrl: s.AuthorAvatarUrl,
		Body:            s.Body,
		ImageUrl:        s.ImageUrl,
		LikedByUserIds:  s.LikerIds,
		CommentCount:    s.CommentCount,
		CreatedAt:       s.CreatedAt,
	}
}

func toStatusComment(c database.StatusComment) types.StatusComment {
	return types.StatusComment(c)
}

func toSummary(mb database.Membership) types.RoomSummary {
	return types.RoomSummary{
		Room:          toRoom(&mb.Room),
		LastReadSeqId: mb.LastReadSeqId,
		UnreadCount:   mb.UnreadCount,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func derefInt64(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}
