package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/types"
)

// AppendParams is the caller-supplied part of a new message. The store
// assigns the sequence number and the sender-name snapshot is taken here;
// the client never controls ordering.
type AppendParams struct {
	RoomId     int
	SenderId   int
	Content    string
	Attachment *types.Attachment
	ReplyToId  int
}

// Append writes a message to a room and fans it out. Ordering is
// authoritative at the store: the per-room seq is assigned inside the append
// transaction, never by the client.
func (s *Service) Append(ctx context.Context, p AppendParams) (types.Message, error) {
	if p.Content == "" && p.Attachment == nil {
		return types.Message{}, fmt.Errorf("%w: a message needs text or an attachment", ErrInvariant)
	}

	if p.Attachment != nil {
		if p.Attachment.Url == "" || p.Attachment.Name == "" || p.Attachment.MimeClass == "" || p.Attachment.Size <= 0 {
			return types.Message{}, fmt.Errorf("%w: attachment reference incomplete", ErrInvariant)
		}
	}

	sender, err := s.db.GetAccountById(p.SenderId)
	if err != nil {
		return types.Message{}, storeErr(err)
	}
	if sender.IsBanned || DisabledNow(sender, time.Now()) {
		return types.Message{}, ErrForbidden
	}

	room, err := s.db.GetRoomWithMembers(p.RoomId)
	if err != nil {
		return types.Message{}, storeErr(err)
	}
	if !isMember(room, p.SenderId) {
		return types.Message{}, ErrForbidden
	}

	// blocking guards future sending in direct rooms only; history and the
	// room itself stay visible
	if !room.IsGroup {
		for _, m := range room.Members {
			if m.AccountId == p.SenderId {
				continue
			}
			blocked, err := s.db.BlockExistsBetween(p.SenderId, m.AccountId)
			if err != nil {
				return types.Message{}, storeErr(err)
			}
			if blocked {
				return types.Message{}, ErrBlocked
			}
		}
	}

	params := database.AppendMessageParams{
		RoomId:     p.RoomId,
		SenderId:   p.SenderId,
		SenderName: sender.DisplayName,
		Content:    p.Content,
		CreatedAt:  time.Now().UTC(),
	}

	if p.Attachment != nil {
		params.AttachmentUrl = &p.Attachment.Url
		params.AttachmentName = &p.Attachment.Name
		params.AttachmentMimeClass = &p.Attachment.MimeClass
		params.AttachmentSize = &p.Attachment.Size
	}

	if p.ReplyToId != 0 {
		original, err := s.db.GetMessage(p.ReplyToId)
		if err != nil {
			return types.Message{}, storeErr(err)
		}
		if original.RoomId != p.RoomId {
			return types.Message{}, ErrNotFound
		}

		replyPreview := deletedPlaceholder
		if !original.IsDeleted {
			replyPreview = preview(original.Content, original.AttachmentName)
		}

		params.ReplyToId = &original.Id
		params.ReplyToSenderId = &original.SenderId
		params.ReplyToSenderName = &original.SenderName
		params.ReplyToPreview = &replyPreview
	}

	params.Preview = preview(p.Content, params.AttachmentName)

	msg, err := s.db.AppendMessage(params)
	if err != nil {
		return types.Message{}, storeErr(err)
	}

	result := toMessage(msg)

	if s.notifier != nil {
		s.notifier.MessageAdded(room.ExternalId, result)
	}
	s.notifyRoomUpdated(p.RoomId)

	return result, nil
}

// Edit rewrites a message's text. Only the sender may edit; a deleted
// message reads as gone.
func (s *Service) Edit(ctx context.Context, messageId, editorId int, newText string) (types.Message, error) {
	if newText == "" {
		return types.Message{}, fmt.Errorf("%w: edited text cannot be empty", ErrInvariant)
	}

	msg, err := s.db.GetMessage(messageId)
	if err != nil {
		return types.Message{}, storeErr(err)
	}
	if msg.IsDeleted {
		return types.Message{}, ErrNotFound
	}
	if msg.SenderId != editorId {
		return types.Message{}, ErrForbidden
	}

	updated, err := s.db.UpdateMessageText(messageId, newText, preview(newText, nil), time.Now())
	if err != nil {
		return types.Message{}, storeErr(err)
	}

	result := toMessage(updated)

	room, err := s.db.GetRoomById(updated.RoomId)
	if err == nil && s.notifier != nil {
		s.notifier.MessageEdited(room.ExternalId, result)
	}
	s.notifyRoomUpdated(updated.RoomId)

	return result, nil
}

// SoftDelete blanks a message in place, keeping the row for ordering and
// reply references. Cascades handled by the store transaction: an active pin
// on the message is cleared, and the room preview becomes the placeholder if
// the message was the latest.
func (s *Service) SoftDelete(ctx context.Context, messageId, requesterId int) error {
	msg, err := s.db.GetMessage(messageId)
	if err != nil {
		return storeErr(err)
	}
	if msg.IsDeleted {
		return ErrNotFound
	}
	if msg.SenderId != requesterId {
		return ErrForbidden
	}

	deleted, err := s.db.SoftDeleteMessage(messageId, deletedPlaceholder)
	if err != nil {
		return storeErr(err)
	}

	room, err := s.db.GetRoomById(deleted.RoomId)
	if err == nil && s.notifier != nil {
		s.notifier.MessageDeleted(room.ExternalId, toMessage(deleted))
	}
	s.notifyRoomUpdated(deleted.RoomId)

	return nil
}

// ListPage returns one page of a room's history, newest first by seq.
// Restartable: callers pass the lowest seq they hold as before, or a since
// seq to catch up after a reconnect.
func (s *Service) ListPage(ctx context.Context, roomExternalId string, viewerId, since, before, limit int) ([]types.Message, error) {
	room, err := s.db.GetRoomByExternalId(roomExternalId)
	if err != nil {
		return nil, storeErr(err)
	}

	if _, err := s.db.GetMember(room.Id, viewerId); err != nil {
		if errors.Is(storeErr(err), ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, storeErr(err)
	}

	dbMessages, err := s.db.GetMessages(room.Id, since, before, limit)
	if err != nil {
		return nil, storeErr(err)
	}

	messageIds := make([]int, 0, len(dbMessages))
	for _, m := range dbMessages {
		if !m.IsDeleted {
			messageIds = append(messageIds, m.Id)
		}
	}

	reactions, err := s.db.GetReactionsForMessages(messageIds)
	if err != nil {
		return nil, storeErr(err)
	}

	messages := make([]types.Message, 0, len(dbMessages))
	for _, m := range dbMessages {
		msg := toMessage(m)
		if r, ok := reactions[m.Id]; ok && !m.IsDeleted {
			msg.Reactions = r
		}
		messages = append(messages, msg)
	}

	return messages, nil
}
