package database

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const messageColumns = "id, room_id, seq_id, sender_id, sender_name, content, " +
	"attachment_url, attachment_name, attachment_mime_class, attachment_size, " +
	"status, is_deleted, edited_at, is_pinned, pinned_until, " +
	"reply_to_id, reply_to_sender_id, reply_to_sender_name, reply_to_preview, " +
	"created_at, updated_at"

func scanMessage(row interface{ Scan(...any) error }) (Message, error) {
	var m Message
	err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.SeqId,
		&m.SenderId,
		&m.SenderName,
		&m.Content,
		&m.AttachmentUrl,
		&m.AttachmentName,
		&m.AttachmentMimeClass,
		&m.AttachmentSize,
		&m.Status,
		&m.IsDeleted,
		&m.EditedAt,
		&m.IsPinned,
		&m.PinnedUntil,
		&m.ReplyToId,
		&m.ReplyToSenderId,
		&m.ReplyToSenderName,
		&m.ReplyToPreview,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

// AppendMessage inserts a message with the next per-room sequence number.
// The seq bump, the insert and the room preview update commit together, so
// the room's seq_id is authoritative for display order.
func (db *PgRepository) AppendMessage(params AppendMessageParams) (Message, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var seqId int
	err = tx.QueryRow(
		"UPDATE rooms SET seq_id = seq_id + 1, last_message = $2, last_message_at = $3, updated_at = $3 "+
			"WHERE id = $1 RETURNING seq_id",
		params.RoomId,
		params.Preview,
		params.CreatedAt,
	).Scan(&seqId)
	if err != nil {
		return Message{}, err
	}

	res := tx.QueryRow(
		"INSERT INTO messages (room_id, seq_id, sender_id, sender_name, content, "+
			"attachment_url, attachment_name, attachment_mime_class, attachment_size, "+
			"reply_to_id, reply_to_sender_id, reply_to_sender_name, reply_to_preview, "+
			"created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14) "+
			"RETURNING "+messageColumns,
		params.RoomId,
		seqId,
		params.SenderId,
		params.SenderName,
		params.Content,
		params.AttachmentUrl,
		params.AttachmentName,
		params.AttachmentMimeClass,
		params.AttachmentSize,
		params.ReplyToId,
		params.ReplyToSenderId,
		params.ReplyToSenderName,
		params.ReplyToPreview,
		params.CreatedAt,
	)

	msg, err := scanMessage(res)
	if err != nil {
		return Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return Message{}, err
	}

	return msg, nil
}

func (db *PgRepository) GetMessage(messageId int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT "+messageColumns+" FROM messages WHERE id = $1 LIMIT 1",
		messageId,
	)

	return scanMessage(row)
}

// UpdateMessageText rewrites a message's content. Deleted messages are never
// matched. When the edited message is still the room's latest, the room
// preview follows it.
func (db *PgRepository) UpdateMessageText(messageId int, content, preview string, editedAt time.Time) (Message, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"UPDATE messages SET content = $2, edited_at = $3, updated_at = $3 "+
			"WHERE id = $1 AND is_deleted = FALSE RETURNING "+messageColumns,
		messageId,
		content,
		editedAt.UTC(),
	)

	msg, err := scanMessage(res)
	if err != nil {
		return Message{}, err
	}

	_, err = tx.Exec(
		"UPDATE rooms SET last_message = $2, updated_at = $3 WHERE id = $1 AND seq_id = $4",
		msg.RoomId,
		preview,
		editedAt.UTC(),
		msg.SeqId,
	)
	if err != nil {
		return Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return Message{}, err
	}

	return msg, nil
}

// SoftDeleteMessage blanks a message in place. The row survives so ordering
// and reply references stay stable. Cascades in the same transaction: an
// active pin on the message is cleared, and the room preview is replaced by
// the placeholder when the deleted message was the latest.
func (db *PgRepository) SoftDeleteMessage(messageId int, placeholder string) (Message, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res := tx.QueryRow(
		"UPDATE messages SET is_deleted = TRUE, content = '', "+
			"attachment_url = NULL, attachment_name = NULL, attachment_mime_class = NULL, attachment_size = NULL, "+
			"is_pinned = FALSE, pinned_until = NULL, updated_at = $2 "+
			"WHERE id = $1 AND is_deleted = FALSE RETURNING "+messageColumns,
		messageId,
		now,
	)

	msg, err := scanMessage(res)
	if err != nil {
		return Message{}, err
	}

	_, err = tx.Exec(
		"UPDATE rooms SET pinned_message_id = NULL, pinned_until = NULL, updated_at = $2 "+
			"WHERE id = $1 AND pinned_message_id = $3",
		msg.RoomId,
		now,
		messageId,
	)
	if err != nil {
		return Message{}, err
	}

	_, err = tx.Exec(
		"UPDATE rooms SET last_message = $2, updated_at = $3 WHERE id = $1 AND seq_id = $4",
		msg.RoomId,
		placeholder,
		now,
		msg.SeqId,
	)
	if err != nil {
		return Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return Message{}, err
	}

	return msg, nil
}

func (db *PgRepository) GetMessages(roomId, since, before, limit int) ([]Message, error) {
	var upper, lower int = 1<<31 - 1, 0
	if before > 0 {
		upper = before - 1
	}

	if since > 0 {
		lower = since
	}

	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(
		"SELECT "+messageColumns+" FROM messages "+
			"WHERE room_id = $1 AND seq_id BETWEEN $2 AND $3 ORDER BY seq_id DESC LIMIT $4",
		roomId,
		lower,
		upper,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// MarkSeen transitions every message the viewer hasn't sent, up to and
// including upToSeq, from sent to seen, and advances the viewer's read
// position in the same transaction. The status predicate makes the
// transition forward-only.
func (db *PgRepository) MarkSeen(roomId, viewerId, upToSeq int) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.Exec(
		"UPDATE messages SET status = 'seen', updated_at = $4 "+
			"WHERE room_id = $1 AND sender_id <> $2 AND status = 'sent' AND seq_id <= $3",
		roomId,
		viewerId,
		upToSeq,
		now,
	)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(
		"UPDATE members SET last_read_seq_id = GREATEST(last_read_seq_id, $3), updated_at = $4 "+
			"WHERE room_id = $1 AND account_id = $2",
		roomId,
		viewerId,
		upToSeq,
		now,
	)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	return int(n), nil
}

// SetReaction applies the single-reaction-per-user rule: a repeat of the
// user's current emoji removes it, any other emoji replaces it. The row lock
// on (message_id, account_id) serializes one user's toggles; different users
// touch different rows and never conflict. Two sessions of the same user
// racing a first reaction both read an empty set, and the loser's INSERT
// surfaces unique_violation for the caller to retry. Returns true when the
// reaction was removed.
func (db *PgRepository) SetReaction(messageId, accountId int, emoji string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var current string
	err = tx.QueryRow(
		"SELECT emoji FROM reactions WHERE message_id = $1 AND account_id = $2 FOR UPDATE",
		messageId,
		accountId,
	).Scan(&current)

	removed := false
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(
			"INSERT INTO reactions (message_id, account_id, emoji, created_at) VALUES ($1, $2, $3, $4)",
			messageId,
			accountId,
			emoji,
			time.Now().UTC(),
		)
	case err != nil:
		return false, err
	case current == emoji:
		removed = true
		_, err = tx.Exec(
			"DELETE FROM reactions WHERE message_id = $1 AND account_id = $2",
			messageId,
			accountId,
		)
	default:
		_, err = tx.Exec(
			"UPDATE reactions SET emoji = $3 WHERE message_id = $1 AND account_id = $2",
			messageId,
			accountId,
			emoji,
		)
	}
	if err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}

	return removed, nil
}

func (db *PgRepository) GetReactions(messageId int) (map[string][]int, error) {
	rows, err := db.conn.Query(
		"SELECT emoji, account_id FROM reactions WHERE message_id = $1 ORDER BY created_at",
		messageId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reactions := make(map[string][]int)
	for rows.Next() {
		var emoji string
		var accountId int
		if err := rows.Scan(&emoji, &accountId); err != nil {
			return nil, err
		}
		reactions[emoji] = append(reactions[emoji], accountId)
	}

	return reactions, rows.Err()
}

// GetReactionsForMessages loads reaction maps for a page of messages in one
// round trip.
func (db *PgRepository) GetReactionsForMessages(messageIds []int) (map[int]map[string][]int, error) {
	if len(messageIds) == 0 {
		return map[int]map[string][]int{}, nil
	}

	rows, err := db.conn.Query(
		"SELECT message_id, emoji, account_id FROM reactions "+
			"WHERE message_id = ANY($1) ORDER BY created_at",
		pq.Array(messageIds),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int]map[string][]int)
	for rows.Next() {
		var messageId, accountId int
		var emoji string
		if err := rows.Scan(&messageId, &emoji, &accountId); err != nil {
			return nil, err
		}
		if result[messageId] == nil {
			result[messageId] = make(map[string][]int)
		}
		result[messageId][emoji] = append(result[messageId][emoji], accountId)
	}

	return result, rows.Err()
}
