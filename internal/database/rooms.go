package database

import (
	"database/sql"
	"fmt"
	"time"
)

const roomColumns = "id, external_id, name, is_group, avatar_url, background_image_url, seq_id, created_by, " +
	"pinned_message_id, pinned_until, last_message, last_message_at, created_at, updated_at"

func scanRoom(row interface{ Scan(...any) error }) (Room, error) {
	var r Room
	err := row.Scan(
		&r.Id,
		&r.ExternalId,
		&r.Name,
		&r.IsGroup,
		&r.AvatarUrl,
		&r.BackgroundImageUrl,
		&r.SeqId,
		&r.CreatedBy,
		&r.PinnedMessageId,
		&r.PinnedUntil,
		&r.LastMessage,
		&r.LastMessageAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

// CreateDirectRoom creates the 1:1 room for a user pair, or returns the
// existing one. The deterministic external id plus the unique constraint on
// rooms.external_id makes concurrent calls converge on a single row; the
// boolean result reports whether this call created it.
func (db *PgRepository) CreateDirectRoom(params CreateDirectRoomParams) (Room, bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res := tx.QueryRow(
		"INSERT INTO rooms (external_id, is_group, created_by, created_at, updated_at) "+
			"VALUES ($1, FALSE, $2, $3, $3) ON CONFLICT (external_id) DO NOTHING "+
			"RETURNING "+roomColumns,
		params.ExternalId,
		params.CreatedBy,
		now,
	)

	created := true
	room, err := scanRoom(res)
	if err == sql.ErrNoRows {
		// lost the race or the room already existed
		created = false
		res = tx.QueryRow(
			"SELECT "+roomColumns+" FROM rooms WHERE external_id = $1 LIMIT 1",
			params.ExternalId,
		)
		room, err = scanRoom(res)
	}
	if err != nil {
		return Room{}, false, err
	}

	for _, id := range params.MemberIds {
		_, err = tx.Exec(
			"INSERT INTO members (room_id, account_id, created_at, updated_at) "+
				"VALUES ($1, $2, $3, $3) ON CONFLICT (room_id, account_id) DO NOTHING",
			room.Id,
			id,
			now,
		)
		if err != nil {
			return Room{}, false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Room{}, false, err
	}

	return room, created, nil
}

func (db *PgRepository) CreateGroupRoom(params CreateGroupRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res := tx.QueryRow(
		"INSERT INTO rooms (external_id, name, is_group, created_by, created_at, updated_at) "+
			"VALUES ($1, $2, TRUE, $3, $4, $4) RETURNING "+roomColumns,
		params.ExternalId,
		params.Name,
		params.CreatedBy,
		now,
	)

	room, err := scanRoom(res)
	if err != nil {
		return Room{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO members (room_id, account_id, is_admin, created_at, updated_at) "+
			"VALUES ($1, $2, TRUE, $3, $3)",
		room.Id,
		params.CreatedBy,
		now,
	)
	if err != nil {
		return Room{}, err
	}

	for _, id := range params.MemberIds {
		if id == params.CreatedBy {
			continue
		}
		_, err = tx.Exec(
			"INSERT INTO members (room_id, account_id, created_at, updated_at) "+
				"VALUES ($1, $2, $3, $3) ON CONFLICT (room_id, account_id) DO NOTHING",
			room.Id,
			id,
			now,
		)
		if err != nil {
			return Room{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

func (db *PgRepository) GetRoomById(roomId int) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM rooms WHERE id = $1 LIMIT 1",
		roomId,
	)

	return scanRoom(row)
}

func (db *PgRepository) GetRoomByExternalId(externalId string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM rooms WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return scanRoom(row)
}

func (db *PgRepository) GetRoomWithMembers(roomId int) (*Room, error) {
	room, err := db.GetRoomById(roomId)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		"SELECT m.id, m.room_id, m.account_id, a.username, a.display_name, m.is_admin, "+
			"m.last_read_seq_id, m.hidden_at, m.created_at, m.updated_at "+
			"FROM members m JOIN accounts a ON m.account_id = a.id "+
			"WHERE m.room_id = $1 ORDER BY m.id",
		roomId,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch members: %w", err)
	}
	defer rows.Close()

	room.Members = make([]Member, 0)
	for rows.Next() {
		var m Member
		err := rows.Scan(
			&m.Id,
			&m.RoomId,
			&m.AccountId,
			&m.Username,
			&m.DisplayName,
			&m.IsAdmin,
			&m.LastReadSeqId,
			&m.HiddenAt,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		room.Members = append(room.Members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &room, nil
}

func (db *PgRepository) GetMember(roomId, accountId int) (Member, error) {
	row := db.conn.QueryRow(
		"SELECT m.id, m.room_id, m.account_id, a.username, a.display_name, m.is_admin, "+
			"m.last_read_seq_id, m.hidden_at, m.created_at, m.updated_at "+
			"FROM members m JOIN accounts a ON m.account_id = a.id "+
			"WHERE m.room_id = $1 AND m.account_id = $2 LIMIT 1",
		roomId,
		accountId,
	)

	var m Member
	err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.AccountId,
		&m.Username,
		&m.DisplayName,
		&m.IsAdmin,
		&m.LastReadSeqId,
		&m.HiddenAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)

	return m, err
}

func (db *PgRepository) AddMember(roomId, accountId int, isAdmin bool) (Member, error) {
	now := time.Now().UTC()
	res := db.conn.QueryRow(
		"INSERT INTO members (room_id, account_id, is_admin, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) "+
			"ON CONFLICT (room_id, account_id) DO UPDATE SET hidden_at = NULL "+
			"RETURNING id, room_id, account_id, is_admin, last_read_seq_id",
		roomId,
		accountId,
		isAdmin,
		now,
	)

	var m Member
	err := res.Scan(&m.Id, &m.RoomId, &m.AccountId, &m.IsAdmin, &m.LastReadSeqId)

	return m, err
}

func (db *PgRepository) RemoveMember(roomId, accountId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM members WHERE room_id = $1 AND account_id = $2",
		roomId,
		accountId,
	)

	return err
}

func (db *PgRepository) SetMemberAdmin(roomId, accountId int, isAdmin bool) error {
	res, err := db.conn.Exec(
		"UPDATE members SET is_admin = $3, updated_at = $4 WHERE room_id = $1 AND account_id = $2",
		roomId,
		accountId,
		isAdmin,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// ListRoomsForUser returns the user's visible rooms, newest activity first.
// A room hidden via "delete chat for me" stays out of the list until a
// message newer than the tombstone arrives.
func (db *PgRepository) ListRoomsForUser(accountId int) ([]Membership, error) {
	rows, err := db.conn.Query(
		"SELECT r.id, r.external_id, r.name, r.is_group, r.avatar_url, r.background_image_url, r.seq_id, r.created_by, "+
			"r.pinned_message_id, r.pinned_until, r.last_message, r.last_message_at, "+
			"r.created_at, r.updated_at, m.last_read_seq_id, "+
			"GREATEST(r.seq_id - m.last_read_seq_id, 0) AS unread "+
			"FROM members m JOIN rooms r ON m.room_id = r.id "+
			"WHERE m.account_id = $1 "+
			"AND (m.hidden_at IS NULL OR (r.last_message_at IS NOT NULL AND r.last_message_at > m.hidden_at)) "+
			"ORDER BY r.last_message_at DESC NULLS LAST, r.id DESC",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		var mb Membership
		r := &mb.Room
		err := rows.Scan(
			&r.Id,
			&r.ExternalId,
			&r.Name,
			&r.IsGroup,
			&r.AvatarUrl,
			&r.BackgroundImageUrl,
			&r.SeqId,
			&r.CreatedBy,
			&r.PinnedMessageId,
			&r.PinnedUntil,
			&r.LastMessage,
			&r.LastMessageAt,
			&r.CreatedAt,
			&r.UpdatedAt,
			&mb.LastReadSeqId,
			&mb.UnreadCount,
		)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, mb)
	}

	return memberships, rows.Err()
}

// SetRoomBackground stores the room's custom chat background. An empty url
// resets it to the default.
func (db *PgRepository) SetRoomBackground(roomId int, url string) error {
	res, err := db.conn.Exec(
		"UPDATE rooms SET background_image_url = $2, updated_at = $3 WHERE id = $1",
		roomId,
		url,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgRepository) HideRoomForUser(accountId, roomId int, at time.Time) error {
	res, err := db.conn.Exec(
		"UPDATE members SET hidden_at = $3, updated_at = $3 WHERE room_id = $1 AND account_id = $2",
		roomId,
		accountId,
		at.UTC(),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// UpdateLastReadSeqId advances the user's read position. GREATEST keeps the
// position monotonic under out-of-order acknowledgments.
func (db *PgRepository) UpdateLastReadSeqId(accountId, roomId, seqId int) error {
	_, err := db.conn.Exec(
		"UPDATE members SET last_read_seq_id = GREATEST(last_read_seq_id, $3), updated_at = $4 "+
			"WHERE room_id = $1 AND account_id = $2",
		roomId,
		accountId,
		seqId,
		time.Now().UTC(),
	)

	return err
}

// SetPin makes messageId the room's single active pin. Any previously pinned
// message is unpinned inside the same transaction; the room row lock
// serializes concurrent swaps.
func (db *PgRepository) SetPin(roomId, messageId int, until *time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var prev *int
	err = tx.QueryRow(
		"SELECT pinned_message_id FROM rooms WHERE id = $1 FOR UPDATE",
		roomId,
	).Scan(&prev)
	if err != nil {
		return err
	}

	if prev != nil && *prev != messageId {
		_, err = tx.Exec(
			"UPDATE messages SET is_pinned = FALSE, pinned_until = NULL WHERE id = $1",
			*prev,
		)
		if err != nil {
			return err
		}
	}

	res, err := tx.Exec(
		"UPDATE messages SET is_pinned = TRUE, pinned_until = $3 "+
			"WHERE id = $1 AND room_id = $2 AND is_deleted = FALSE",
		messageId,
		roomId,
		until,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = sql.ErrNoRows
		return err
	}

	_, err = tx.Exec(
		"UPDATE rooms SET pinned_message_id = $2, pinned_until = $3, updated_at = $4 WHERE id = $1",
		roomId,
		messageId,
		until,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ClearPin removes the room's active pin, if any. Clearing an unpinned room
// is a no-op.
func (db *PgRepository) ClearPin(roomId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var prev *int
	err = tx.QueryRow(
		"SELECT pinned_message_id FROM rooms WHERE id = $1 FOR UPDATE",
		roomId,
	).Scan(&prev)
	if err != nil {
		return err
	}

	if prev != nil {
		_, err = tx.Exec(
			"UPDATE messages SET is_pinned = FALSE, pinned_until = NULL WHERE id = $1",
			*prev,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(
		"UPDATE rooms SET pinned_message_id = NULL, pinned_until = NULL, updated_at = $2 WHERE id = $1",
		roomId,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}
