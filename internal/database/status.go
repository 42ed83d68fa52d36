package database

import (
	"time"

	"github.com/lib/pq"
)

const statusColumns = "id, author_id, author_name, author_avatar_url, body, image_url, created_at"

func scanStatusUpdate(row interface{ Scan(...any) error }) (StatusUpdate, error) {
	var s StatusUpdate
	err := row.Scan(
		&s.Id,
		&s.AuthorId,
		&s.AuthorName,
		&s.AuthorAvatarUrl,
		&s.Body,
		&s.ImageUrl,
		&s.CreatedAt,
	)
	return s, err
}

func (db *PgRepository) CreateStatusUpdate(params CreateStatusUpdateParams) (StatusUpdate, error) {
	res := db.conn.QueryRow(
		"INSERT INTO status_updates (author_id, author_name, author_avatar_url, body, image_url, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+statusColumns,
		params.AuthorId,
		params.AuthorName,
		params.AuthorAvatarUrl,
		params.Body,
		params.ImageUrl,
		time.Now().UTC(),
	)

	return scanStatusUpdate(res)
}

func (db *PgRepository) GetStatusUpdate(statusId int) (StatusUpdate, error) {
	row := db.conn.QueryRow(
		"SELECT "+statusColumns+" FROM status_updates WHERE id = $1 LIMIT 1",
		statusId,
	)

	return scanStatusUpdate(row)
}

// ListStatusUpdates returns the newest feed entries with their liker ids and
// comment counts attached.
func (db *PgRepository) ListStatusUpdates(limit int) ([]StatusUpdate, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.conn.Query(
		"SELECT "+statusColumns+" FROM status_updates ORDER BY created_at DESC, id DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []StatusUpdate
	for rows.Next() {
		s, err := scanStatusUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return updates, nil
	}

	ids := make([]int, 0, len(updates))
	index := make(map[int]*StatusUpdate, len(updates))
	for i := range updates {
		ids = append(ids, updates[i].Id)
		index[updates[i].Id] = &updates[i]
	}

	likeRows, err := db.conn.Query(
		"SELECT status_id, account_id FROM status_likes WHERE status_id = ANY($1) ORDER BY created_at",
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer likeRows.Close()

	for likeRows.Next() {
		var statusId, accountId int
		if err := likeRows.Scan(&statusId, &accountId); err != nil {
			return nil, err
		}
		if s := index[statusId]; s != nil {
			s.LikerIds = append(s.LikerIds, accountId)
		}
	}
	if err := likeRows.Err(); err != nil {
		return nil, err
	}

	countRows, err := db.conn.Query(
		"SELECT status_id, COUNT(*) FROM status_comments WHERE status_id = ANY($1) GROUP BY status_id",
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer countRows.Close()

	for countRows.Next() {
		var statusId, count int
		if err := countRows.Scan(&statusId, &count); err != nil {
			return nil, err
		}
		if s := index[statusId]; s != nil {
			s.CommentCount = count
		}
	}

	return updates, countRows.Err()
}

// ToggleStatusLike flips the user's like on a status. ON CONFLICT absorbs a
// concurrent duplicate insert, so the flip never errors on a race. Returns
// true when the like was added.
func (db *PgRepository) ToggleStatusLike(statusId, accountId int) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT INTO status_likes (status_id, account_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (status_id, account_id) DO NOTHING",
		statusId,
		accountId,
		time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	_, err = db.conn.Exec(
		"DELETE FROM status_likes WHERE status_id = $1 AND account_id = $2",
		statusId,
		accountId,
	)

	return false, err
}

func (db *PgRepository) GetStatusLikes(statusId int) ([]int, error) {
	rows, err := db.conn.Query(
		"SELECT account_id FROM status_likes WHERE status_id = $1 ORDER BY created_at",
		statusId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likerIds []int
	for rows.Next() {
		var accountId int
		if err := rows.Scan(&accountId); err != nil {
			return nil, err
		}
		likerIds = append(likerIds, accountId)
	}

	return likerIds, rows.Err()
}

func (db *PgRepository) CreateStatusComment(params CreateStatusCommentParams) (StatusComment, error) {
	res := db.conn.QueryRow(
		"INSERT INTO status_comments (status_id, author_id, author_name, body, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) "+
			"RETURNING id, status_id, author_id, author_name, body, created_at",
		params.StatusId,
		params.AuthorId,
		params.AuthorName,
		params.Body,
		time.Now().UTC(),
	)

	var c StatusComment
	err := res.Scan(&c.Id, &c.StatusId, &c.AuthorId, &c.AuthorName, &c.Body, &c.CreatedAt)

	return c, err
}

func (db *PgRepository) ListStatusComments(statusId int) ([]StatusComment, error) {
	rows, err := db.conn.Query(
		"SELECT id, status_id, author_id, author_name, body, created_at "+
			"FROM status_comments WHERE status_id = $1 ORDER BY created_at, id",
		statusId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []StatusComment
	for rows.Next() {
		var c StatusComment
		if err := rows.Scan(&c.Id, &c.StatusId, &c.AuthorId, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}
