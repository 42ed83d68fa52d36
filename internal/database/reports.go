package database

import (
	"time"
)

const reportColumns = "id, room_id, reported_by, target_user_id, captured_messages, " +
	"status, admin_notes, created_at, updated_at"

func scanReport(row interface{ Scan(...any) error }) (Report, error) {
	var r Report
	err := row.Scan(
		&r.Id,
		&r.RoomId,
		&r.ReportedBy,
		&r.TargetUserId,
		&r.CapturedMessages,
		&r.Status,
		&r.AdminNotes,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

func (db *PgRepository) CreateReport(params CreateReportParams) (Report, error) {
	res := db.conn.QueryRow(
		"INSERT INTO reports (id, room_id, reported_by, target_user_id, captured_messages, status, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, 'pending', $6, $6) RETURNING "+reportColumns,
		params.Id,
		params.RoomId,
		params.ReportedBy,
		params.TargetUserId,
		params.CapturedMessages,
		time.Now().UTC(),
	)

	return scanReport(res)
}

func (db *PgRepository) GetReport(reportId string) (Report, error) {
	row := db.conn.QueryRow(
		"SELECT "+reportColumns+" FROM reports WHERE id = $1 LIMIT 1",
		reportId,
	)

	return scanReport(row)
}

func (db *PgRepository) ListReports() ([]Report, error) {
	rows, err := db.conn.Query(
		"SELECT " + reportColumns + " FROM reports ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}

	return reports, rows.Err()
}

// UpdateReport mutates the only mutable fields of a report. The captured
// snapshot is immutable by construction: no statement ever rewrites it.
func (db *PgRepository) UpdateReport(params UpdateReportParams) (Report, error) {
	res := db.conn.QueryRow(
		"UPDATE reports SET status = $2, admin_notes = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING "+reportColumns,
		params.Id,
		params.Status,
		params.AdminNotes,
		time.Now().UTC(),
	)

	return scanReport(res)
}

func (db *PgRepository) CreateAnnouncement(authorId int, title, body string) (Announcement, error) {
	res := db.conn.QueryRow(
		"INSERT INTO announcements (author_id, title, body, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, author_id, title, body, created_at",
		authorId,
		title,
		body,
		time.Now().UTC(),
	)

	var a Announcement
	err := res.Scan(&a.Id, &a.AuthorId, &a.Title, &a.Body, &a.CreatedAt)

	return a, err
}

func (db *PgRepository) ListAnnouncements(limit int) ([]Announcement, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(
		"SELECT id, author_id, title, body, created_at FROM announcements "+
			"ORDER BY created_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var announcements []Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.Id, &a.AuthorId, &a.Title, &a.Body, &a.CreatedAt); err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}

	return announcements, rows.Err()
}
