package database

import (
	"time"
)

const accountColumns = "id, username, display_name, email, password_hash, avatar_url, " +
	"is_admin, is_disabled, disabled_until, is_banned, last_seen_at, created_at, updated_at"

func scanAccount(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.DisplayName,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.AvatarUrl,
		&u.IsAdmin,
		&u.IsDisabled,
		&u.DisabledUntil,
		&u.IsBanned,
		&u.LastSeenAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (db *PgRepository) CreateAccount(params CreateAccountParams) (User, error) {
	now := time.Now().UTC()
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, display_name, email, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING "+accountColumns,
		params.Username,
		params.DisplayName,
		params.EmailAddress,
		params.PasswordHash,
		now,
	)

	return scanAccount(res)
}

func (db *PgRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET display_name = $2, avatar_url = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING "+accountColumns,
		params.UserId,
		params.DisplayName,
		params.AvatarUrl,
		time.Now().UTC(),
	)

	return scanAccount(res)
}

func (db *PgRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1 LIMIT 1",
		accountId,
	)

	return scanAccount(row)
}

func (db *PgRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT "+accountColumns+" FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	return scanAccount(row)
}

func (db *PgRepository) ListAccounts() ([]User, error) {
	rows, err := db.conn.Query("SELECT " + accountColumns + " FROM accounts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgRepository) SetAccountDisabled(accountId int, until *time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET is_disabled = $2, disabled_until = $3, updated_at = $4 WHERE id = $1",
		accountId,
		until != nil,
		until,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) SetAccountBanned(accountId int, banned bool) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET is_banned = $2, updated_at = $3 WHERE id = $1",
		accountId,
		banned,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) UpdateLastSeen(accountId int, t time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET last_seen_at = $2 WHERE id = $1",
		accountId,
		t.UTC(),
	)

	return err
}

func (db *PgRepository) CreateBlock(blockerId, blockedId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO blocks (blocker_id, blocked_id, created_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (blocker_id, blocked_id) DO NOTHING",
		blockerId,
		blockedId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) DeleteBlock(blockerId, blockedId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2",
		blockerId,
		blockedId,
	)

	return err
}

// BlockExistsBetween reports whether either user has blocked the other.
func (db *PgRepository) BlockExistsBetween(a, b int) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT COUNT(*) FROM blocks WHERE (blocker_id = $1 AND blocked_id = $2) "+
			"OR (blocker_id = $2 AND blocked_id = $1)",
		a,
		b,
	)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}
