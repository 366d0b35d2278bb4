package database

import (
	"context"
	"database/sql"
	"time"

	"adreset/internal/model"
)

func (db *DB) GetUserByGUID(guid string) (*model.User, error) {
	u := &model.User{}
	err := db.conn.QueryRow(
		"SELECT id, ad_guid, created_at FROM users WHERE ad_guid = $1", guid,
	).Scan(&u.ID, &u.ADGuid, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// EnsureUser returns the user row for the GUID, creating it on first
// login.
func (db *DB) EnsureUser(guid string) (*model.User, error) {
	u := &model.User{}
	err := db.conn.QueryRow(
		`INSERT INTO users (ad_guid) VALUES ($1)
		 ON CONFLICT (ad_guid) DO UPDATE SET ad_guid = EXCLUDED.ad_guid
		 RETURNING id, ad_guid, created_at`, guid,
	).Scan(&u.ID, &u.ADGuid, &u.CreatedAt)
	return u, err
}

// CountFailedAttemptsSince counts the user's failed reset attempts
// recorded at or after the given instant.
func (db *DB) CountFailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM failed_attempts WHERE user_id = $1 AND attempted_at >= $2",
		userID, since,
	).Scan(&n)
	return n, err
}

// AddFailedAttempt records one failed reset attempt.
func (db *DB) AddFailedAttempt(ctx context.Context, userID int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO failed_attempts (user_id, attempted_at) VALUES ($1, $2)",
		userID, at,
	)
	return err
}

// PruneFailedAttempts deletes attempts older than the cutoff. Old rows no
// longer influence the lockout window; this is housekeeping only.
func (db *DB) PruneFailedAttempts(before time.Time) error {
	_, err := db.conn.Exec("DELETE FROM failed_attempts WHERE attempted_at < $1", before)
	return err
}
