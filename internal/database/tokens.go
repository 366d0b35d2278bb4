package database

import "time"

// BlacklistToken revokes a token until it would have expired anyway.
func (db *DB) BlacklistToken(jti string, userID int64, expiresAt time.Time) error {
	_, err := db.conn.Exec(
		`INSERT INTO blacklisted_tokens (jti, user_id, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, userID, expiresAt,
	)
	return err
}

func (db *DB) IsTokenBlacklisted(jti string) (bool, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM blacklisted_tokens WHERE jti = $1", jti).Scan(&n)
	return n > 0, err
}

// PurgeExpiredTokens drops blacklist rows whose tokens have expired on
// their own.
func (db *DB) PurgeExpiredTokens() error {
	_, err := db.conn.Exec("DELETE FROM blacklisted_tokens WHERE expires_at < NOW()")
	return err
}
