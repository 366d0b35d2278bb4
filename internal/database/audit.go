package database

import (
	"database/sql"

	"adreset/internal/model"
)

func (db *DB) LogAudit(entry model.AuditEntry) error {
	_, err := db.conn.Exec(
		`INSERT INTO audit_log (username, action, detail, ip_address)
		 VALUES ($1, $2, $3, $4)`,
		entry.Username, entry.Action, entry.Detail, entry.IPAddress,
	)
	return err
}

func (db *DB) ListAuditLog(limit, offset int) ([]model.AuditEntry, int, error) {
	var total int
	_ = db.conn.QueryRow("SELECT COUNT(*) FROM audit_log").Scan(&total)

	rows, err := db.conn.Query(
		`SELECT id, username, action, detail, ip_address, created_at
		 FROM audit_log ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &detail, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
