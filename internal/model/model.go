package model

import "time"

// User ties a local row to an Active Directory account by GUID. The GUID
// is stored as its 36-character string form for easier auditing against
// the directory, and survives account renames.
type User struct {
	ID        int64
	ADGuid    string
	CreatedAt time.Time
}

type Question struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Enabled  bool   `json:"enabled"`
}

// Answer holds the bcrypt hash of a user's secret answer, tied to one
// question.
type Answer struct {
	ID         int64
	UserID     int64
	QuestionID int64
	AnswerHash string
}

// FailedAttempt is one failed answer verification during a reset. Rows are
// never mutated; old ones are pruned as housekeeping.
type FailedAttempt struct {
	ID     int64
	UserID int64
	Time   time.Time
}

// BlacklistedToken is a revoked access token, kept until it would have
// expired anyway.
type BlacklistedToken struct {
	JTI       string
	UserID    int64
	ExpiresAt time.Time
}

type AuditEntry struct {
	ID        int64
	Username  string
	Action    string
	Detail    string
	IPAddress string
	CreatedAt time.Time
}
