// Package lockout throttles password reset attempts per local user. It
// only holds the threshold policy; the failed attempts themselves live in
// whatever store the caller supplies. Check-then-insert is not atomic
// across concurrent resets, which is acceptable: the lockout is a
// best-effort throttle, not a security boundary on its own.
package lockout

import (
	"context"
	"time"
)

// AttemptStore is the persistence the tracker reads and writes.
type AttemptStore interface {
	// CountFailedAttemptsSince counts the user's failed attempts recorded
	// at or after the given instant.
	CountFailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	// AddFailedAttempt records one failed attempt at the given instant.
	AddFailedAttempt(ctx context.Context, userID int64, at time.Time) error
}

type Tracker struct {
	store     AttemptStore
	window    time.Duration
	threshold int
}

func NewTracker(store AttemptStore, lockoutMinutes, attemptsBeforeLockout int) *Tracker {
	return &Tracker{
		store:     store,
		window:    time.Duration(lockoutMinutes) * time.Minute,
		threshold: attemptsBeforeLockout,
	}
}

// IsLockedOut reports whether the user has reached the failure threshold
// inside the rolling window. Attempts older than the window never count.
func (t *Tracker) IsLockedOut(ctx context.Context, userID int64) (bool, error) {
	since := time.Now().UTC().Add(-t.window)
	n, err := t.store.CountFailedAttemptsSince(ctx, userID, since)
	if err != nil {
		return false, err
	}
	return n >= t.threshold, nil
}

// RecordFailure appends a failed attempt for the user at the current
// instant.
func (t *Tracker) RecordFailure(ctx context.Context, userID int64) error {
	return t.store.AddFailedAttempt(ctx, userID, time.Now().UTC())
}
