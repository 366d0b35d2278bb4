package lockout

import (
	"context"
	"testing"
	"time"
)

// fakeStore keeps attempts in memory and answers count queries the way
// the database does: only attempts at or after the cutoff count.
type fakeStore struct {
	attempts map[int64][]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{attempts: map[int64][]time.Time{}}
}

func (s *fakeStore) CountFailedAttemptsSince(_ context.Context, userID int64, since time.Time) (int, error) {
	n := 0
	for _, at := range s.attempts[userID] {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) AddFailedAttempt(_ context.Context, userID int64, at time.Time) error {
	s.attempts[userID] = append(s.attempts[userID], at)
	return nil
}

func TestTrackerLocksAtThreshold(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(store, 15, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := tracker.RecordFailure(ctx, 1); err != nil {
			t.Fatalf("RecordFailure returned an error: %v", err)
		}
		locked, err := tracker.IsLockedOut(ctx, 1)
		if err != nil {
			t.Fatalf("IsLockedOut returned an error: %v", err)
		}
		if locked {
			t.Fatalf("locked out after %d failures, threshold is 3", i+1)
		}
	}

	if err := tracker.RecordFailure(ctx, 1); err != nil {
		t.Fatalf("RecordFailure returned an error: %v", err)
	}
	locked, err := tracker.IsLockedOut(ctx, 1)
	if err != nil {
		t.Fatalf("IsLockedOut returned an error: %v", err)
	}
	if !locked {
		t.Error("not locked out after reaching the threshold")
	}
}

func TestTrackerIsPerUser(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(store, 15, 1)
	ctx := context.Background()

	if err := tracker.RecordFailure(ctx, 1); err != nil {
		t.Fatal(err)
	}
	locked, err := tracker.IsLockedOut(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if locked {
		t.Error("one user's failures locked out another user")
	}
}

func TestTrackerWindowExpiry(t *testing.T) {
	store := newFakeStore()
	tracker := NewTracker(store, 15, 2)
	ctx := context.Background()

	old := time.Now().UTC().Add(-16 * time.Minute)
	store.attempts[1] = []time.Time{old, old}

	locked, err := tracker.IsLockedOut(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if locked {
		t.Error("attempts outside the window still count toward the lockout")
	}

	if err := tracker.RecordFailure(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := tracker.RecordFailure(ctx, 1); err != nil {
		t.Fatal(err)
	}
	locked, err = tracker.IsLockedOut(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !locked {
		t.Error("fresh attempts at the threshold did not lock the user out")
	}
}
