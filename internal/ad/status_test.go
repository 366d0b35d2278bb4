package ad

import (
	"testing"
	"time"
)

func TestIsAccountLockedOut(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	duration := 30 * time.Minute

	tests := []struct {
		name        string
		lockoutTime time.Time
		want        bool
	}{
		{"never locked", TimeFromFiletime(0), false},
		{"inside the window", now.Add(-10 * time.Minute), true},
		{"window elapsed", now.Add(-time.Hour), false},
		{"window ends exactly now", now.Add(-duration), false},
	}
	for _, tt := range tests {
		if got := isAccountLockedOutAt(tt.lockoutTime, duration, now); got != tt.want {
			t.Errorf("%s: isAccountLockedOutAt = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGetUnlockDate(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	duration := 30 * time.Minute

	lockedAt := now.Add(-10 * time.Minute)
	got := getUnlockDateAt(lockedAt, duration, now)
	if got == nil {
		t.Fatal("getUnlockDateAt returned nil for a locked account")
	}
	if want := lockedAt.Add(duration); !got.Equal(want) {
		t.Errorf("getUnlockDateAt = %v, want %v", got, want)
	}

	if got := getUnlockDateAt(now.Add(-time.Hour), duration, now); got != nil {
		t.Errorf("getUnlockDateAt = %v for an unlocked account, want nil", got)
	}
	if got := getUnlockDateAt(TimeFromFiletime(0), duration, now); got != nil {
		t.Errorf("getUnlockDateAt = %v for a never-locked account, want nil", got)
	}
}

func TestGetPasswordExpirationDate(t *testing.T) {
	lastSet := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxAge := 90 * 24 * time.Hour

	got := GetPasswordExpirationDate(maxAge, false, lastSet, 0)
	if got == nil {
		t.Fatal("GetPasswordExpirationDate returned nil for an expiring password")
	}
	if want := lastSet.Add(maxAge); !got.Equal(want) {
		t.Errorf("GetPasswordExpirationDate = %v, want %v", got, want)
	}

	if got := GetPasswordExpirationDate(maxAge, true, lastSet, 0); got != nil {
		t.Error("a domain with no maximum age still produced an expiration date")
	}
	if got := GetPasswordExpirationDate(maxAge, false, TimeFromFiletime(0), 0); got != nil {
		t.Error("a must-change-at-next-logon password still produced an expiration date")
	}
	if got := GetPasswordExpirationDate(maxAge, false, lastSet, uacDontExpirePassword); got != nil {
		t.Error("a never-expires account still produced an expiration date")
	}
}

func TestGetWhenPasswordCanBeSet(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	minAge := 24 * time.Hour

	lastSet := now.Add(-time.Hour)
	got := getWhenPasswordCanBeSetAt(minAge, lastSet, now)
	if got == nil {
		t.Fatal("getWhenPasswordCanBeSetAt returned nil inside the minimum age")
	}
	if want := lastSet.Add(minAge); !got.Equal(want) {
		t.Errorf("getWhenPasswordCanBeSetAt = %v, want %v", got, want)
	}

	if got := getWhenPasswordCanBeSetAt(minAge, now.Add(-48*time.Hour), now); got != nil {
		t.Error("a password past the minimum age still reported a wait")
	}
	if got := getWhenPasswordCanBeSetAt(0, lastSet, now); got != nil {
		t.Error("a domain with no minimum age still reported a wait")
	}
}

func TestUserAccountControlFlags(t *testing.T) {
	if !IsAccountDisabled(0x0202) {
		t.Error("IsAccountDisabled missed the ACCOUNTDISABLE bit")
	}
	if IsAccountDisabled(0x0200) {
		t.Error("IsAccountDisabled reported a normal account as disabled")
	}
	if !IsPasswordNeverExpiresSet(0x10200) {
		t.Error("IsPasswordNeverExpiresSet missed the DONT_EXPIRE_PASSWORD bit")
	}
	if IsPasswordNeverExpiresSet(0x0200) {
		t.Error("IsPasswordNeverExpiresSet reported a normal account as never expiring")
	}
}
