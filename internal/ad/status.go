package ad

import "time"

// AccountStatus is a snapshot of an account's state derived from the
// domain's policy attributes and the user's attributes. It has no identity
// of its own and is recomputed on every query.
type AccountStatus struct {
	AccountIsDisabled    bool       `json:"account_is_disabled"`
	AccountIsLockedOut   bool       `json:"account_is_locked_out"`
	AccountIsUnlockedOn  *time.Time `json:"account_is_unlocked_on"`
	PasswordCanBeSetOn   *time.Time `json:"password_can_be_set_on"`
	PasswordExpiresOn    *time.Time `json:"password_expires_on"`
	PasswordLastSetOn    *time.Time `json:"password_last_set_on"`
	PasswordNeverExpires bool       `json:"password_never_expires"`
}

// IsAccountLockedOut reports whether the account is still inside its
// lockout window. A lockoutTime carrying the zero sentinel means the
// account was never locked.
func IsAccountLockedOut(lockoutTime time.Time, lockoutDuration time.Duration) bool {
	return isAccountLockedOutAt(lockoutTime, lockoutDuration, time.Now().UTC())
}

func isAccountLockedOutAt(lockoutTime time.Time, lockoutDuration time.Duration, now time.Time) bool {
	if FiletimeUnset(lockoutTime) {
		return false
	}
	return lockoutTime.Add(lockoutDuration).After(now)
}

// GetUnlockDate returns when the account unlocks, or nil when the account
// is not currently locked out.
func GetUnlockDate(lockoutTime time.Time, lockoutDuration time.Duration) *time.Time {
	return getUnlockDateAt(lockoutTime, lockoutDuration, time.Now().UTC())
}

func getUnlockDateAt(lockoutTime time.Time, lockoutDuration time.Duration, now time.Time) *time.Time {
	if !isAccountLockedOutAt(lockoutTime, lockoutDuration, now) {
		return nil
	}
	when := lockoutTime.Add(lockoutDuration)
	return &when
}

// GetPasswordExpirationDate returns when the password expires. Nil means
// it never does: the domain's maximum age is the "never" sentinel, the
// user must change their password at next logon (pwdLastSet unset), or the
// never-expires flag is set on the account.
func GetPasswordExpirationDate(maxPwdAge time.Duration, maxPwdAgeNever bool, pwdLastSet time.Time, userAccountControl int64) *time.Time {
	if maxPwdAgeNever || FiletimeUnset(pwdLastSet) || IsPasswordNeverExpiresSet(userAccountControl) {
		return nil
	}
	when := pwdLastSet.Add(maxPwdAge)
	return &when
}

// GetWhenPasswordCanBeSet returns the earliest instant the password may be
// changed again, or nil when it can be changed now.
func GetWhenPasswordCanBeSet(minPwdAge time.Duration, pwdLastSet time.Time) *time.Time {
	return getWhenPasswordCanBeSetAt(minPwdAge, pwdLastSet, time.Now().UTC())
}

func getWhenPasswordCanBeSetAt(minPwdAge time.Duration, pwdLastSet time.Time, now time.Time) *time.Time {
	if minPwdAge == 0 {
		return nil
	}
	when := pwdLastSet.Add(minPwdAge)
	if when.Before(now) {
		return nil
	}
	return &when
}
