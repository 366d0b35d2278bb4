package ad

// userAccountControl bit flags. See the Microsoft documentation on
// manipulating account properties with userAccountControl.
const (
	uacAccountDisabled    = 0x0002
	uacDontExpirePassword = 0x10000
)

// IsAccountDisabled reports whether the ACCOUNTDISABLE flag is set.
func IsAccountDisabled(userAccountControl int64) bool {
	return userAccountControl&uacAccountDisabled == uacAccountDisabled
}

// IsPasswordNeverExpiresSet reports whether the DONT_EXPIRE_PASSWORD flag
// is set.
func IsPasswordNeverExpiresSet(userAccountControl int64) bool {
	return userAccountControl&uacDontExpirePassword == uacDontExpirePassword
}
