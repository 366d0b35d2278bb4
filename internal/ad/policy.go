package ad

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/go-ldap/ldap/v3"

	"adreset/internal/config"
)

// The matching rule OID for transitive (nested) group evaluation,
// LDAP_MATCHING_RULE_IN_CHAIN.
const matchingRuleInChain = "1.2.840.113556.1.4.1941"

const userNotFoundMsg = "The user couldn't be found in Active Directory"

// directory is the slice of Session the policy engine needs. It exists so
// the engine's policy logic can be exercised against a fake directory.
type directory interface {
	Search(filter string, attributes []string, strict bool) ([]*ldap.Entry, error)
	GetAttributes(samAccountName string, attributes []string) (Attributes, error)
	GetDomainAttributes(attributes []string) (Attributes, error)
	ModifyReplace(dn, attribute, value string) error
}

// Engine implements the Active Directory policy decisions on top of a
// bound session: identity resolution, password policy, group membership,
// account status, and the privileged reset itself. Build one engine per
// session and discard them together.
type Engine struct {
	dir directory
	cfg config.ADConfig

	// The domain's minimum password length rarely changes; fetch it once
	// per session.
	minPwdLength *int64
}

func NewEngine(dir directory, cfg config.ADConfig) *Engine {
	return &Engine{dir: dir, cfg: cfg}
}

// GUID resolves an object's GUID in dashed string form. An unknown
// sAMAccountName yields an empty string, not an error.
func (e *Engine) GUID(samAccountName string) (string, error) {
	attrs, err := e.dir.GetAttributes(samAccountName, []string{"objectGUID"})
	if err != nil {
		return "", err
	}
	raw := attrs.Raw("objectGUID")
	if raw == nil {
		return "", nil
	}
	guid, err := guidFromBytes(raw)
	if err != nil {
		log.Printf("ad: decoding the objectGUID of %q failed: %v", samAccountName, err)
		return "", &ADError{Msg: failedSearchMsg}
	}
	return guid, nil
}

// DN resolves an object's distinguished name. An unknown sAMAccountName
// yields an empty string, not an error.
func (e *Engine) DN(samAccountName string) (string, error) {
	attrs, err := e.dir.GetAttributes(samAccountName, []string{"distinguishedName"})
	if err != nil {
		return "", err
	}
	return attrs.Value("distinguishedName"), nil
}

// SAMAccountNameFromGUID resolves a previously issued GUID back to the
// account's logon name. The caller is expected to hold a valid GUID, so a
// miss here is a hard error.
func (e *Engine) SAMAccountNameFromGUID(guid string) (string, error) {
	value, err := guidFilterValue(guid)
	if err != nil {
		log.Printf("ad: %q is not a valid GUID: %v", guid, err)
		return "", &ADError{Msg: userNotFoundMsg}
	}
	filter := fmt.Sprintf("(&(objectClass=user)(objectGUID=%s))", value)
	entries, err := e.dir.Search(filter, []string{"sAMAccountName"}, false)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		log.Printf("ad: no user with the GUID %q could be found", guid)
		return "", &ADError{Msg: userNotFoundMsg}
	}
	return entries[0].GetAttributeValue("sAMAccountName"), nil
}

// MinPasswordLength returns the domain's minimum password length,
// memoized for the life of the engine.
func (e *Engine) MinPasswordLength() (int64, error) {
	if e.minPwdLength != nil {
		return *e.minPwdLength, nil
	}
	attrs, err := e.dir.GetDomainAttributes([]string{"minPwdLength"})
	if err != nil {
		return 0, err
	}
	n, ok := attrs.Int64("minPwdLength")
	if !ok {
		return 0, &ADError{Msg: failedSearchMsg}
	}
	e.minPwdLength = &n
	return n, nil
}

// PasswordComplexityRequired reports whether the domain enforces password
// complexity (a non-zero pwdProperties).
func (e *Engine) PasswordComplexityRequired() (bool, error) {
	attrs, err := e.dir.GetDomainAttributes([]string{"pwdProperties"})
	if err != nil {
		return false, err
	}
	n, ok := attrs.Int64("pwdProperties")
	if !ok {
		return false, &ADError{Msg: failedSearchMsg}
	}
	return n != 0, nil
}

// MatchesMinLength reports whether the password meets the domain's
// minimum length.
func (e *Engine) MatchesMinLength(password string) (bool, error) {
	min, err := e.MinPasswordLength()
	if err != nil {
		return false, err
	}
	return int64(utf8.RuneCountInString(password)) >= min, nil
}

// MatchesComplexity reports whether the password satisfies the domain's
// complexity rule: when complexity is required, at least three of the four
// character categories must be present.
func (e *Engine) MatchesComplexity(password string) (bool, error) {
	required, err := e.PasswordComplexityRequired()
	if err != nil {
		return false, err
	}
	if !required {
		return true, nil
	}
	return complexityScore(password) >= 3, nil
}

// complexityScore counts the character categories present in the
// password: uppercase, lowercase, digit, and symbol (anything that is not
// a letter, digit, or underscore).
func complexityScore(password string) int {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && r != '_':
			hasSymbol = true
		}
	}
	score := 0
	for _, present := range []bool{hasUpper, hasLower, hasDigit, hasSymbol} {
		if present {
			score++
		}
	}
	return score
}

// ResetPassword validates the new password against the domain policy and
// then performs the privileged reset: a unicodePwd replace with no old
// password, followed by clearing lockoutTime. The session must be bound
// with an identity allowed to reset passwords; the domain controller
// rejects the write otherwise. Complexity is checked before length so the
// complexity message wins when both fail.
func (e *Engine) ResetPassword(samAccountName, newPassword string) error {
	ok, err := e.MatchesComplexity(newPassword)
	if err != nil {
		return err
	}
	if !ok {
		return &ValidationError{Msg: "The password did not match the complexity requirements. " +
			"Please ensure your password contains at least three of the four requirements: " +
			"lowercase letters, uppercase letters, numbers, and special characters."}
	}
	ok, err = e.MatchesMinLength(newPassword)
	if err != nil {
		return err
	}
	if !ok {
		min, _ := e.MinPasswordLength()
		return &ValidationError{Msg: fmt.Sprintf("The password must be at least %d characters long", min)}
	}

	dn, err := e.DN(samAccountName)
	if err != nil {
		return err
	}
	if dn == "" {
		return &ADError{Msg: userNotFoundMsg}
	}
	if err := e.dir.ModifyReplace(dn, "unicodePwd", encodePassword(newPassword)); err != nil {
		return err
	}
	if err := e.dir.ModifyReplace(dn, "lockoutTime", "0"); err != nil {
		return err
	}
	log.Printf("ad: the password for %q was reset", samAccountName)
	return nil
}

// encodePassword produces the unicodePwd wire value: the password wrapped
// in double quotes and encoded as UTF-16LE.
func encodePassword(password string) string {
	quoted := `"` + password + `"`
	codes := utf16.Encode([]rune(quoted))
	b := make([]byte, 0, len(codes)*2)
	for _, c := range codes {
		b = append(b, byte(c), byte(c>>8))
	}
	return string(b)
}

// CheckGroupMembership reports whether the account belongs to the group,
// directly or through nesting. The primary group is never listed in
// memberOf, so when the transitive search misses, the account's
// primaryGroupID is combined with the domain SID and the resulting group's
// DN is compared (case-insensitively, as DNs are) against the target.
func (e *Engine) CheckGroupMembership(samAccountName, groupName string) (bool, error) {
	groupDN, err := e.DN(groupName)
	if err != nil {
		return false, err
	}
	if groupDN == "" {
		log.Printf("ad: the group %q could not be found", groupName)
		return false, &ADError{Msg: failedSearchMsg}
	}

	filter := fmt.Sprintf("(&(objectClass=user)(memberOf:%s:=%s))",
		matchingRuleInChain, ldap.EscapeFilter(groupDN))
	entries, err := e.dir.Search(filter, []string{"sAMAccountName"}, false)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.GetAttributeValue("sAMAccountName"), samAccountName) {
			return true, nil
		}
	}

	primaryGroupDN, err := e.primaryGroupDN(samAccountName)
	if err != nil {
		return false, err
	}
	return primaryGroupDN != "" && strings.EqualFold(primaryGroupDN, groupDN), nil
}

// primaryGroupDN resolves the DN of the account's primary group by
// synthesizing its SID from the domain SID and the account's
// primaryGroupID RID.
func (e *Engine) primaryGroupDN(samAccountName string) (string, error) {
	attrs, err := e.dir.GetAttributes(samAccountName, []string{"primaryGroupID"})
	if err != nil {
		return "", err
	}
	rid, ok := attrs.Int64("primaryGroupID")
	if !ok {
		return "", nil
	}

	domainAttrs, err := e.dir.GetDomainAttributes([]string{"objectSid"})
	if err != nil {
		return "", err
	}
	raw := domainAttrs.Raw("objectSid")
	if raw == nil {
		log.Print("ad: the domain's objectSid could not be found")
		return "", &ADError{Msg: failedSearchMsg}
	}
	domainSID, err := sidString(raw)
	if err != nil {
		log.Printf("ad: decoding the domain SID failed: %v", err)
		return "", &ADError{Msg: failedSearchMsg}
	}

	filter := fmt.Sprintf("(&(objectClass=group)(objectSid=%s-%d))", domainSID, rid)
	entries, err := e.dir.Search(filter, []string{"distinguishedName"}, false)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	return entries[0].GetAttributeValue("distinguishedName"), nil
}

// CheckUserGroupMembership reports whether the account behind the GUID is
// in any of the configured end-user groups.
func (e *Engine) CheckUserGroupMembership(userGUID string) (bool, error) {
	return e.checkAnyGroupMembership(userGUID, e.cfg.UserGroups)
}

// CheckAdminGroupMembership reports whether the account behind the GUID is
// in any of the configured administrator groups.
func (e *Engine) CheckAdminGroupMembership(userGUID string) (bool, error) {
	return e.checkAnyGroupMembership(userGUID, e.cfg.AdminGroups)
}

func (e *Engine) checkAnyGroupMembership(userGUID string, groups []string) (bool, error) {
	samAccountName, err := e.SAMAccountNameFromGUID(userGUID)
	if err != nil {
		return false, err
	}
	for _, group := range groups {
		member, err := e.CheckGroupMembership(samAccountName, group)
		if err != nil {
			return false, err
		}
		if member {
			return true, nil
		}
	}
	return false, nil
}

// GetAccountStatus composes one domain fetch and one user fetch into an
// AccountStatus. A nil status with a nil error means the user does not
// exist.
func (e *Engine) GetAccountStatus(samAccountName string) (*AccountStatus, error) {
	log.Printf("ad: getting the account status for %q", samAccountName)
	domainAttrs, err := e.dir.GetDomainAttributes(
		[]string{"lockoutDuration", "maxPwdAge", "minPwdAge", "minPwdLength", "pwdProperties"})
	if err != nil {
		return nil, err
	}
	userAttrs, err := e.dir.GetAttributes(
		samAccountName, []string{"lockoutTime", "pwdLastSet", "userAccountControl"})
	if err != nil {
		return nil, err
	}
	if userAttrs.Empty() {
		return nil, nil
	}

	lockoutTicks, _ := userAttrs.Int64("lockoutTime")
	lastSetTicks, _ := userAttrs.Int64("pwdLastSet")
	uac, _ := userAttrs.Int64("userAccountControl")
	lockoutDurTicks, _ := domainAttrs.Int64("lockoutDuration")
	maxAgeTicks, _ := domainAttrs.Int64("maxPwdAge")
	minAgeTicks, _ := domainAttrs.Int64("minPwdAge")

	lockoutTime := TimeFromFiletime(lockoutTicks)
	pwdLastSet := TimeFromFiletime(lastSetTicks)
	lockoutDuration, _ := DurationFromFiletime(lockoutDurTicks)
	maxPwdAge, maxPwdAgeNever := DurationFromFiletime(maxAgeTicks)
	minPwdAge, _ := DurationFromFiletime(minAgeTicks)

	var lastSetOn *time.Time
	if !FiletimeUnset(pwdLastSet) {
		lastSetOn = &pwdLastSet
	}

	return &AccountStatus{
		AccountIsDisabled:    IsAccountDisabled(uac),
		AccountIsLockedOut:   IsAccountLockedOut(lockoutTime, lockoutDuration),
		AccountIsUnlockedOn:  GetUnlockDate(lockoutTime, lockoutDuration),
		PasswordCanBeSetOn:   GetWhenPasswordCanBeSet(minPwdAge, pwdLastSet),
		PasswordExpiresOn:    GetPasswordExpirationDate(maxPwdAge, maxPwdAgeNever, pwdLastSet, uac),
		PasswordLastSetOn:    lastSetOn,
		PasswordNeverExpires: IsPasswordNeverExpiresSet(uac),
	}, nil
}
