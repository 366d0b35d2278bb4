package ad

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Active Directory stores objectGUID with the first three fields
// little-endian, unlike the canonical big-endian text form. These helpers
// convert between the wire bytes and the dashed string form. Some tooling
// hands GUIDs around wrapped in braces; those are stripped on input.

func guidFromBytes(raw []byte) (string, error) {
	if len(raw) != 16 {
		return "", fmt.Errorf("objectGUID is %d bytes, want 16", len(raw))
	}
	var b [16]byte
	copy(b[:], raw)
	swapGUIDFields(b[:])
	u, err := uuid.FromBytes(b[:])
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func guidToBytes(guid string) ([]byte, error) {
	u, err := uuid.Parse(strings.Trim(guid, "{}"))
	if err != nil {
		return nil, err
	}
	b := [16]byte(u)
	swapGUIDFields(b[:])
	return b[:], nil
}

func swapGUIDFields(b []byte) {
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5] = b[5], b[4]
	b[6], b[7] = b[7], b[6]
}

// guidFilterValue escapes the GUID's wire bytes for use inside an LDAP
// filter.
func guidFilterValue(guid string) (string, error) {
	raw, err := guidToBytes(guid)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range raw {
		fmt.Fprintf(&sb, `\%02x`, b)
	}
	return sb.String(), nil
}
