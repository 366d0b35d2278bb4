package ad

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// sidString decodes a packed security identifier into its canonical text
// form, e.g. S-1-5-21-1270288957-3800934213-3019856503. The layout is one
// revision byte, one sub-authority count byte, a 6-byte big-endian
// authority, then count little-endian 4-byte sub-authorities.
func sidString(sid []byte) (string, error) {
	if len(sid) < 8 {
		return "", fmt.Errorf("sid is %d bytes, need at least 8", len(sid))
	}
	revision := sid[0]
	count := int(sid[1])
	if len(sid) < 8+4*count {
		return "", fmt.Errorf("sid with %d sub-authorities is truncated at %d bytes", count, len(sid))
	}

	var authBytes [8]byte
	copy(authBytes[2:], sid[2:8])
	authority := binary.BigEndian.Uint64(authBytes[:])

	var b strings.Builder
	b.WriteString("S-")
	b.WriteString(strconv.Itoa(int(revision)))
	b.WriteByte('-')
	b.WriteString(strconv.FormatUint(authority, 10))
	for i := 0; i < count; i++ {
		sub := binary.LittleEndian.Uint32(sid[8+4*i:])
		b.WriteByte('-')
		b.WriteString(strconv.FormatUint(uint64(sub), 10))
	}
	return b.String(), nil
}
