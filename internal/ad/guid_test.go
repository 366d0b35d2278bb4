package ad

import (
	"bytes"
	"testing"
)

func TestGUIDRoundTrip(t *testing.T) {
	raw := []byte{
		0x4f, 0xbd, 0x6d, 0x03, // little-endian first field
		0x4c, 0x2b,
		0xd2, 0x11,
		0x9f, 0xe8, 0x00, 0xc0, 0x4f, 0xd9, 0x2f, 0x8b,
	}
	guid, err := guidFromBytes(raw)
	if err != nil {
		t.Fatalf("guidFromBytes returned an error: %v", err)
	}
	want := "036dbd4f-2b4c-11d2-9fe8-00c04fd92f8b"
	if guid != want {
		t.Errorf("guidFromBytes = %s, want %s", guid, want)
	}

	back, err := guidToBytes(guid)
	if err != nil {
		t.Fatalf("guidToBytes returned an error: %v", err)
	}
	if !bytes.Equal(back, raw) {
		t.Errorf("guidToBytes = % x, want % x", back, raw)
	}
}

func TestGUIDToBytesStripsBraces(t *testing.T) {
	plain, err := guidToBytes("036dbd4f-2b4c-11d2-9fe8-00c04fd92f8b")
	if err != nil {
		t.Fatalf("guidToBytes returned an error: %v", err)
	}
	braced, err := guidToBytes("{036dbd4f-2b4c-11d2-9fe8-00c04fd92f8b}")
	if err != nil {
		t.Fatalf("guidToBytes rejected a braced GUID: %v", err)
	}
	if !bytes.Equal(plain, braced) {
		t.Error("braced and plain forms decoded differently")
	}
}

func TestGUIDFromBytesWrongLength(t *testing.T) {
	if _, err := guidFromBytes([]byte{1, 2, 3}); err == nil {
		t.Error("guidFromBytes accepted a 3-byte value")
	}
}

func TestGUIDFilterValue(t *testing.T) {
	got, err := guidFilterValue("036dbd4f-2b4c-11d2-9fe8-00c04fd92f8b")
	if err != nil {
		t.Fatalf("guidFilterValue returned an error: %v", err)
	}
	want := `\4f\bd\6d\03\4c\2b\d2\11\9f\e8\00\c0\4f\d9\2f\8b`
	if got != want {
		t.Errorf("guidFilterValue = %s, want %s", got, want)
	}

	if _, err := guidFilterValue("not-a-guid"); err == nil {
		t.Error("guidFilterValue accepted an invalid GUID")
	}
}
