package ad

import "testing"

func TestSidString(t *testing.T) {
	sid := []byte{
		0x01, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05,
		0x15, 0x00, 0x00, 0x00,
		0x3D, 0x12, 0xB7, 0x4B,
		0x45, 0xA7, 0x8D, 0xE2,
		0x77, 0x5A, 0xFF, 0xB3,
	}
	got, err := sidString(sid)
	if err != nil {
		t.Fatalf("sidString returned an error: %v", err)
	}
	want := "S-1-5-21-1270288957-3800934213-3019856503"
	if got != want {
		t.Errorf("sidString = %s, want %s", got, want)
	}
}

func TestSidStringWellKnown(t *testing.T) {
	// S-1-1-0, Everyone
	sid := []byte{0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}
	got, err := sidString(sid)
	if err != nil {
		t.Fatalf("sidString returned an error: %v", err)
	}
	if got != "S-1-1-0" {
		t.Errorf("sidString = %s, want S-1-1-0", got)
	}
}

func TestSidStringInvalid(t *testing.T) {
	tests := []struct {
		name string
		sid  []byte
	}{
		{"empty", nil},
		{"too short", []byte{0x01, 0x01, 0x00}},
		{"truncated sub-authorities", []byte{0x01, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05, 0x15, 0x00}},
	}
	for _, tt := range tests {
		if _, err := sidString(tt.sid); err == nil {
			t.Errorf("sidString(%s) did not return an error", tt.name)
		}
	}
}
