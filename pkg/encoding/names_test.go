package encoding

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestTrimNull(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"pl_body\x00\x00\x00", "pl_body"},
		{"pl_body", "pl_body"},
		{"\x00garbage", ""},
	}
	for _, tt := range tests {
		if got := string(TrimNull([]byte(tt.in))); got != tt.want {
			t.Errorf("TrimNull(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeDecodeName(t *testing.T) {
	names := []string{"pl_body_mat", "モデル"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			field, err := EncodeName(name, 128)
			if err != nil {
				t.Fatalf("EncodeName: %v", err)
			}
			if len(field) != 128 {
				t.Fatalf("expected 128-byte field, got %d", len(field))
			}
			if got := DecodeName(field); got != name {
				t.Errorf("DecodeName = %q, want %q", got, name)
			}
		})
	}
}

func TestEncodeNameASCIIUnchanged(t *testing.T) {
	field, err := EncodeName("mat", 8)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(field, []byte("mat\x00\x00\x00\x00\x00")) {
		t.Errorf("unexpected field %q", field)
	}
}

func TestEncodeNameTooLong(t *testing.T) {
	_, err := EncodeName(strings.Repeat("a", 129), 128)
	if !errors.Is(err, ErrNameTooLong) {
		t.Errorf("expected ErrNameTooLong, got %v", err)
	}
	if FitsField(strings.Repeat("a", 129), 128) {
		t.Error("FitsField should reject 129 bytes")
	}
	if !FitsField(strings.Repeat("a", 128), 128) {
		t.Error("FitsField should accept 128 bytes")
	}
}
