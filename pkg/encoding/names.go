// Package encoding provides the fixed-size string codec used for MOD3
// material names.
package encoding

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ErrNameTooLong is returned when an encoded name does not fit its field.
var ErrNameTooLong = errors.New("name does not fit fixed-size field")

// TrimNull cuts data at the first null byte.
func TrimNull(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

// DecodeName converts a null-padded field to a UTF-8 string. Bytes that are
// not valid UTF-8 are decoded as Shift-JIS; on failure the raw bytes are kept.
func DecodeName(data []byte) string {
	data = TrimNull(data)
	if utf8.Valid(data) {
		return string(data)
	}
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// EncodeName encodes s as Shift-JIS into a null-padded field of size bytes.
// ASCII names are stored unchanged.
func EncodeName(s string, size int) ([]byte, error) {
	encoded, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	if len(encoded) > size {
		return nil, ErrNameTooLong
	}
	field := make([]byte, size)
	copy(field, encoded)
	return field, nil
}

// FitsField reports whether s can be stored in a field of size bytes.
func FitsField(s string, size int) bool {
	_, err := EncodeName(s, size)
	return err == nil
}
