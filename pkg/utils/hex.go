package utils

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-errors/errors"
)

// DecodeHex decodes exactly size bytes from str. Anything other than 2*size
// hex digits is rejected.
func DecodeHex(str string, size int) ([]byte, error) {
	if utf8.RuneCountInString(str) != size*2 {
		return nil, errors.Errorf("expected %d hex characters, got %d in %q", size*2, utf8.RuneCountInString(str), str)
	}
	decoded, err := hex.DecodeString(str)
	if err != nil {
		return nil, errors.Errorf("%q is not hex: %s", str, err)
	}
	return decoded, nil
}

// FormatBytes formats each byte with format and follows it with separator,
// so "0x%02x" and " " give "0x01 0x02 ".
func FormatBytes(b []byte, format, separator string) string {
	var sb strings.Builder
	for _, value := range b {
		sb.WriteString(fmt.Sprintf(format, value))
		sb.WriteString(separator)
	}
	return sb.String()
}
