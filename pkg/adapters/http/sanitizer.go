package http

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPathSize bounds the text field. Handsets cap a session far below this.
const MaxPathSize = 1024

var (
	ErrPathTooLarge = errors.New("ussd text exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("ussd text contains invalid UTF-8 sequences")
)

// SanitizePath rejects oversized or malformed gateway text and strips
// control characters so they never reach captures or logs.
func SanitizePath(input string) (string, error) {
	if len(input) > MaxPathSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrPathTooLarge, len(input), MaxPathSize)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, unicode.IsControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}
