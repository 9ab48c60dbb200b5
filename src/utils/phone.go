package utils

import (
	"strings"

	"github.com/judy2649/the-grey-pegeant/src/types"
)

const countryCode = "254"

// NormalizePhone converts a Kenyan number in any common form to 2547XXXXXXXX.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", types.ErrInvalidPhoneFormat
	}
	switch {
	case strings.HasPrefix(digits, countryCode):
		return digits, nil
	case strings.HasPrefix(digits, "0"):
		return countryCode + digits[1:], nil
	default:
		return countryCode + digits, nil
	}
}
