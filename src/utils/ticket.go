package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var claimCodeRegex = regexp.MustCompile(`(?i)^[A-Z0-9]{10}$`)

// IsClaimCode reports whether code looks like a manually typed transaction code.
func IsClaimCode(code string) bool {
	return claimCodeRegex.MatchString(strings.TrimSpace(code))
}

// NormalizeTier maps a raw tier name to its display form. VVIP is matched before VIP.
func NormalizeTier(tier string) string {
	t := strings.TrimSpace(tier)
	if t == "" {
		return "Normal"
	}
	upper := strings.ToUpper(t)
	switch {
	case strings.Contains(upper, "VVIP"):
		return "VVIP"
	case strings.Contains(upper, "VIP"):
		return "VIP"
	case upper == "NORMAL":
		return "Normal"
	}
	words := strings.Fields(strings.ToLower(t))
	for i, w := range words {
		r, n := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[n:]
	}
	return strings.Join(words, " ")
}

// GenerateTicketID returns the label printed on a ticket, e.g. "VIP ticket 3".
func GenerateTicketID(tier string, seq int64) string {
	return fmt.Sprintf("%s ticket %d", NormalizeTier(tier), seq)
}
