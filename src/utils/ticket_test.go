package utils

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTier(t *testing.T) {
	cases := map[string]string{
		"":            "Normal",
		"normal":      "Normal",
		"NORMAL":      "Normal",
		"vip":         "VIP",
		"Vip":         "VIP",
		"VIP":         "VIP",
		"vvip":        "VVIP",
		"VVIP Lounge": "VVIP",
		"early bird":  "Early Bird",
		"  regular ":  "Regular",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeTier(in), in)
	}
}

func TestGenerateTicketID(t *testing.T) {
	assert.Equal(t, "Normal ticket 1", GenerateTicketID("", 1))
	assert.Equal(t, "VIP ticket 12", GenerateTicketID("vip", 12))
	assert.Equal(t, GenerateTicketID("Vip", 4), GenerateTicketID("VIP", 4))
	assert.Equal(t, "VVIP ticket 2", GenerateTicketID("vvip", 2))
}

func TestNormalizeTierMultibyte(t *testing.T) {
	got := GenerateTicketID("élite", 1)
	assert.Equal(t, "Élite ticket 1", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Ärzte Reihe", NormalizeTier("ÄRZTE reihe"))
}

func TestIsClaimCode(t *testing.T) {
	assert.True(t, IsClaimCode("SDE23KL90M"))
	assert.True(t, IsClaimCode("sde23kl90m"))
	assert.False(t, IsClaimCode("SDE23KL90"))
	assert.False(t, IsClaimCode("SDE23KL90MX"))
	assert.False(t, IsClaimCode("SDE23-L90M"))
}

func TestNormalizeClaimKey(t *testing.T) {
	assert.Equal(t, "SDE23KL90M", NormalizeClaimKey(" sde23kl90m "))
}
