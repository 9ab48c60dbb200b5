package utils

import (
	"testing"

	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneEquivalentForms(t *testing.T) {
	for _, raw := range []string{"0712345678", "+254712345678", "254712345678", "+254 712 345 678", "712345678"} {
		got, err := NormalizePhone(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "254712345678", got, raw)
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	for _, raw := range []string{"0712345678", "+254 (794) 173-314", "110000000", "254110000000"} {
		once, err := NormalizePhone(raw)
		require.NoError(t, err)
		twice, err := NormalizePhone(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, raw)
	}
}

func TestNormalizePhoneRejectsEmpty(t *testing.T) {
	_, err := NormalizePhone("+ -- ()")
	assert.ErrorIs(t, err, types.ErrInvalidPhoneFormat)
	_, err = NormalizePhone("")
	assert.ErrorIs(t, err, types.ErrInvalidPhoneFormat)
}

func TestWithSuffix(t *testing.T) {
	t.Setenv("API_ENV", "production")
	assert.Equal(t, "BookingConfirmed", WithSuffix("BookingConfirmed"))
	t.Setenv("API_ENV", "test")
	assert.Equal(t, "BookingConfirmed_test", WithSuffix("BookingConfirmed"))
}
