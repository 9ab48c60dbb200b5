package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBookingID(t *testing.T) {
	id, err := parseBookingID("42")
	assert.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, arg := range []string{"0", "-1", "abc", ""} {
		_, err := parseBookingID(arg)
		assert.Error(t, err, arg)
	}
}

func TestCommandsAreRegistered(t *testing.T) {
	cmd := bookingsCmd()
	assert.Equal(t, "100", cmd.Flags().Lookup("limit").DefValue)
	assert.NotNil(t, cmd.Flags().ShorthandLookup("s"))

	assert.NotNil(t, verifyCmd().Args)
	assert.Error(t, verifyCmd().Args(verifyCmd(), []string{}))
	assert.NoError(t, resendCmd().Args(resendCmd(), []string{"7"}))
}
