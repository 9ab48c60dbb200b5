package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_ENV", "test")
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(600), c.Capacity)
	assert.Equal(t, "254794173314", c.AdminPhone)
	assert.Equal(t, 15*time.Minute, c.PendingTTL)
	assert.Equal(t, map[string]float64{"Normal": 200, "VIP": 500, "VVIP": 1000}, c.TierPrices())
	assert.False(t, c.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_ENV", "production")
	t.Setenv("CAPACITY", "10")
	t.Setenv("ADMIN_PHONE", "+254700000001")
	t.Setenv("TIER_PRICE_VIP", "750")
	c, err := Load()
	require.NoError(t, err)

	assert.True(t, c.IsProduction())
	assert.Equal(t, int64(10), c.Capacity)
	assert.Equal(t, "254700000001", c.AdminPhone)
	assert.Equal(t, 750.0, c.TierPrices()["VIP"])
}

func TestFindEvent(t *testing.T) {
	c := &Config{Capacity: 600, TierPriceNormal: 200, Currency: "KES"}

	e, ok := c.FindEvent("the-grey-pageant")
	require.True(t, ok)
	assert.Equal(t, DefaultEventName, e.Name)
	assert.Equal(t, 2026, e.DateTime.Year())

	e, ok = c.FindEvent("The Grey Pageant")
	require.True(t, ok)
	assert.Len(t, e.Tiers, 3)

	_, ok = c.FindEvent("unknown show")
	assert.False(t, ok)
}
