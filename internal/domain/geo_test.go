package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		replaced bool
	}{
		{"dhaka", 23.8103, 90.4125, false},
		{"southern edge", 20.5, 88.0, false},
		{"northern edge", 26.7, 92.7, false},
		{"latitude too far north", 27.1, 90.0, true},
		{"latitude too far south", 19.9, 90.0, true},
		{"longitude too far west", 23.0, 87.5, true},
		{"longitude too far east", 23.0, 93.0, true},
		{"zero island", 0, 0, true},
		{"negative coordinates", -23.8, -90.4, true},
		// NaN compares false against every bound, so it must be caught
		// explicitly rather than slipping through the range check.
		{"nan latitude", math.NaN(), 90.0, true},
		{"nan longitude", 23.0, math.NaN(), true},
		{"nan both", math.NaN(), math.NaN(), true},
		{"positive infinity", math.Inf(1), 90.0, true},
		{"negative infinity", 23.0, math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, replaced := NormalizeCoordinates(tt.lat, tt.lon)
			assert.Equal(t, tt.replaced, replaced)
			if tt.replaced {
				assert.Equal(t, DefaultLocation, c)
			} else {
				assert.Equal(t, tt.lat, c.Latitude)
				assert.Equal(t, tt.lon, c.Longitude)
			}
		})
	}
}

func TestRoundCoordinates_Idempotent(t *testing.T) {
	coords := []Coordinates{
		{23.8103, 90.4125},
		{23.815, 90.405},
		{20.5, 88.0},
		{26.699999, 92.700001},
		{23.004999, 90.995},
	}

	for _, c := range coords {
		once := RoundCoordinates(c)
		twice := RoundCoordinates(once)
		assert.Equal(t, once, twice, "rounding must be idempotent for %+v", c)
	}
}

func TestRoundCoordinates(t *testing.T) {
	c := RoundCoordinates(Coordinates{Latitude: 23.8103, Longitude: 90.4168})
	assert.Equal(t, 23.81, c.Latitude)
	assert.Equal(t, 90.42, c.Longitude)
}

func TestCacheKey(t *testing.T) {
	key := CacheKey(RoundCoordinates(Coordinates{Latitude: 23.8103, Longitude: 90.4125}))
	assert.Equal(t, "23.81,90.41", key)

	// Nearby points inside the same rounding cell share a key.
	other := CacheKey(RoundCoordinates(Coordinates{Latitude: 23.8097, Longitude: 90.4132}))
	assert.Equal(t, key, other)
}
