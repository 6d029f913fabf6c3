package domain

import (
	"fmt"
	"math"
)

// Bangladesh bounding box. Coordinates outside it are replaced with the
// default location rather than rejected.
const (
	MinLatitude  = 20.5
	MaxLatitude  = 26.7
	MinLongitude = 88.0
	MaxLongitude = 92.7
)

// coordinatePrecision is the number of decimal places kept when rounding.
// Two decimals group observations within roughly one kilometre, which is the
// granularity the weather cache keys on.
const coordinatePrecision = 100

// DefaultLocation is used when input coordinates fall outside the service
// area. Overridable at startup from configuration; defaults to Dhaka.
var DefaultLocation = Coordinates{Latitude: 23.81, Longitude: 90.41}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// NormalizeCoordinates validates a coordinate pair against the service area.
// Out-of-range or non-finite input yields the default location and
// replaced=true; callers log the substitution. NaN must be caught explicitly:
// it compares false against the bounding box, and downstream it would match
// every proximity check.
func NormalizeCoordinates(lat, lon float64) (c Coordinates, replaced bool) {
	if !finite(lat) || !finite(lon) ||
		lat < MinLatitude || lat > MaxLatitude || lon < MinLongitude || lon > MaxLongitude {
		return DefaultLocation, true
	}
	return Coordinates{Latitude: lat, Longitude: lon}, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RoundCoordinates rounds both components to two decimal places. Idempotent:
// RoundCoordinates(RoundCoordinates(c)) == RoundCoordinates(c).
func RoundCoordinates(c Coordinates) Coordinates {
	return Coordinates{
		Latitude:  math.Round(c.Latitude*coordinatePrecision) / coordinatePrecision,
		Longitude: math.Round(c.Longitude*coordinatePrecision) / coordinatePrecision,
	}
}

// CacheKey derives the stable string key the weather cache and the in-flight
// request registry share for a rounded coordinate pair.
func CacheKey(c Coordinates) string {
	return fmt.Sprintf("%.2f,%.2f", c.Latitude, c.Longitude)
}
