package domain

import "time"

// Snapshot source values, recorded on the snapshot handed back to callers.
const (
	SourceOpenWeather = "openweather" // fetched fresh from the upstream provider
	SourceCache       = "cache"       // served from the snapshot store
)

// Retrieval provenance values. Provenance describes how a particular request
// was satisfied; it travels on the returned value and is never persisted.
const (
	ProvenanceMiss    = "miss"    // cache miss, fresh upstream fetch
	ProvenanceHit     = "hit"     // fresh cache hit
	ProvenanceExpired = "expired" // stale fallback after quota exhaustion or upstream failure
)

// WeatherSnapshot is one immutable weather observation tied to rounded
// coordinates. Multiple snapshots may exist for the same cache key over time;
// retrieval always wants the freshest non-expired one within the proximity
// radius.
type WeatherSnapshot struct {
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lon"`
	Temperature   float64   `json:"temperature"` // °C
	FeelsLike     float64   `json:"feels_like"`
	Humidity      float64   `json:"humidity"` // %
	Pressure      float64   `json:"pressure"` // hPa
	WindSpeed     float64   `json:"wind_speed"` // m/s
	WindDirection float64   `json:"wind_direction"`
	Rainfall      float64   `json:"rainfall"` // mm over the last hour
	Condition     string    `json:"condition"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	Visibility    float64   `json:"visibility"`
	Cloudiness    float64   `json:"cloudiness"`
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`
	FetchedAt     time.Time `json:"fetched_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Source        string    `json:"source"`
	Provenance    string    `json:"provenance,omitempty"`
	APICallCount  int       `json:"api_call_count"`
}

// Expired reports whether the snapshot's TTL has passed at the given instant.
func (s WeatherSnapshot) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
