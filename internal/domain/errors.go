package domain

import "errors"

var (
	// ErrWeatherUnavailable means the upstream fetch failed and no cached
	// snapshot exists anywhere near the requested location.
	ErrWeatherUnavailable = errors.New("weather data unavailable")

	// ErrQuotaExhausted means the daily upstream call limit was reached and
	// no stale snapshot could be served instead. Distinguished from
	// ErrWeatherUnavailable for observability only; callers treat both the same.
	ErrQuotaExhausted = errors.New("daily weather quota exhausted")

	// ErrNotFound is returned by stores when the requested record does not exist.
	ErrNotFound = errors.New("not found")
)
