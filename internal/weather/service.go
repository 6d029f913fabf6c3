// Package weather implements the acquisition layer between the advisory
// engine and the upstream weather provider: cache-first retrieval, in-flight
// request deduplication, a daily quota with adaptive TTL, and stale-snapshot
// fallback when the upstream is down or the quota is spent.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/krishisheba/advisory-service/internal/domain"
	"github.com/krishisheba/advisory-service/internal/observability"
)

// staleLookback is how far back the fallback search reaches when fresh data
// cannot be obtained. Any observation from the last day beats no answer.
const staleLookback = 24 * time.Hour

// saveTimeout bounds the detached snapshot write so a hung store cannot leak
// goroutines.
const saveTimeout = 10 * time.Second

// Provider fetches a current observation from the upstream weather API.
// Timeouts, non-2xx responses, and malformed payloads are all surfaced as
// plain errors; the service treats them uniformly as "upstream unavailable".
type Provider interface {
	FetchCurrent(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error)
}

// SnapshotStore is the durable weather cache. FindByLocation returns the
// freshest snapshot within the proximity radius fetched no longer than maxAge
// ago, or domain.ErrNotFound.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.WeatherSnapshot) error
	FindByLocation(ctx context.Context, lat, lon float64, maxAge time.Duration) (domain.WeatherSnapshot, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// Service is the weather acquisition layer.
type Service struct {
	provider Provider
	store    SnapshotStore
	quota    *QuotaTracker
	flight   singleflight.Group
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	cacheTTL time.Duration
}

// NewService wires the acquisition layer.
func NewService(provider Provider, store SnapshotStore, quota *QuotaTracker, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, cacheTTL time.Duration) *Service {
	return &Service{
		provider: provider,
		store:    store,
		quota:    quota,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		cacheTTL: cacheTTL,
	}
}

// CurrentWeather returns the weather for the given coordinates, consulting
// the cache before the upstream provider. Concurrent calls for the same
// rounded coordinates share a single in-flight lookup; the registry entry is
// dropped when the call settles, success or failure.
func (s *Service) CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	coords, replaced := domain.NormalizeCoordinates(lat, lon)
	if replaced {
		s.logger.Warn("coordinates outside service area, using default location",
			"lat", lat, "lon", lon,
			"default_lat", coords.Latitude, "default_lon", coords.Longitude,
		)
	}
	coords = domain.RoundCoordinates(coords)
	key := domain.CacheKey(coords)

	// The shared lookup is detached from the first caller's cancellation so
	// one caller backing out cannot fail the requests riding on its flight.
	// The provider client carries its own timeout.
	lookupCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.lookup(lookupCtx, coords, key)
	})
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}
	return v.(domain.WeatherSnapshot), nil
}

// EvictExpired removes snapshots past their TTL from the store.
func (s *Service) EvictExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx)
}

// lookup runs the cache-first algorithm for one cache key.
func (s *Service) lookup(ctx context.Context, coords domain.Coordinates, key string) (domain.WeatherSnapshot, error) {
	now := s.clock.Now()

	snap, err := s.store.FindByLocation(ctx, coords.Latitude, coords.Longitude, s.quota.TTL(s.cacheTTL))
	switch {
	case err == nil && !snap.Expired(now):
		s.metrics.WeatherCacheHits.Inc()
		snap.Source = domain.SourceCache
		snap.Provenance = domain.ProvenanceHit
		return snap, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		// A broken cache degrades to a plain upstream fetch.
		s.logger.Warn("weather cache lookup failed", "key", key, "error", err)
	}

	s.metrics.WeatherCacheMisses.Inc()

	used, ok := s.quota.Acquire()
	if !ok {
		s.logger.Warn("daily weather quota exhausted, trying stale fallback", "key", key)
		return s.staleFallback(ctx, coords, key, domain.ErrQuotaExhausted)
	}

	start := s.clock.Now()
	fresh, err := s.provider.FetchCurrent(ctx, coords.Latitude, coords.Longitude)
	s.metrics.UpstreamDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		s.quota.Release()
		s.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		s.logger.Error("upstream weather fetch failed", "key", key, "error", err)
		return s.staleFallback(ctx, coords, key, fmt.Errorf("%w: %v", domain.ErrWeatherUnavailable, err))
	}
	s.metrics.UpstreamRequests.WithLabelValues("success").Inc()

	now = s.clock.Now()
	fresh.Latitude = coords.Latitude
	fresh.Longitude = coords.Longitude
	fresh.FetchedAt = now
	fresh.ExpiresAt = now.Add(s.quota.TTL(s.cacheTTL))
	fresh.Source = domain.SourceOpenWeather
	fresh.Provenance = domain.ProvenanceMiss
	fresh.APICallCount = used

	// Fire-and-forget persistence: a slow or failing store write never
	// delays or fails the caller's request.
	go s.saveSnapshot(fresh, key)

	return fresh, nil
}

// staleFallback serves any observation from the last 24 hours when fresh data
// cannot be obtained. cause is returned unchanged when nothing is found.
func (s *Service) staleFallback(ctx context.Context, coords domain.Coordinates, key string, cause error) (domain.WeatherSnapshot, error) {
	snap, err := s.store.FindByLocation(ctx, coords.Latitude, coords.Longitude, staleLookback)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("stale fallback lookup failed", "key", key, "error", err)
		}
		return domain.WeatherSnapshot{}, cause
	}

	s.metrics.WeatherStaleServed.Inc()
	s.logger.Info("serving stale weather snapshot",
		"key", key,
		"fetched_at", snap.FetchedAt,
		"cause", cause,
	)
	snap.Source = domain.SourceCache
	snap.Provenance = domain.ProvenanceExpired
	return snap, nil
}

func (s *Service) saveSnapshot(snap domain.WeatherSnapshot, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Warn("weather snapshot save failed", "key", key, "error", err)
	}
}
