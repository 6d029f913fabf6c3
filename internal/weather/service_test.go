package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisheba/advisory-service/internal/domain"
	"github.com/krishisheba/advisory-service/internal/observability"
)

var testTime = time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)

const (
	testLat = 23.81
	testLon = 90.41
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fakes ---

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	snap  domain.WeatherSnapshot
	err   error
	gate  chan struct{} // when set, FetchCurrent blocks until the gate closes
}

func (p *fakeProvider) FetchCurrent(_ context.Context, _, _ float64) (domain.WeatherSnapshot, error) {
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return domain.WeatherSnapshot{}, p.err
	}
	return p.snap, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeStore struct {
	mu      sync.Mutex
	snaps   []domain.WeatherSnapshot
	findErr error
	saveErr error
	saved   chan domain.WeatherSnapshot
	clock   clockwork.Clock
}

func newFakeStore(clock clockwork.Clock) *fakeStore {
	return &fakeStore{clock: clock, saved: make(chan domain.WeatherSnapshot, 8)}
}

func (s *fakeStore) Save(_ context.Context, snap domain.WeatherSnapshot) error {
	s.mu.Lock()
	err := s.saveErr
	if err == nil {
		s.snaps = append(s.snaps, snap)
	}
	s.mu.Unlock()
	s.saved <- snap
	return err
}

func (s *fakeStore) FindByLocation(_ context.Context, lat, lon float64, maxAge time.Duration) (domain.WeatherSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return domain.WeatherSnapshot{}, s.findErr
	}

	cutoff := s.clock.Now().Add(-maxAge)
	var best domain.WeatherSnapshot
	found := false
	for _, snap := range s.snaps {
		if math.Abs(snap.Latitude-lat) > 0.1 || math.Abs(snap.Longitude-lon) > 0.1 {
			continue
		}
		if snap.FetchedAt.Before(cutoff) {
			continue
		}
		if !found || snap.FetchedAt.After(best.FetchedAt) {
			best = snap
			found = true
		}
	}
	if !found {
		return domain.WeatherSnapshot{}, domain.ErrNotFound
	}
	return best, nil
}

func (s *fakeStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	kept := s.snaps[:0]
	var removed int64
	for _, snap := range s.snaps {
		if snap.Expired(now) {
			removed++
			continue
		}
		kept = append(kept, snap)
	}
	s.snaps = kept
	return removed, nil
}

// --- helpers ---

type fixture struct {
	service  *Service
	provider *fakeProvider
	store    *fakeStore
	quota    *QuotaTracker
	clock    *clockwork.FakeClock
}

func newFixture(t *testing.T, dailyLimit int) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testTime)
	metrics := observability.NewMetricsForTesting()
	logger := testLogger()
	provider := &fakeProvider{snap: domain.WeatherSnapshot{Temperature: 31, Humidity: 78}}
	store := newFakeStore(clock)
	quota := NewQuotaTracker(dailyLimit, clock, logger, metrics)
	svc := NewService(provider, store, quota, clock, logger, metrics, 30*time.Minute)
	return &fixture{service: svc, provider: provider, store: store, quota: quota, clock: clock}
}

func freshSnapshot(clock clockwork.Clock) domain.WeatherSnapshot {
	now := clock.Now()
	return domain.WeatherSnapshot{
		Latitude:    testLat,
		Longitude:   testLon,
		Temperature: 29,
		Humidity:    70,
		FetchedAt:   now.Add(-5 * time.Minute),
		ExpiresAt:   now.Add(25 * time.Minute),
		Source:      domain.SourceOpenWeather,
	}
}

func staleSnapshot(clock clockwork.Clock) domain.WeatherSnapshot {
	now := clock.Now()
	return domain.WeatherSnapshot{
		Latitude:    testLat,
		Longitude:   testLon,
		Temperature: 27,
		Humidity:    65,
		FetchedAt:   now.Add(-6 * time.Hour),
		ExpiresAt:   now.Add(-5 * time.Hour),
		Source:      domain.SourceOpenWeather,
	}
}

// --- tests ---

func TestCurrentWeather_CacheHitAvoidsUpstream(t *testing.T) {
	f := newFixture(t, 100)
	f.store.snaps = []domain.WeatherSnapshot{freshSnapshot(f.clock)}

	snap, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenanceHit, snap.Provenance)
	assert.Equal(t, domain.SourceCache, snap.Source)
	assert.Equal(t, 29.0, snap.Temperature)
	assert.Equal(t, 0, f.provider.callCount(), "no upstream call on a cache hit")
	assert.Equal(t, 0, f.quota.Used(), "no quota consumed on a cache hit")
}

func TestCurrentWeather_MissFetchesAndPersists(t *testing.T) {
	f := newFixture(t, 100)

	snap, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenanceMiss, snap.Provenance)
	assert.Equal(t, domain.SourceOpenWeather, snap.Source)
	assert.Equal(t, testLat, snap.Latitude)
	assert.Equal(t, f.clock.Now(), snap.FetchedAt)
	assert.Equal(t, f.clock.Now().Add(30*time.Minute), snap.ExpiresAt)
	assert.Equal(t, 1, snap.APICallCount)
	assert.Equal(t, 1, f.provider.callCount())
	assert.Equal(t, 1, f.quota.Used())

	// The snapshot write is detached but must still land.
	select {
	case saved := <-f.store.saved:
		assert.Equal(t, snap.FetchedAt, saved.FetchedAt)
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot was never persisted")
	}
}

func TestCurrentWeather_ConcurrentRequestsShareOneFetch(t *testing.T) {
	f := newFixture(t, 100)
	f.provider.gate = make(chan struct{})

	const callers = 5
	results := make(chan error, callers)
	for range callers {
		go func() {
			_, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
			results <- err
		}()
	}

	// Let every caller reach the in-flight registry before the fetch settles.
	time.Sleep(100 * time.Millisecond)
	close(f.provider.gate)

	for range callers {
		require.NoError(t, <-results)
	}
	assert.Equal(t, 1, f.provider.callCount(), "concurrent same-key requests share one upstream call")
	assert.Equal(t, 1, f.quota.Used())
}

func TestCurrentWeather_CallerCancellationDoesNotFailSharers(t *testing.T) {
	f := newFixture(t, 100)
	f.provider.gate = make(chan struct{})

	cancelCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.service.CurrentWeather(cancelCtx, testLat, testLon)
		firstErr <- err
	}()

	secondErr := make(chan error, 1)
	go func() {
		_, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
		secondErr <- err
	}()

	// Let both callers join the in-flight entry, cancel the first caller's
	// context, then allow the shared fetch to settle.
	time.Sleep(100 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(f.provider.gate)

	require.NoError(t, <-secondErr, "a sharer must not see the first caller's cancellation")
	require.NoError(t, <-firstErr)
	assert.Equal(t, 1, f.provider.callCount())
}

func TestCurrentWeather_QuotaExhaustedServesStale(t *testing.T) {
	f := newFixture(t, 1)
	f.quota.Acquire() // spend the whole daily budget
	f.store.snaps = []domain.WeatherSnapshot{staleSnapshot(f.clock)}

	snap, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenanceExpired, snap.Provenance)
	assert.Equal(t, domain.SourceCache, snap.Source)
	assert.Equal(t, 27.0, snap.Temperature)
	assert.Equal(t, 0, f.provider.callCount(), "quota exhaustion skips the upstream entirely")
}

func TestCurrentWeather_QuotaExhaustedNoFallback(t *testing.T) {
	f := newFixture(t, 1)
	f.quota.Acquire()

	_, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuotaExhausted)
}

func TestCurrentWeather_UpstreamFailureServesStale(t *testing.T) {
	f := newFixture(t, 100)
	f.provider.err = errors.New("connection refused")
	f.store.snaps = []domain.WeatherSnapshot{staleSnapshot(f.clock)}

	snap, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenanceExpired, snap.Provenance)
	assert.Equal(t, 1, f.provider.callCount())
	assert.Equal(t, 0, f.quota.Used(), "failed upstream calls never consume quota")
}

func TestCurrentWeather_UpstreamFailureNoFallback(t *testing.T) {
	f := newFixture(t, 100)
	f.provider.err = errors.New("503 service unavailable")

	_, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWeatherUnavailable)
}

func TestCurrentWeather_AdaptiveTTLPastWarningThreshold(t *testing.T) {
	f := newFixture(t, 10)
	for range 8 { // reach the 80% threshold
		f.quota.Acquire()
	}

	snap, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
	require.NoError(t, err)

	assert.Equal(t, f.clock.Now().Add(time.Hour), snap.ExpiresAt,
		"TTL doubles once quota usage crosses 80%")
}

func TestCurrentWeather_SaveFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t, 100)
	f.store.saveErr = errors.New("disk full")

	snap, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvenanceMiss, snap.Provenance)

	select {
	case <-f.store.saved:
	case <-time.After(2 * time.Second):
		t.Fatal("save was never attempted")
	}
}

func TestCurrentWeather_OutOfRangeCoordinatesUseDefault(t *testing.T) {
	f := newFixture(t, 100)
	f.store.snaps = []domain.WeatherSnapshot{freshSnapshot(f.clock)} // at the default location

	snap, err := f.service.CurrentWeather(context.Background(), -33.86, 151.2) // Sydney
	require.NoError(t, err)

	assert.Equal(t, domain.ProvenanceHit, snap.Provenance)
	assert.Equal(t, 0, f.provider.callCount())
}

func TestCurrentWeather_BrokenCacheDegradesToUpstream(t *testing.T) {
	f := newFixture(t, 100)
	f.store.findErr = errors.New("store offline")

	snap, err := f.service.CurrentWeather(context.Background(), testLat, testLon)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvenanceMiss, snap.Provenance)
	assert.Equal(t, 1, f.provider.callCount())
}

func TestEvictExpired(t *testing.T) {
	f := newFixture(t, 100)
	f.store.snaps = []domain.WeatherSnapshot{freshSnapshot(f.clock), staleSnapshot(f.clock)}

	removed, err := f.service.EvictExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
