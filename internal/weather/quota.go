package weather

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/krishisheba/advisory-service/internal/observability"
)

// Warning thresholds, as fractions of the daily limit. Crossing each one is
// logged once per day; crossing the first also triggers the adaptive TTL.
var quotaThresholds = []float64{0.8, 0.9, 1.0}

// QuotaTracker owns the process-wide daily upstream call counter. The counter
// resets at local-day boundaries and is consulted before every upstream fetch.
type QuotaTracker struct {
	mu      sync.Mutex
	limit   int
	used    int
	day     string // local date the counter belongs to, YYYY-MM-DD
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewQuotaTracker creates a tracker for the given daily limit.
func NewQuotaTracker(limit int, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *QuotaTracker {
	return &QuotaTracker{
		limit:   limit,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Acquire reserves one upstream call and returns today's running total. The
// reservation is counted immediately, before the fetch, so concurrent
// requests cannot race past the limit between a check and a later increment.
// Threshold crossings at 80%, 90%, and 100% are logged. Returns false with no
// reservation when the quota is spent.
func (q *QuotaTracker) Acquire() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rolloverLocked()

	if q.used >= q.limit {
		return q.used, false
	}

	before := float64(q.used) / float64(q.limit)
	q.used++
	after := float64(q.used) / float64(q.limit)
	q.metrics.QuotaUsed.Set(float64(q.used))

	for _, threshold := range quotaThresholds {
		if before < threshold && after >= threshold {
			q.logger.Warn("weather api quota threshold crossed",
				"threshold_pct", int(threshold*100),
				"used", q.used,
				"limit", q.limit,
			)
		}
	}

	return q.used, true
}

// Release returns a reservation whose upstream call failed. A no-op after a
// day rollover has already zeroed the counter.
func (q *QuotaTracker) Release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rolloverLocked()
	if q.used > 0 {
		q.used--
		q.metrics.QuotaUsed.Set(float64(q.used))
	}
}

// Used returns today's running total.
func (q *QuotaTracker) Used() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rolloverLocked()
	return q.used
}

// TTL returns the snapshot TTL to use right now: the base TTL, doubled once
// quota usage has crossed the 80% warning threshold. Trading freshness for
// quota headroom keeps the service answering until the day-boundary reset.
func (q *QuotaTracker) TTL(base time.Duration) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rolloverLocked()
	if float64(q.used) >= quotaThresholds[0]*float64(q.limit) {
		return base * 2
	}
	return base
}

// rolloverLocked resets the counter when the local day has changed.
func (q *QuotaTracker) rolloverLocked() {
	today := q.clock.Now().Local().Format("2006-01-02")
	if q.day != today {
		if q.day != "" {
			q.logger.Info("weather api quota reset", "previous_day", q.day, "used", q.used)
		}
		q.day = today
		q.used = 0
		q.metrics.QuotaUsed.Set(0)
	}
}
