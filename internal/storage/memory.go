// Package storage provides the store implementations behind the engine's
// collaborator interfaces: a mutex-guarded in-memory variant for tests and
// DB-less deployments, and a SQLite variant in the sqlite subpackage.
package storage

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/krishisheba/advisory-service/internal/domain"
)

// ProximityRadius is the bounding-box half-width, in degrees, for snapshot
// lookups. At Bangladesh's latitude ±0.1° comfortably covers the ~10 km
// radius nearby observations are shared across.
const ProximityRadius = 0.1

// Memory implements every store interface the service consumes, in memory.
type Memory struct {
	mu         sync.RWMutex
	snapshots  []domain.WeatherSnapshot
	farmers    map[string]domain.Farmer
	cropsByFID map[string][]domain.CropBatch
	advisories []domain.Advisory
	clock      clockwork.Clock
}

// NewMemory creates an empty in-memory store.
func NewMemory(clock clockwork.Clock) *Memory {
	return &Memory{
		farmers:    make(map[string]domain.Farmer),
		cropsByFID: make(map[string][]domain.CropBatch),
		clock:      clock,
	}
}

// CheckReadiness satisfies the HTTP server's readiness probe.
func (m *Memory) CheckReadiness(_ context.Context) error { return nil }

// --- weather.SnapshotStore ---

func (m *Memory) Save(_ context.Context, snap domain.WeatherSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Provenance = "" // retrieval provenance is never persisted
	m.snapshots = append(m.snapshots, snap)
	return nil
}

func (m *Memory) FindByLocation(_ context.Context, lat, lon float64, maxAge time.Duration) (domain.WeatherSnapshot, error) {
	// math.Abs(NaN-x) > r is false, so a NaN query would match every row.
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return domain.WeatherSnapshot{}, domain.ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()
	cutoff := now.Add(-maxAge)
	var best domain.WeatherSnapshot
	found := false
	for _, snap := range m.snapshots {
		if math.Abs(snap.Latitude-lat) > ProximityRadius || math.Abs(snap.Longitude-lon) > ProximityRadius {
			continue
		}
		if snap.FetchedAt.Before(cutoff) {
			continue
		}
		// Unexpired snapshots win over expired ones regardless of age, so a
		// fresher-but-expired row cannot shadow one that is still valid.
		// Freshness breaks ties within each class.
		if !found || better(snap, best, now) {
			best = snap
			found = true
		}
	}
	if !found {
		return domain.WeatherSnapshot{}, domain.ErrNotFound
	}
	return best, nil
}

func better(a, b domain.WeatherSnapshot, now time.Time) bool {
	if a.Expired(now) != b.Expired(now) {
		return !a.Expired(now)
	}
	return a.FetchedAt.After(b.FetchedAt)
}

func (m *Memory) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	kept := m.snapshots[:0]
	var removed int64
	for _, snap := range m.snapshots {
		if snap.Expired(now) {
			removed++
			continue
		}
		kept = append(kept, snap)
	}
	m.snapshots = kept
	return removed, nil
}

// --- alerts.FarmerDirectory ---

func (m *Memory) SaveFarmer(_ context.Context, f domain.Farmer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.farmers[f.ID] = f
	return nil
}

func (m *Memory) FindFarmerByID(_ context.Context, id string) (domain.Farmer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.farmers[id]
	if !ok {
		return domain.Farmer{}, domain.ErrNotFound
	}
	return f, nil
}

func (m *Memory) ListFarmers(_ context.Context) ([]domain.Farmer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	farmers := make([]domain.Farmer, 0, len(m.farmers))
	for _, f := range m.farmers {
		farmers = append(farmers, f)
	}
	return farmers, nil
}

// --- alerts.CropBatchDirectory ---

func (m *Memory) SaveCropBatch(_ context.Context, b domain.CropBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cropsByFID[b.FarmerID] = append(m.cropsByFID[b.FarmerID], b)
	return nil
}

func (m *Memory) FindCropBatchesByFarmer(_ context.Context, farmerID string, stage domain.CropStage) ([]domain.CropBatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var batches []domain.CropBatch
	for _, b := range m.cropsByFID[farmerID] {
		if stage != "" && b.Stage != stage {
			continue
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// --- alerts.AdvisoryStore ---

func (m *Memory) CreateAdvisory(_ context.Context, a domain.Advisory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advisories = append(m.advisories, a)
	return nil
}

func (m *Memory) FindRecentAdvisories(_ context.Context, farmerID string, source domain.AdvisorySource, window time.Duration) ([]domain.Advisory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := m.clock.Now().Add(-window)
	var recent []domain.Advisory
	for _, a := range m.advisories {
		if a.FarmerID != farmerID || a.Source != source {
			continue
		}
		if a.CreatedAt.Before(cutoff) {
			continue
		}
		recent = append(recent, a)
	}
	return recent, nil
}

func (m *Memory) ListAdvisoriesByFarmer(_ context.Context, farmerID string, limit int) ([]domain.Advisory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []domain.Advisory
	// Newest first.
	for i := len(m.advisories) - 1; i >= 0; i-- {
		a := m.advisories[i]
		if a.FarmerID != farmerID {
			continue
		}
		result = append(result, a)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
