// Package sqlite implements the service's stores on a single SQLite file,
// using the cgo-free modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"github.com/krishisheba/advisory-service/internal/domain"
	"github.com/krishisheba/advisory-service/internal/storage"
)

// Store holds the shared database handle. It implements the snapshot, farmer,
// crop-batch, and advisory store interfaces the engine consumes.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// Open opens (creating if necessary) the database at path and ensures the schema.
func Open(path string, clock clockwork.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under the detached snapshot writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, clock: clock}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// CheckReadiness satisfies the HTTP server's readiness probe.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS weather_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			temperature REAL NOT NULL,
			feels_like REAL NOT NULL,
			humidity REAL NOT NULL,
			pressure REAL NOT NULL,
			wind_speed REAL NOT NULL,
			wind_direction REAL NOT NULL,
			rainfall REAL NOT NULL,
			condition TEXT,
			description TEXT,
			icon TEXT,
			visibility REAL,
			cloudiness REAL,
			sunrise INTEGER,
			sunset INTEGER,
			fetched_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			source TEXT NOT NULL,
			api_call_count INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_location ON weather_snapshots(lat, lon, fetched_at);

		CREATE TABLE IF NOT EXISTS farmers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			village TEXT,
			district TEXT,
			lat REAL NOT NULL,
			lon REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS crop_batches (
			id TEXT PRIMARY KEY,
			farmer_id TEXT NOT NULL REFERENCES farmers(id),
			crop_type TEXT NOT NULL,
			stage TEXT NOT NULL,
			expected_harvest INTEGER,
			storage_method TEXT,
			storage_location TEXT,
			quantity_kg REAL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_crop_batches_farmer ON crop_batches(farmer_id);

		CREATE TABLE IF NOT EXISTS advisories (
			id TEXT PRIMARY KEY,
			scope TEXT NOT NULL,
			farmer_id TEXT,
			crop_batch_id TEXT,
			source TEXT NOT NULL,
			severity TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			actions TEXT NOT NULL,
			temperature REAL,
			humidity REAL,
			rainfall REAL,
			wind_speed REAL,
			storage_location TEXT,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_advisories_farmer ON advisories(farmer_id, source, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// --- weather.SnapshotStore ---

func (s *Store) Save(ctx context.Context, snap domain.WeatherSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weather_snapshots (
			lat, lon, temperature, feels_like, humidity, pressure,
			wind_speed, wind_direction, rainfall, condition, description, icon,
			visibility, cloudiness, sunrise, sunset, fetched_at, expires_at,
			source, api_call_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Latitude, snap.Longitude, snap.Temperature, snap.FeelsLike,
		snap.Humidity, snap.Pressure, snap.WindSpeed, snap.WindDirection,
		snap.Rainfall, snap.Condition, snap.Description, snap.Icon,
		snap.Visibility, snap.Cloudiness, snap.Sunrise.Unix(), snap.Sunset.Unix(),
		snap.FetchedAt.Unix(), snap.ExpiresAt.Unix(), snap.Source, snap.APICallCount,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *Store) FindByLocation(ctx context.Context, lat, lon float64, maxAge time.Duration) (domain.WeatherSnapshot, error) {
	now := s.clock.Now().Unix()
	cutoff := s.clock.Now().Add(-maxAge).Unix()
	// Unexpired rows sort first so a fresher-but-expired snapshot cannot
	// shadow one that is still valid; freshness breaks ties within each class.
	row := s.db.QueryRowContext(ctx, `
		SELECT lat, lon, temperature, feels_like, humidity, pressure,
		       wind_speed, wind_direction, rainfall, condition, description, icon,
		       visibility, cloudiness, sunrise, sunset, fetched_at, expires_at,
		       source, api_call_count
		FROM weather_snapshots
		WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ? AND fetched_at >= ?
		ORDER BY (expires_at > ?) DESC, fetched_at DESC
		LIMIT 1`,
		lat-storage.ProximityRadius, lat+storage.ProximityRadius,
		lon-storage.ProximityRadius, lon+storage.ProximityRadius,
		cutoff, now,
	)

	var snap domain.WeatherSnapshot
	var sunrise, sunset, fetchedAt, expiresAt int64
	err := row.Scan(
		&snap.Latitude, &snap.Longitude, &snap.Temperature, &snap.FeelsLike,
		&snap.Humidity, &snap.Pressure, &snap.WindSpeed, &snap.WindDirection,
		&snap.Rainfall, &snap.Condition, &snap.Description, &snap.Icon,
		&snap.Visibility, &snap.Cloudiness, &sunrise, &sunset, &fetchedAt, &expiresAt,
		&snap.Source, &snap.APICallCount,
	)
	if err == sql.ErrNoRows {
		return domain.WeatherSnapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("querying snapshot: %w", err)
	}

	snap.Sunrise = time.Unix(sunrise, 0).UTC()
	snap.Sunset = time.Unix(sunset, 0).UTC()
	snap.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	snap.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return snap, nil
}

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM weather_snapshots WHERE expires_at <= ?`, s.clock.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("deleting expired snapshots: %w", err)
	}
	return res.RowsAffected()
}

// --- alerts.FarmerDirectory ---

func (s *Store) SaveFarmer(ctx context.Context, f domain.Farmer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO farmers (id, name, phone, village, district, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, phone = excluded.phone,
			village = excluded.village, district = excluded.district,
			lat = excluded.lat, lon = excluded.lon`,
		f.ID, f.Name, f.Phone, f.Village, f.District, f.Latitude, f.Longitude,
	)
	if err != nil {
		return fmt.Errorf("saving farmer: %w", err)
	}
	return nil
}

func (s *Store) FindFarmerByID(ctx context.Context, id string) (domain.Farmer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, village, district, lat, lon FROM farmers WHERE id = ?`, id)

	var f domain.Farmer
	err := row.Scan(&f.ID, &f.Name, &f.Phone, &f.Village, &f.District, &f.Latitude, &f.Longitude)
	if err == sql.ErrNoRows {
		return domain.Farmer{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Farmer{}, fmt.Errorf("querying farmer: %w", err)
	}
	return f, nil
}

func (s *Store) ListFarmers(ctx context.Context) ([]domain.Farmer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, phone, village, district, lat, lon FROM farmers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing farmers: %w", err)
	}
	defer rows.Close()

	var farmers []domain.Farmer
	for rows.Next() {
		var f domain.Farmer
		if err := rows.Scan(&f.ID, &f.Name, &f.Phone, &f.Village, &f.District, &f.Latitude, &f.Longitude); err != nil {
			return nil, fmt.Errorf("scanning farmer: %w", err)
		}
		farmers = append(farmers, f)
	}
	return farmers, rows.Err()
}

// --- alerts.CropBatchDirectory ---

func (s *Store) SaveCropBatch(ctx context.Context, b domain.CropBatch) error {
	var harvest any
	if b.ExpectedHarvest != nil {
		harvest = b.ExpectedHarvest.Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO crop_batches (id, farmer_id, crop_type, stage, expected_harvest,
			storage_method, storage_location, quantity_kg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			crop_type = excluded.crop_type, stage = excluded.stage,
			expected_harvest = excluded.expected_harvest,
			storage_method = excluded.storage_method,
			storage_location = excluded.storage_location,
			quantity_kg = excluded.quantity_kg`,
		b.ID, b.FarmerID, b.CropType, b.Stage, harvest,
		b.StorageMethod, b.StorageLocation, b.QuantityKG, b.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving crop batch: %w", err)
	}
	return nil
}

func (s *Store) FindCropBatchesByFarmer(ctx context.Context, farmerID string, stage domain.CropStage) ([]domain.CropBatch, error) {
	query := `SELECT id, farmer_id, crop_type, stage, expected_harvest,
		storage_method, storage_location, quantity_kg, created_at
		FROM crop_batches WHERE farmer_id = ?`
	args := []any{farmerID}
	if stage != "" {
		query += ` AND stage = ?`
		args = append(args, stage)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing crop batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.CropBatch
	for rows.Next() {
		var b domain.CropBatch
		var harvest sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&b.ID, &b.FarmerID, &b.CropType, &b.Stage, &harvest,
			&b.StorageMethod, &b.StorageLocation, &b.QuantityKG, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning crop batch: %w", err)
		}
		if harvest.Valid {
			h := time.Unix(harvest.Int64, 0).UTC()
			b.ExpectedHarvest = &h
		}
		b.CreatedAt = time.Unix(createdAt, 0).UTC()
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// --- alerts.AdvisoryStore ---

func (s *Store) CreateAdvisory(ctx context.Context, a domain.Advisory) error {
	actions, err := json.Marshal(a.Actions)
	if err != nil {
		return fmt.Errorf("encoding actions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO advisories (id, scope, farmer_id, crop_batch_id, source, severity,
			title, message, actions, temperature, humidity, rainfall, wind_speed,
			storage_location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Scope, a.FarmerID, a.CropBatchID, a.Source, a.Severity,
		a.Title, a.Message, string(actions), a.Temperature, a.Humidity,
		a.Rainfall, a.WindSpeed, a.StorageLocation, a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving advisory: %w", err)
	}
	return nil
}

func (s *Store) FindRecentAdvisories(ctx context.Context, farmerID string, source domain.AdvisorySource, window time.Duration) ([]domain.Advisory, error) {
	cutoff := s.clock.Now().Add(-window).Unix()
	rows, err := s.db.QueryContext(ctx, advisorySelect+`
		WHERE farmer_id = ? AND source = ? AND created_at >= ?
		ORDER BY created_at DESC`,
		farmerID, source, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent advisories: %w", err)
	}
	defer rows.Close()
	return scanAdvisories(rows)
}

func (s *Store) ListAdvisoriesByFarmer(ctx context.Context, farmerID string, limit int) ([]domain.Advisory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, advisorySelect+`
		WHERE farmer_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		farmerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing advisories: %w", err)
	}
	defer rows.Close()
	return scanAdvisories(rows)
}

const advisorySelect = `
	SELECT id, scope, farmer_id, crop_batch_id, source, severity, title, message,
	       actions, temperature, humidity, rainfall, wind_speed, storage_location, created_at
	FROM advisories`

func scanAdvisories(rows *sql.Rows) ([]domain.Advisory, error) {
	var advisories []domain.Advisory
	for rows.Next() {
		var a domain.Advisory
		var actions string
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.Scope, &a.FarmerID, &a.CropBatchID, &a.Source,
			&a.Severity, &a.Title, &a.Message, &actions, &a.Temperature,
			&a.Humidity, &a.Rainfall, &a.WindSpeed, &a.StorageLocation, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning advisory: %w", err)
		}
		if err := json.Unmarshal([]byte(actions), &a.Actions); err != nil {
			return nil, fmt.Errorf("decoding actions: %w", err)
		}
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		advisories = append(advisories, a)
	}
	return advisories, rows.Err()
}
