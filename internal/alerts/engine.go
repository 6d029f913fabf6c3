// Package alerts orchestrates weather-driven advisory generation: it walks
// farmers, scores each active crop batch against current weather, persists
// the resulting advisories, and pushes Critical ones to the SMS channel.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/krishisheba/advisory-service/internal/domain"
	"github.com/krishisheba/advisory-service/internal/observability"
)

// FarmerDirectory supplies the farmers the engine evaluates.
type FarmerDirectory interface {
	FindFarmerByID(ctx context.Context, id string) (domain.Farmer, error)
	ListFarmers(ctx context.Context) ([]domain.Farmer, error)
}

// CropBatchDirectory supplies a farmer's crop batches, optionally filtered by
// stage. An empty stage means all stages.
type CropBatchDirectory interface {
	FindCropBatchesByFarmer(ctx context.Context, farmerID string, stage domain.CropStage) ([]domain.CropBatch, error)
}

// AdvisoryStore persists generated advisories and answers the duplicate
// suppression query.
type AdvisoryStore interface {
	CreateAdvisory(ctx context.Context, a domain.Advisory) error
	FindRecentAdvisories(ctx context.Context, farmerID string, source domain.AdvisorySource, window time.Duration) ([]domain.Advisory, error)
}

// WeatherReader is the slice of the weather service the engine needs.
type WeatherReader interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error)
}

// Notifier delivers one Critical advisory out of band.
type Notifier interface {
	Notify(ctx context.Context, phone, message string) error
}

// Publisher emits every persisted advisory to the event stream. Optional.
type Publisher interface {
	Publish(ctx context.Context, a domain.Advisory) error
}

// Deps collects the engine's collaborators.
type Deps struct {
	Farmers    FarmerDirectory
	Crops      CropBatchDirectory
	Advisories AdvisoryStore
	Weather    WeatherReader
	Notifier   Notifier
	Publisher  Publisher // nil disables event publishing
}

// Engine evaluates farmers and turns weather risk into advisories.
type Engine struct {
	deps              Deps
	suppressionWindow time.Duration
	groupSize         int
	clock             clockwork.Clock
	logger            *slog.Logger
	metrics           *observability.Metrics
}

// NewEngine wires an orchestrator. suppressionWindow bounds how often one
// farmer can receive weather advisories; groupSize bounds batch concurrency.
func NewEngine(deps Deps, suppressionWindow time.Duration, groupSize int, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if groupSize <= 0 {
		groupSize = 10
	}
	return &Engine{
		deps:              deps,
		suppressionWindow: suppressionWindow,
		groupSize:         groupSize,
		clock:             clock,
		logger:            logger,
		metrics:           metrics,
	}
}

// GenerateForFarmer runs one full evaluation for a single farmer and returns
// the advisories it persisted. A farmer already covered by a recent weather
// advisory yields nothing; a crop batch that fails to evaluate is skipped
// without failing its siblings.
func (e *Engine) GenerateForFarmer(ctx context.Context, farmerID string) ([]domain.Advisory, error) {
	farmer, err := e.deps.Farmers.FindFarmerByID(ctx, farmerID)
	if err != nil {
		e.metrics.FarmerEvaluations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("loading farmer %s: %w", farmerID, err)
	}

	recent, err := e.deps.Advisories.FindRecentAdvisories(ctx, farmer.ID, domain.AdvisorySourceWeather, e.suppressionWindow)
	if err != nil {
		e.metrics.FarmerEvaluations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("checking recent advisories for %s: %w", farmer.ID, err)
	}
	if len(recent) > 0 {
		e.logger.Debug("farmer suppressed by recent advisory",
			"farmer_id", farmer.ID,
			"last_advisory", recent[0].CreatedAt)
		e.metrics.FarmerEvaluations.WithLabelValues("suppressed").Inc()
		return nil, nil
	}

	batches, err := e.deps.Crops.FindCropBatchesByFarmer(ctx, farmer.ID, "")
	if err != nil {
		e.metrics.FarmerEvaluations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("loading crop batches for %s: %w", farmer.ID, err)
	}
	if len(batches) == 0 {
		e.metrics.FarmerEvaluations.WithLabelValues("empty").Inc()
		return nil, nil
	}

	// One weather fetch per farmer; every batch is scored against it.
	snap, err := e.deps.Weather.CurrentWeather(ctx, farmer.Latitude, farmer.Longitude)
	if err != nil {
		e.metrics.FarmerEvaluations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("fetching weather for %s: %w", farmer.ID, err)
	}

	var advisories []domain.Advisory
	for _, batch := range batches {
		advisory, err := e.evaluateBatch(farmer, batch, snap)
		if err != nil {
			e.logger.Warn("crop batch evaluation failed",
				"farmer_id", farmer.ID,
				"batch_id", batch.ID,
				"error", err)
			e.metrics.CropEvaluationFailures.Inc()
			continue
		}
		if advisory == nil {
			continue
		}
		advisories = append(advisories, *advisory)
	}

	if len(advisories) == 0 {
		e.metrics.FarmerEvaluations.WithLabelValues("empty").Inc()
		return nil, nil
	}

	stored := advisories[:0]
	for _, advisory := range advisories {
		if err := e.deps.Advisories.CreateAdvisory(ctx, advisory); err != nil {
			e.logger.Error("persisting advisory failed",
				"farmer_id", farmer.ID,
				"advisory_id", advisory.ID,
				"error", err)
			continue
		}
		stored = append(stored, advisory)
		e.metrics.AdvisoriesGenerated.WithLabelValues(string(advisory.Severity)).Inc()
		e.dispatch(ctx, farmer, advisory)
	}

	e.metrics.FarmerEvaluations.WithLabelValues("generated").Inc()
	e.logger.Info("advisories generated",
		"farmer_id", farmer.ID,
		"count", len(stored))
	return stored, nil
}

// evaluateBatch scores one crop batch. A panic inside scoring is converted to
// an error so a bad batch cannot take down the farmer's whole evaluation.
func (e *Engine) evaluateBatch(farmer domain.Farmer, batch domain.CropBatch, snap domain.WeatherSnapshot) (advisory *domain.Advisory, err error) {
	defer func() {
		if r := recover(); r != nil {
			advisory, err = nil, fmt.Errorf("evaluation panic: %v", r)
		}
	}()

	if batch.CropType == "" {
		return nil, errors.New("crop type missing")
	}

	cropCtx := batch.Context()
	assessment := domain.ScoreRisk(snap, cropCtx)
	if assessment.Level == domain.RiskLow {
		return nil, nil
	}

	a := domain.Advisory{
		ID:              uuid.NewString(),
		Scope:           domain.ScopeFarmer,
		FarmerID:        farmer.ID,
		CropBatchID:     batch.ID,
		Source:          domain.AdvisorySourceWeather,
		Severity:        assessment.Level,
		Title:           domain.FormatAdvisoryTitle(cropCtx, assessment.Level),
		Message:         domain.FormatAdvisoryMessage(cropCtx, snap, assessment, farmer.District),
		Actions:         domain.GenerateActions(cropCtx, snap, assessment.Level),
		Temperature:     snap.Temperature,
		Humidity:        snap.Humidity,
		Rainfall:        snap.Rainfall,
		WindSpeed:       snap.WindSpeed,
		StorageLocation: batch.StorageLocation,
		CreatedAt:       e.clock.Now().UTC(),
	}
	return &a, nil
}

// dispatch pushes a persisted advisory to the side channels. Channel failures
// are logged and counted but never surfaced; the advisory is already stored.
func (e *Engine) dispatch(ctx context.Context, farmer domain.Farmer, advisory domain.Advisory) {
	if advisory.Severity == domain.RiskCritical && e.deps.Notifier != nil {
		if err := e.deps.Notifier.Notify(ctx, farmer.Phone, advisory.Message); err != nil {
			e.logger.Error("critical SMS delivery failed",
				"farmer_id", farmer.ID,
				"advisory_id", advisory.ID,
				"error", err)
			e.metrics.NotificationFailures.Inc()
		}
	}

	if e.deps.Publisher != nil {
		if err := e.deps.Publisher.Publish(ctx, advisory); err != nil {
			e.logger.Error("advisory publish failed",
				"advisory_id", advisory.ID,
				"error", err)
		}
	}
}
