package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	httpadapter "github.com/krishisheba/advisory-service/internal/adapter/http"
	kafkaadapter "github.com/krishisheba/advisory-service/internal/adapter/kafka"
	"github.com/krishisheba/advisory-service/internal/adapter/openweather"
	"github.com/krishisheba/advisory-service/internal/adapter/sms"
	"github.com/krishisheba/advisory-service/internal/alerts"
	"github.com/krishisheba/advisory-service/internal/config"
	"github.com/krishisheba/advisory-service/internal/domain"
	"github.com/krishisheba/advisory-service/internal/observability"
	"github.com/krishisheba/advisory-service/internal/scheduler"
	"github.com/krishisheba/advisory-service/internal/storage"
	"github.com/krishisheba/advisory-service/internal/storage/sqlite"
	"github.com/krishisheba/advisory-service/internal/weather"
)

// datastore is the union of store interfaces the service wires together.
// Both the in-memory store and the SQLite store satisfy it.
type datastore interface {
	httpadapter.ReadinessChecker
	httpadapter.AdvisoryReader
	weather.SnapshotStore
	alerts.FarmerDirectory
	alerts.CropBatchDirectory
	alerts.AdvisoryStore
	SaveFarmer(ctx context.Context, f domain.Farmer) error
	SaveCropBatch(ctx context.Context, b domain.CropBatch) error
}

func main() {
	seed := flag.Bool("seed", false, "load demo farmers and crop batches at startup")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	domain.DefaultLocation = domain.Coordinates{
		Latitude:  cfg.DefaultLatitude,
		Longitude: cfg.DefaultLongitude,
	}

	var store datastore
	if cfg.DBPath == "" {
		store = storage.NewMemory(clock)
		logger.Info("using in-memory stores")
	} else {
		db, err := sqlite.Open(cfg.DBPath, clock)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		logger.Info("using sqlite store", "path", cfg.DBPath)
	}

	provider := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.OpenWeatherTimeout, logger)
	quota := weather.NewQuotaTracker(cfg.WeatherDailyLimit, clock, logger, metrics)
	weatherSvc := weather.NewService(provider, store, quota, clock, logger, metrics, cfg.WeatherCacheTTL)

	notifier := sms.NewSimulatedSender(clock, logger)

	var publisher alerts.Publisher
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
		logger.Info("advisory event stream enabled", "topic", cfg.KafkaTopic)
	}

	engine := alerts.NewEngine(alerts.Deps{
		Farmers:    store,
		Crops:      store,
		Advisories: store,
		Weather:    weatherSvc,
		Notifier:   notifier,
		Publisher:  publisher,
	}, cfg.SuppressionWindow, cfg.BatchGroupSize, clock, logger, metrics)

	if *seed {
		if err := seedDemoData(context.Background(), store, clock.Now()); err != nil {
			logger.Error("seeding demo data failed", "error", err)
			os.Exit(1)
		}
		logger.Info("demo data seeded")
	}

	sched := scheduler.New(cfg.AlertCron,
		func(ctx context.Context) error {
			_, err := engine.GenerateForAllFarmers(ctx)
			return err
		},
		weatherSvc.EvictExpired,
		logger,
	)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, store, weatherSvc, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
