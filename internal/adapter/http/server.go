package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krishisheba/advisory-service/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AdvisoryReader lists a farmer's advisories, newest first.
type AdvisoryReader interface {
	ListAdvisoriesByFarmer(ctx context.Context, farmerID string, limit int) ([]domain.Advisory, error)
}

// WeatherReader serves cached-or-fresh weather for a coordinate pair.
type WeatherReader interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error)
}

// AdvisoryRunner triggers an on-demand evaluation for one farmer.
type AdvisoryRunner interface {
	GenerateForFarmer(ctx context.Context, farmerID string) ([]domain.Advisory, error)
}

// Server exposes the read API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	advisories AdvisoryReader
	weather    WeatherReader
	runner     AdvisoryRunner
	logger     *slog.Logger
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(addr string, ready ReadinessChecker, advisories AdvisoryReader, weather WeatherReader, runner AdvisoryRunner, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		advisories: advisories,
		weather:    weather,
		runner:     runner,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /weather", s.handleWeather)
	mux.HandleFunc("GET /farmers/{id}/advisories", s.handleListAdvisories)
	mux.HandleFunc("POST /farmers/{id}/advisories/evaluate", s.handleEvaluate)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleWeather serves the current snapshot for ?lat=&lon=. Missing or
// malformed coordinates fall back to the service default, matching the
// engine's own normalization.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		lat = domain.DefaultLocation.Latitude
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		lon = domain.DefaultLocation.Longitude
	}

	snap, err := s.weather.CurrentWeather(r.Context(), lat, lon)
	if err != nil {
		s.logger.Error("weather request failed", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrQuotaExhausted) {
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListAdvisories(w http.ResponseWriter, r *http.Request) {
	farmerID := r.PathValue("id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	advisories, err := s.advisories.ListAdvisoriesByFarmer(r.Context(), farmerID, limit)
	if err != nil {
		s.logger.Error("listing advisories failed", "farmer_id", farmerID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if advisories == nil {
		advisories = []domain.Advisory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"advisories": advisories})
}

// handleEvaluate runs the advisory engine for one farmer on demand, outside
// the scheduled batch.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	farmerID := r.PathValue("id")

	advisories, err := s.runner.GenerateForFarmer(r.Context(), farmerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "farmer not found"})
			return
		}
		s.logger.Error("on-demand evaluation failed", "farmer_id", farmerID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if advisories == nil {
		advisories = []domain.Advisory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"advisories": advisories})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
