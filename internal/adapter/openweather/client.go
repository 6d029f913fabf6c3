// Package openweather implements weather.Provider against the OpenWeatherMap
// current-weather API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/krishisheba/advisory-service/internal/domain"
)

// Client calls the OpenWeatherMap API with a circuit breaker and a local
// request rate limiter in front of it. Every failure mode — timeout, non-2xx,
// malformed payload, open breaker — surfaces as a plain error; the acquisition
// layer treats them all as "upstream unavailable".
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
		// The free tier allows 60 calls/minute; one per second with a small
		// burst stays well inside it even during batch runs.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		logger:  logger,
	}
}

// FetchCurrent retrieves the current observation for the coordinates.
func (c *Client) FetchCurrent(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return domain.WeatherSnapshot{}, fmt.Errorf("openweather api key is not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("rate limit wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.doRequest(ctx, lat, lon)
	})
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}
	return result.(domain.WeatherSnapshot), nil
}

func (c *Client) doRequest(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	params := url.Values{
		"lat":   {fmt.Sprintf("%.2f", lat)},
		"lon":   {fmt.Sprintf("%.2f", lon)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.WeatherSnapshot{}, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	var owResp response
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("decode response: %w", err)
	}

	return owResp.toSnapshot(), nil
}

// OpenWeatherMap API response types.

type response struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Visibility float64 `json:"visibility"`
	Sys        struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

func (r response) toSnapshot() domain.WeatherSnapshot {
	snap := domain.WeatherSnapshot{
		Temperature:   r.Main.Temp,
		FeelsLike:     r.Main.FeelsLike,
		Humidity:      r.Main.Humidity,
		Pressure:      r.Main.Pressure,
		WindSpeed:     r.Wind.Speed,
		WindDirection: r.Wind.Deg,
		Rainfall:      r.Rain.OneHour,
		Visibility:    r.Visibility,
		Cloudiness:    r.Clouds.All,
	}
	if len(r.Weather) > 0 {
		snap.Condition = r.Weather[0].Main
		snap.Description = r.Weather[0].Description
		snap.Icon = r.Weather[0].Icon
	}
	if r.Sys.Sunrise > 0 {
		snap.Sunrise = time.Unix(r.Sys.Sunrise, 0).UTC()
	}
	if r.Sys.Sunset > 0 {
		snap.Sunset = time.Unix(r.Sys.Sunset, 0).UTC()
	}
	return snap
}
