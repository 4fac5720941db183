package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/forecast"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/recommend"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// CSV export views.
const (
	ViewDaily = "daily"
	ViewRaw   = "raw"
)

// CurrentView is a current-conditions lookup ready for display.
type CurrentView struct {
	Conditions      models.CurrentConditions `json:"conditions"`
	Temperature     string                   `json:"temperature"`
	Humidity        string                   `json:"humidity"`
	WindSpeed       string                   `json:"windSpeed"`
	Recommendations []string                 `json:"recommendations"`
}

// ForecastView is the raw series together with its daily table.
type ForecastView struct {
	Series models.ForecastSeries `json:"series"`
	Daily  []models.DailySample  `json:"daily"`
}

// DashboardService turns city lookups into page views. Every lookup makes at most
// one upstream call; nothing is cached between calls.
type DashboardService struct {
	client     client.WeatherClient
	aggregator forecast.Aggregator
	minLen     int
	maxLen     int
}

// NewDashboardService creates a DashboardService. minLen and maxLen bound city names (0 disables).
func NewDashboardService(client client.WeatherClient, aggregator forecast.Aggregator, minLen, maxLen int) *DashboardService {
	return &DashboardService{
		client:     client,
		aggregator: aggregator,
		minLen:     minLen,
		maxLen:     maxLen,
	}
}

// Current fetches current conditions for city and derives display strings and advisories.
func (s *DashboardService) Current(ctx context.Context, city string) (CurrentView, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	city, err := s.validate(ctx, city)
	if err != nil {
		return CurrentView{}, err
	}
	observability.RecordWeatherQuery("current", city)

	cond, err := s.client.FetchCurrent(ctx, city)
	recordOutcome(err)
	if err != nil {
		logFailure(logger, "current", city, err)
		return CurrentView{}, fmt.Errorf("fetch current for %s: %w", city, err)
	}

	recs := recommend.Recommend(cond.Temperature, cond.Description)
	observability.RecommendationsIssuedTotal.Add(float64(len(recs)))

	logger.Debug("current conditions served",
		zap.String("city", cond.City),
		zap.Int("recommendations", len(recs)),
		zap.Duration("duration", time.Since(start)))

	return CurrentView{
		Conditions:      cond,
		Temperature:     FormatTemperature(cond.Temperature),
		Humidity:        fmt.Sprintf("%d%%", cond.Humidity),
		WindSpeed:       fmt.Sprintf("%.1f m/s", cond.WindSpeed),
		Recommendations: recs,
	}, nil
}

// Forecast fetches the forecast series for city and reduces it to the daily table.
func (s *DashboardService) Forecast(ctx context.Context, city string) (ForecastView, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	city, err := s.validate(ctx, city)
	if err != nil {
		return ForecastView{}, err
	}
	observability.RecordWeatherQuery("forecast", city)

	series, err := s.client.FetchForecast(ctx, city)
	recordOutcome(err)
	if err != nil {
		logFailure(logger, "forecast", city, err)
		return ForecastView{}, fmt.Errorf("fetch forecast for %s: %w", city, err)
	}

	daily := s.aggregator.DailyTable(series)
	observability.ForecastDaysReturned.Observe(float64(len(daily)))

	logger.Debug("forecast served",
		zap.String("city", series.City),
		zap.Int("points", len(series.Points)),
		zap.Int("days", len(daily)),
		zap.Duration("duration", time.Since(start)))

	return ForecastView{Series: series, Daily: daily}, nil
}

// ForecastCSV fetches the forecast for city and renders it as CSV. view selects the
// daily table (ViewDaily) or every provider sample (ViewRaw).
func (s *DashboardService) ForecastCSV(ctx context.Context, city, view string) ([]byte, error) {
	if view != ViewDaily && view != ViewRaw {
		return nil, fmt.Errorf("%w: unknown view %q", validation.ErrInvalidView, view)
	}
	fv, err := s.Forecast(ctx, city)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if view == ViewRaw {
		err = forecast.WriteCSV(&buf, fv.Series.Points)
	} else {
		err = forecast.WriteCSV(&buf, fv.Daily)
	}
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	observability.CSVExportsTotal.WithLabelValues(view).Inc()
	return buf.Bytes(), nil
}

// FormatTemperature renders a Celsius value with one decimal, e.g. "21.5°C".
func FormatTemperature(c float64) string {
	return fmt.Sprintf("%.1f°C", c)
}

func (s *DashboardService) validate(ctx context.Context, city string) (string, error) {
	normalized, err := validation.ValidateCity(city, s.minLen, s.maxLen)
	if err != nil {
		traffic.Record(traffic.OutcomeSuccess)
		observability.LoggerFromContext(ctx).Debug("city rejected", zap.String("input", city), zap.Error(err))
		return "", err
	}
	return normalized, nil
}

// recordOutcome feeds the degraded-state window. Only provider failures count as errors.
func recordOutcome(err error) {
	if client.IsUpstreamFailure(err) {
		traffic.Record(traffic.OutcomeUpstreamError)
		return
	}
	traffic.Record(traffic.OutcomeSuccess)
}

func logFailure(logger *zap.Logger, kind, city string, err error) {
	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("city", city),
		zap.String("category", string(client.CategorizeError(err))),
		zap.Error(err),
	}
	if client.IsUpstreamFailure(err) {
		logger.Warn("weather lookup failed", fields...)
		return
	}
	logger.Debug("weather lookup rejected", fields...)
}
