package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/forecast"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/recommend"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

type mockWeatherClient struct {
	current       models.CurrentConditions
	series        models.ForecastSeries
	err           error
	currentCalls  int
	forecastCalls int
	lastCity      string
}

func (m *mockWeatherClient) FetchCurrent(ctx context.Context, city string) (models.CurrentConditions, error) {
	m.currentCalls++
	m.lastCity = city
	return m.current, m.err
}

func (m *mockWeatherClient) FetchForecast(ctx context.Context, city string) (models.ForecastSeries, error) {
	m.forecastCalls++
	m.lastCity = city
	return m.series, m.err
}

func clearSky() models.CurrentConditions {
	return models.CurrentConditions{
		City:        "London",
		Temperature: 21.5,
		Humidity:    60,
		Condition:   "Clear Sky",
		Description: "clear sky",
		WindSpeed:   3.2,
		Sunrise:     "11:13 PM",
		Sunset:      "10:20 AM",
	}
}

func sampleSeries(days int) models.ForecastSeries {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var pts []models.ForecastPoint
	for i := 0; i < days*8; i++ {
		pts = append(pts, models.ForecastPoint{
			Timestamp:   start.Add(time.Duration(3*i) * time.Hour),
			Temperature: float64(i) + 0.5,
			Humidity:    50,
		})
	}
	return models.ForecastSeries{City: "London", Points: pts}
}

func newTestService(m *mockWeatherClient) *DashboardService {
	return NewDashboardService(m, forecast.NewAggregator(), 1, 100)
}

func TestCurrent_ClearSkyScenario(t *testing.T) {
	m := &mockWeatherClient{current: clearSky()}
	got, err := newTestService(m).Current(context.Background(), " London ")
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if m.lastCity != "London" {
		t.Errorf("client received city %q, want trimmed London", m.lastCity)
	}
	if got.Temperature != "21.5°C" {
		t.Errorf("Temperature = %q, want 21.5°C", got.Temperature)
	}
	if got.Humidity != "60%" {
		t.Errorf("Humidity = %q, want 60%%", got.Humidity)
	}
	if got.Conditions.Condition != "Clear Sky" {
		t.Errorf("Condition = %q, want Clear Sky", got.Conditions.Condition)
	}
	if got.WindSpeed != "3.2 m/s" {
		t.Errorf("WindSpeed = %q, want 3.2 m/s", got.WindSpeed)
	}
	want := []string{recommend.SummerClothe, recommend.Outdoors}
	if !reflect.DeepEqual(got.Recommendations, want) {
		t.Errorf("Recommendations = %v, want %v", got.Recommendations, want)
	}
}

func TestLookups_EmptyInputMakesNoCall(t *testing.T) {
	m := &mockWeatherClient{current: clearSky(), series: sampleSeries(1)}
	s := newTestService(m)
	ctx := context.Background()

	if _, err := s.Current(ctx, "   "); !errors.Is(err, validation.ErrEmptyInput) {
		t.Errorf("Current() error = %v, want ErrEmptyInput", err)
	}
	if _, err := s.Forecast(ctx, ""); !errors.Is(err, validation.ErrEmptyInput) {
		t.Errorf("Forecast() error = %v, want ErrEmptyInput", err)
	}
	if _, err := s.ForecastCSV(ctx, "", ViewDaily); !errors.Is(err, validation.ErrEmptyInput) {
		t.Errorf("ForecastCSV() error = %v, want ErrEmptyInput", err)
	}
	if m.currentCalls+m.forecastCalls != 0 {
		t.Errorf("client called %d times, want 0", m.currentCalls+m.forecastCalls)
	}
}

func TestLookups_InvalidInputMakesNoCall(t *testing.T) {
	m := &mockWeatherClient{}
	s := NewDashboardService(m, forecast.NewAggregator(), 2, 10)
	for _, city := range []string{"X", "Llanfairpwllgwyngyll", "<script>"} {
		if _, err := s.Current(context.Background(), city); !validation.IsInvalidInput(err) {
			t.Errorf("Current(%q) error = %v, want invalid input", city, err)
		}
	}
	if m.currentCalls != 0 {
		t.Errorf("client called %d times, want 0", m.currentCalls)
	}
}

func TestLookups_ErrorsWrapTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
		upErr   int
	}{
		{"not found", fmt.Errorf("%w: HTTP 404", client.ErrNotFound), client.ErrNotFound, 0},
		{"unavailable", fmt.Errorf("%w: refused", client.ErrUpstreamUnavailable), client.ErrUpstreamUnavailable, 1},
		{"malformed", fmt.Errorf("%w: bad json", client.ErrMalformedResponse), client.ErrMalformedResponse, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			traffic.Reset()
			defer traffic.Reset()
			m := &mockWeatherClient{err: tt.err}
			s := newTestService(m)

			if _, err := s.Current(context.Background(), "London"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Current() error = %v, want %v", err, tt.wantErr)
			}
			if _, err := s.Forecast(context.Background(), "London"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Forecast() error = %v, want %v", err, tt.wantErr)
			}
			errs, total := traffic.ErrorRate(time.Minute)
			if errs != 2*tt.upErr || total != 2 {
				t.Errorf("ErrorRate() = (%d, %d), want (%d, 2)", errs, total, 2*tt.upErr)
			}
		})
	}
}

func TestForecast_DailyTable(t *testing.T) {
	m := &mockWeatherClient{series: sampleSeries(6)}
	got, err := newTestService(m).Forecast(context.Background(), "London")
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if len(got.Series.Points) != 48 {
		t.Errorf("len(Series.Points) = %d, want 48", len(got.Series.Points))
	}
	if len(got.Daily) != 5 {
		t.Fatalf("len(Daily) = %d, want 5", len(got.Daily))
	}
	// Noon is the fifth sample of each day.
	if got.Daily[0].Temperature != 4.5 {
		t.Errorf("Daily[0].Temperature = %v, want 4.5", got.Daily[0].Temperature)
	}
}

func TestForecast_EmptySeries(t *testing.T) {
	m := &mockWeatherClient{series: models.ForecastSeries{City: "Nowhere", Points: []models.ForecastPoint{}}}
	got, err := newTestService(m).Forecast(context.Background(), "Nowhere")
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if got.Daily == nil || len(got.Daily) != 0 {
		t.Errorf("Daily = %v, want empty non-nil", got.Daily)
	}
}

func TestForecastCSV(t *testing.T) {
	m := &mockWeatherClient{series: sampleSeries(2)}
	s := newTestService(m)

	daily, err := s.ForecastCSV(context.Background(), "London", ViewDaily)
	if err != nil {
		t.Fatalf("ForecastCSV(daily) error = %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(daily))).ReadAll()
	if err != nil {
		t.Fatalf("parse daily csv: %v", err)
	}
	want := [][]string{{"Date", "Temperature"}, {"2024-03-01", "4.5"}, {"2024-03-02", "12.5"}}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("daily csv = %v, want %v", records, want)
	}

	raw, err := s.ForecastCSV(context.Background(), "London", ViewRaw)
	if err != nil {
		t.Fatalf("ForecastCSV(raw) error = %v", err)
	}
	if lines := strings.Count(string(raw), "\n"); lines != 17 {
		t.Errorf("raw csv has %d lines, want 17", lines)
	}

	if _, err := s.ForecastCSV(context.Background(), "London", "weekly"); !errors.Is(err, validation.ErrInvalidView) {
		t.Errorf("ForecastCSV(weekly) error = %v, want ErrInvalidView", err)
	}
}

func TestForecastCSV_NotFoundProducesNoCSV(t *testing.T) {
	m := &mockWeatherClient{err: fmt.Errorf("%w: HTTP 404", client.ErrNotFound)}
	out, err := newTestService(m).ForecastCSV(context.Background(), "Atlantis", ViewDaily)
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("ForecastCSV() error = %v, want ErrNotFound", err)
	}
	if out != nil {
		t.Errorf("ForecastCSV() = %q, want nil", out)
	}
}

func TestLookups_LogViaContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := observability.WithLogger(context.Background(), zap.New(core))

	m := &mockWeatherClient{err: fmt.Errorf("%w: refused", client.ErrUpstreamUnavailable)}
	_, _ = newTestService(m).Current(ctx, "London")

	entries := logs.FilterMessage("weather lookup failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d failure entries, want 1", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
	if got := entries[0].ContextMap()["category"]; got != "upstream_unavailable" {
		t.Errorf("category = %v, want upstream_unavailable", got)
	}
}

func TestFormatTemperature(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{21.5, "21.5°C"},
		{0, "0.0°C"},
		{-3.26, "-3.3°C"},
		{10, "10.0°C"},
	}
	for _, tt := range tests {
		if got := FormatTemperature(tt.in); got != tt.want {
			t.Errorf("FormatTemperature(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
