//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/forecast"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	"github.com/kjstillabower/weather-dashboard/internal/session"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey         string
	CurrentURL     string
	ForecastURL    string
	SessionBackend string // "in_memory", "memcached" or "redis"
	Options        session.Options
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}

	return IntegrationTestConfig{
		APIKey:         apiKey,
		CurrentURL:     envOr("WEATHER_API_CURRENT_URL", "https://api.openweathermap.org/data/2.5/weather"),
		ForecastURL:    envOr("WEATHER_API_FORECAST_URL", "https://api.openweathermap.org/data/2.5/forecast"),
		SessionBackend: os.Getenv("INTEGRATION_SESSION_BACKEND"),
		Options: session.Options{
			MemcachedAddrs:   envOr("MEMCACHED_ADDRS", "localhost:11211"),
			MemcachedTimeout: 500 * time.Millisecond,
			RedisAddr:        envOr("REDIS_ADDR", "localhost:6379"),
		},
	}
}

// SetupIntegrationService creates a DashboardService backed by the live provider.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) *service.DashboardService {
	t.Helper()
	weatherClient, err := client.NewOpenWeatherClient(cfg.APIKey, cfg.CurrentURL, cfg.ForecastURL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}
	return service.NewDashboardService(weatherClient, forecast.NewAggregator(), 1, 100)
}

// SetupIntegrationSessions opens the configured session backend, falling back to
// in-memory when it is unreachable. The store is closed on test cleanup.
func SetupIntegrationSessions(t *testing.T, cfg IntegrationTestConfig) session.Store {
	t.Helper()
	store, err := session.New(context.Background(), cfg.SessionBackend, cfg.Options)
	if err == nil {
		err = store.Ping(context.Background())
	}
	if err != nil {
		t.Logf("session backend %q not available (%v), using in-memory", cfg.SessionBackend, err)
		if store != nil {
			_ = store.Close()
		}
		store = session.Instrument(session.NewInMemoryStore())
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
