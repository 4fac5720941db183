package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/forecast"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	"github.com/kjstillabower/weather-dashboard/internal/session"
)

// fakeWeatherClient is a client.WeatherClient returning canned data.
type fakeWeatherClient struct {
	mu            sync.Mutex
	current       models.CurrentConditions
	series        models.ForecastSeries
	currentErr    error
	forecastErr   error
	currentCalls  int
	forecastCalls int
	cities        []string
}

func (f *fakeWeatherClient) FetchCurrent(ctx context.Context, city string) (models.CurrentConditions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentCalls++
	f.cities = append(f.cities, city)
	return f.current, f.currentErr
}

func (f *fakeWeatherClient) FetchForecast(ctx context.Context, city string) (models.ForecastSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecastCalls++
	f.cities = append(f.cities, city)
	return f.series, f.forecastErr
}

func (f *fakeWeatherClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentCalls + f.forecastCalls
}

func (f *fakeWeatherClient) lastCity() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cities) == 0 {
		return ""
	}
	return f.cities[len(f.cities)-1]
}

func clearSkyLondon() models.CurrentConditions {
	return models.CurrentConditions{
		City:           "London",
		Temperature:    21.5,
		Humidity:       60,
		Condition:      "Clear Sky",
		Description:    "clear sky",
		WindSpeed:      3.2,
		Sunrise:        "11:13 PM",
		Sunset:         "10:20 AM",
		TimezoneOffset: 3600,
	}
}

// fiveDaySeries returns days*8 three-hourly points starting at midnight on 2024-03-01.
func fiveDaySeries(days int) models.ForecastSeries {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.ForecastPoint, 0, days*8)
	for i := 0; i < days*8; i++ {
		pts = append(pts, models.ForecastPoint{
			Timestamp:   start.Add(time.Duration(3*i) * time.Hour),
			Temperature: 10 + float64(i)/2,
			Humidity:    40 + i,
			WindSpeed:   1.5,
		})
	}
	return models.ForecastSeries{City: "London", Points: pts}
}

type testEnv struct {
	client  *fakeWeatherClient
	store   *session.InMemoryStore
	handler *Handler
	router  http.Handler
}

func newTestEnv(t testing.TB, fc *fakeWeatherClient, hc *HealthConfig, limiter *rate.Limiter) *testEnv {
	t.Helper()
	pages, err := LoadPages()
	if err != nil {
		t.Fatalf("LoadPages() error = %v", err)
	}
	store := session.NewInMemoryStore()
	sessions := session.NewManager(store, "sid", time.Hour, false)
	dash := service.NewDashboardService(fc, forecast.NewAggregator(), 1, 100)
	logger := zap.NewNop()
	h := NewHandler(dash, sessions, pages, hc, logger)
	return &testEnv{
		client:  fc,
		store:   store,
		handler: h,
		router:  NewRouter(h, logger, limiter, 5*time.Second),
	}
}

func (e *testEnv) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatal("response did not set the session cookie")
	return nil
}
