package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/weather-dashboard/internal/traffic"
)

var (
	registry *prometheus.Registry

	// Page/API request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// Page/API latency per request. Dominated by the upstream call on cold pages.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeatherMap call rate per endpoint (current, forecast).
	WeatherAPICallsTotal *prometheus.CounterVec

	// External API latency. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Upstream failures by taxonomy category (not_found, upstream_unavailable, malformed_response).
	WeatherAPIErrorsTotal *prometheus.CounterVec

	// Dashboard lookups by kind (current, forecast).
	WeatherQueriesTotal *prometheus.CounterVec

	// Per-city query count (allow-list; others go to "other").
	WeatherQueriesByCityTotal *prometheus.CounterVec

	// Advisory strings produced for current-conditions views.
	RecommendationsIssuedTotal prometheus.Counter

	// Daily samples returned per forecast lookup. Watch for: 0 (empty tables).
	ForecastDaysReturned prometheus.Histogram

	// CSV downloads and CLI exports by view (daily, raw).
	CSVExportsTotal *prometheus.CounterVec

	// Session store operations by op (get, set) and result (hit, miss, success, error).
	SessionOperationsTotal *prometheus.CounterVec

	// Session store latency by backend op.
	SessionOperationDuration *prometheus.HistogramVec

	// Rate limit denials.
	RateLimitDeniedTotal prometheus.Counter

	trackedCitiesMu sync.RWMutex
	trackedCities   map[string]struct{}

	trafficGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"endpoint", "status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	WeatherAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiErrorsTotal",
			Help: "Weather API failures by endpoint and error category",
		},
		[]string{"endpoint", "category"},
	)
	WeatherQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherQueriesTotal",
			Help: "Total number of dashboard weather lookups",
		},
		[]string{"kind"},
	)
	WeatherQueriesByCityTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherQueriesByCityTotal",
			Help: "Weather queries by city (allow-list; others use city=other)",
		},
		[]string{"city"},
	)
	RecommendationsIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendationsIssuedTotal",
			Help: "Total number of advisory strings produced",
		},
	)
	ForecastDaysReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecastDaysReturned",
			Help:    "Daily samples returned per forecast lookup",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 7},
		},
	)
	CSVExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvExportsTotal",
			Help: "Total number of forecast CSV exports",
		},
		[]string{"view"},
	)
	SessionOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessionOperationsTotal",
			Help: "Session store operations by op and result",
		},
		[]string{"op", "result"},
	)
	SessionOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sessionOperationDurationSeconds",
			Help:    "Session store operation latency in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"op"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIErrorsTotal,
		WeatherQueriesTotal, WeatherQueriesByCityTotal,
		RecommendationsIssuedTotal, ForecastDaysReturned, CSVExportsTotal,
		SessionOperationsTotal, SessionOperationDuration,
		RateLimitDeniedTotal,
	)
}

// RegisterTrafficGauges registers windowed load, rejection and upstream-error gauges.
// Call from main after config load; uses the same windows as /health.
func RegisterTrafficGauges(overloadWindow, degradedWindow time.Duration) {
	trafficGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited routes in sliding window",
				},
				func() float64 { return float64(traffic.RequestCount(overloadWindow)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window",
				},
				func() float64 { return float64(traffic.DenialCount(overloadWindow)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "upstreamErrorsInWindow",
					Help: "Upstream unavailable or malformed responses in sliding window",
				},
				func() float64 {
					errs, _ := traffic.ErrorRate(degradedWindow)
					return float64(errs)
				},
			),
		)
	})
}

// SetTrackedCities sets the allow-list for per-city metrics. Other cities increment "other".
func SetTrackedCities(cities []string) {
	trackedCitiesMu.Lock()
	defer trackedCitiesMu.Unlock()
	trackedCities = make(map[string]struct{}, len(cities))
	for _, c := range cities {
		trackedCities[normalizeCityForMetrics(c)] = struct{}{}
	}
}

// RecordWeatherQuery records a lookup of the given kind for city.
func RecordWeatherQuery(kind, city string) {
	WeatherQueriesTotal.WithLabelValues(kind).Inc()
	WeatherQueriesByCityTotal.WithLabelValues(MetricCityLabel(city)).Inc()
}

// MetricCityLabel returns the normalized city if it is tracked, otherwise "other".
func MetricCityLabel(city string) string {
	c := normalizeCityForMetrics(city)
	trackedCitiesMu.RLock()
	_, ok := trackedCities[c]
	trackedCitiesMu.RUnlock()
	if ok {
		return c
	}
	return "other"
}

func normalizeCityForMetrics(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
