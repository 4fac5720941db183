package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// NewRouter wires routes and middleware. Page, CSV and API routes are rate limited and
// carry the request timeout; /health and /metrics are not.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler())

	app := router.NewRoute().Subrouter()
	app.Use(RateLimitMiddleware(limiter))
	app.Use(TimeoutMiddleware(requestTimeout))
	app.HandleFunc("/", h.Home).Methods(http.MethodGet)
	app.HandleFunc("/analysis", h.Analysis).Methods(http.MethodGet)
	app.HandleFunc("/forecast.csv", h.ForecastCSV).Methods(http.MethodGet)
	app.HandleFunc("/api/weather/{city}", h.GetWeather).Methods(http.MethodGet)
	app.HandleFunc("/api/forecast/{city}", h.GetForecast).Methods(http.MethodGet)
	return router
}
