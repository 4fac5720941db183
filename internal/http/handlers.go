package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// CSVFilename is the attachment name of forecast downloads.
const CSVFilename = "weather_forecast.csv"

// Dashboard is the lookup surface the handlers need.
type Dashboard interface {
	Current(ctx context.Context, city string) (service.CurrentView, error)
	Forecast(ctx context.Context, city string) (service.ForecastView, error)
	ForecastCSV(ctx context.Context, city, view string) ([]byte, error)
}

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	Thresholds lifecycle.Thresholds
	// SessionPing, when set, reports session backend reachability.
	SessionPing func(ctx context.Context) error
	Version     string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	dashboard        Dashboard
	sessions         *session.Manager
	pages            *Pages
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	dashboard Dashboard,
	sessions *session.Manager,
	pages *Pages,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		dashboard:    dashboard,
		sessions:     sessions,
		pages:        pages,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, pc := h.sessions.Load(w, r)
	page, next := renderHome(r.Context(), h.dashboard, pc, strings.TrimSpace(q.Get("city")), q.Get("action"))
	h.sessions.Save(r.Context(), id, pc, next)
	h.writePage(w, r, "home.html", page)
}

// Analysis handles GET /analysis.
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	id, pc := h.sessions.Load(w, r)
	page, next := renderAnalysis(r.Context(), h.dashboard, pc, strings.TrimSpace(r.URL.Query().Get("city")))
	h.sessions.Save(r.Context(), id, pc, next)
	h.writePage(w, r, "analysis.html", page)
}

// ForecastCSV handles GET /forecast.csv?city=&view=daily|raw.
// On failure it responds with an error status and a text body; no CSV is produced.
func (h *Handler) ForecastCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := q.Get("view")
	if view == "" {
		view = service.ViewDaily
	}

	body, err := h.dashboard.ForecastCSV(r.Context(), q.Get("city"), view)
	if err != nil {
		status, _ := errorStatus(err)
		warning, msg := userMessage(err, MsgForecastFailed)
		if msg == "" {
			msg = warning
		}
		if errors.Is(err, validation.ErrInvalidView) {
			msg = "Unknown view. Use daily or raw."
		}
		http.Error(w, msg, status)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+CSVFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// GetWeather handles GET /api/weather/{city}.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.Current(r.Context(), mux.Vars(r)["city"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetForecast handles GET /api/forecast/{city}.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.Forecast(r.Context(), mux.Vars(r)["city"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	var th lifecycle.Thresholds
	if h.healthConfig != nil {
		th = h.healthConfig.Thresholds
	}
	result := lifecycle.Evaluate(th)

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.Status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.Status),
			zap.String("reason", result.Reason))
	}
	h.healthStatusPrev = result.Status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.Status == lifecycle.StatusDegraded {
		checks["weatherApi"] = "unhealthy"
	} else {
		checks["weatherApi"] = "healthy"
	}
	version := "dev"
	if h.healthConfig != nil {
		if h.healthConfig.SessionPing != nil {
			if h.healthConfig.SessionPing(r.Context()) == nil {
				checks["sessionStore"] = "healthy"
			} else {
				checks["sessionStore"] = "unhealthy"
			}
		}
		if h.healthConfig.Version != "" {
			version = h.healthConfig.Version
		}
	}

	statusCode := http.StatusOK
	if !result.Healthy() {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, map[string]interface{}{
		"status":    result.Status,
		"service":   "weather-dashboard",
		"version":   version,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writePage renders a template into a buffer first so a template failure yields a clean 500.
func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages.render(&buf, name, data); err != nil {
		observability.LoggerFromContext(r.Context()).Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationIDFromContext(r.Context()),
		},
	})
}

// writeServiceError maps a lookup error to its status and error envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	warning, msg := userMessage(err, MsgCityNotFound)
	if msg == "" {
		msg = warning
	}
	writeError(w, r, status, code, msg)
	observability.LoggerFromContext(r.Context()).Debug("lookup error", zap.Int("status", status), zap.Error(err))
}

// errorStatus returns the HTTP status and error code for a lookup error.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, validation.ErrEmptyInput):
		return http.StatusBadRequest, "EMPTY_INPUT"
	case validation.IsInvalidInput(err):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, client.ErrMalformedResponse):
		return http.StatusBadGateway, "MALFORMED_RESPONSE"
	default:
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	}
}
