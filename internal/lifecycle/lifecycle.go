package lifecycle

import (
	"sync/atomic"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/traffic"
)

var shuttingDown atomic.Bool

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT received.
// Health handler returns 503 with status shutting-down while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Status values reported by /health.
const (
	StatusHealthy      = "healthy"
	StatusShuttingDown = "shutting-down"
	StatusOverloaded   = "overloaded"
	StatusDegraded     = "degraded"
)

// Thresholds configures overload and degraded detection. Zero values disable a check.
type Thresholds struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int
	DegradedWindow       time.Duration
	DegradedErrorPct     int
}

// Result is the evaluated health state.
type Result struct {
	Status string
	Reason string
}

// Healthy reports whether the status should be served with 200.
func (r Result) Healthy() bool {
	return r.Status == StatusHealthy
}

// Evaluate returns the current health in priority order:
// shutting-down > overloaded > degraded > healthy.
func Evaluate(th Thresholds) Result {
	if IsShuttingDown() {
		return Result{StatusShuttingDown, "signal"}
	}
	if th.RateLimitRPS > 0 && th.OverloadWindow > 0 && th.OverloadThresholdPct > 0 {
		limit := float64(th.RateLimitRPS) * th.OverloadWindow.Seconds() * float64(th.OverloadThresholdPct) / 100
		if traffic.DenialCount(th.OverloadWindow) > 0 && float64(traffic.RequestCount(th.OverloadWindow)) > limit {
			return Result{StatusOverloaded, "overload_threshold"}
		}
	}
	if th.DegradedWindow > 0 && th.DegradedErrorPct > 0 {
		errors, total := traffic.ErrorRate(th.DegradedWindow)
		if total > 0 && float64(errors)*100/float64(total) >= float64(th.DegradedErrorPct) {
			return Result{StatusDegraded, "error_rate_breach"}
		}
	}
	return Result{StatusHealthy, ""}
}
