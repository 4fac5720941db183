// Package forecast reduces provider forecast series to daily tables and CSV exports.
package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// Defaults used by NewAggregator.
const (
	DefaultReference = 12 * time.Hour
	DefaultMaxDays   = 5
)

// Aggregator picks one sample per calendar day: the one whose time of day is
// nearest to Reference. At most MaxDays days are returned.
type Aggregator struct {
	Reference time.Duration
	MaxDays   int
}

// NewAggregator returns an Aggregator selecting the sample nearest noon over 5 days.
func NewAggregator() Aggregator {
	return Aggregator{Reference: DefaultReference, MaxDays: DefaultMaxDays}
}

// ParseReference parses an "HH:MM" time of day into an offset from midnight.
func ParseReference(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse reference time %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// DailyTable returns the representative sample per day in ascending date order.
// Points with a zero timestamp are ignored. Ties go to the earlier point.
func (a Aggregator) DailyTable(series models.ForecastSeries) []models.DailySample {
	maxDays := a.MaxDays
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}

	type pick struct {
		point models.ForecastPoint
		dist  time.Duration
	}
	byDay := make(map[time.Time]pick)
	for _, p := range series.Points {
		if p.Timestamp.IsZero() {
			continue
		}
		day := truncateToDay(p.Timestamp)
		dist := absDuration(p.Timestamp.Sub(day) - a.Reference)
		cur, ok := byDay[day]
		if !ok || dist < cur.dist || (dist == cur.dist && p.Timestamp.Before(cur.point.Timestamp)) {
			byDay[day] = pick{point: p, dist: dist}
		}
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if len(days) > maxDays {
		days = days[:maxDays]
	}

	out := make([]models.DailySample, 0, len(days))
	for _, d := range days {
		p := byDay[d].point
		out = append(out, models.DailySample{
			Day:         d,
			Temperature: p.Temperature,
			Humidity:    p.Humidity,
			WindSpeed:   p.WindSpeed,
		})
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
