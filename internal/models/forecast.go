package models

import "time"

// Layouts used when a sample is rendered as a table or CSV label.
const (
	PointTimeLayout = "2006-01-02 15:04:05"
	DayLayout       = "2006-01-02"
)

// ForecastPoint is one provider sample. Timestamp is the provider wall clock with no zone attached.
type ForecastPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	Description string    `json:"description,omitempty"`
}

func (p ForecastPoint) DateLabel() string { return p.Timestamp.Format(PointTimeLayout) }

func (p ForecastPoint) Temp() float64 { return p.Temperature }

// ForecastSeries is the ordered multi-day series for one city.
type ForecastSeries struct {
	City           string          `json:"city"`
	TimezoneOffset int             `json:"timezoneOffset"`
	Points         []ForecastPoint `json:"points"`
}

// DailySample is the representative point of one calendar day.
type DailySample struct {
	Day         time.Time `json:"day"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
}

func (d DailySample) DateLabel() string { return d.Day.Format(DayLayout) }

func (d DailySample) Temp() float64 { return d.Temperature }
