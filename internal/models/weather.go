package models

import "time"

// CurrentConditions is the current-weather record for one city.
type CurrentConditions struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Condition   string  `json:"condition"`
	// Description is the provider text before title-casing; recommendations match on it.
	Description    string    `json:"description"`
	WindSpeed      float64   `json:"windSpeed"`
	Sunrise        string    `json:"sunrise"`
	Sunset         string    `json:"sunset"`
	TimezoneOffset int       `json:"timezoneOffset"`
	Timestamp      time.Time `json:"timestamp"`
}
