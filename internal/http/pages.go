package http

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/service"
	"github.com/kjstillabower/weather-dashboard/internal/session"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// User-facing messages.
const (
	MsgEmptyCity        = "Please enter a city name!"
	MsgInvalidCity      = "Please enter a valid city name!"
	MsgCityNotFound     = "City not found! Please enter a valid city name."
	MsgForecastFailed   = "Failed to fetch forecast data. Check API key or city name."
	MsgAnalysisFailed   = "Error fetching weather data! Please try a different city."
	MsgUnavailable      = "Weather service is unavailable. Please try again later."
	MsgMalformed        = "Received an unexpected response from the weather service."
	MsgNoForecastData   = "No forecast data available."
	MsgNoCityForAnalyze = "No city entered! Go to the Home page and enter a city."
)

// Home page actions.
const (
	ActionWeather  = "weather"
	ActionForecast = "forecast"
	ActionChart    = "chart"
)

// Pages holds the parsed page templates.
type Pages struct {
	tmpl *template.Template
}

// LoadPages parses the embedded templates.
func LoadPages() (*Pages, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"temperature": service.FormatTemperature,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl}, nil
}

func (p *Pages) render(w io.Writer, name string, data any) error {
	return p.tmpl.ExecuteTemplate(w, name, data)
}

// homePage is the data behind home.html.
type homePage struct {
	Title    string
	City     string
	Warning  string
	Error    string
	Current  *service.CurrentView
	Forecast *forecastBlock
	Chart    *chartData
}

type forecastBlock struct {
	City     string
	Days     []models.DailySample
	DailyCSV string
	RawCSV   string
}

// chartData is serialized into the page script.
type chartData struct {
	Labels       []string  `json:"labels"`
	Temperatures []float64 `json:"temperatures"`
	Humidity     []int     `json:"humidity,omitempty"`
	Wind         []float64 `json:"wind,omitempty"`
}

// analysisPage is the data behind analysis.html.
type analysisPage struct {
	Title   string
	City    string
	Warning string
	Error   string
	Trends  *trendBlock
}

type trendBlock struct {
	City  string
	Rows  []models.DailySample
	Chart chartData
}

// renderHome builds the home page for one submission. pc is the session's page context;
// the returned context carries the submitted city when it is non-blank.
func renderHome(ctx context.Context, dash Dashboard, pc session.PageContext, city, action string) (homePage, session.PageContext) {
	page := homePage{Title: "Weather App", City: pc.City}
	if action == "" {
		if city != "" {
			page.City = city
		}
		return page, pc
	}

	page.City = city
	next := pc.WithCity(city)

	switch action {
	case ActionWeather:
		view, err := dash.Current(ctx, city)
		if err != nil {
			page.Warning, page.Error = userMessage(err, MsgCityNotFound)
			return page, next
		}
		page.Current = &view

	case ActionForecast, ActionChart:
		view, err := dash.Forecast(ctx, city)
		if err != nil {
			page.Warning, page.Error = userMessage(err, MsgForecastFailed)
			return page, next
		}
		if action == ActionForecast {
			page.Forecast = &forecastBlock{
				City:     view.Series.City,
				Days:     view.Daily,
				DailyCSV: csvURL(city, service.ViewDaily),
				RawCSV:   csvURL(city, service.ViewRaw),
			}
		} else {
			page.Chart = rawChart(view.Series)
		}

	default:
		page.Warning = "Unknown action."
	}
	return page, next
}

// renderAnalysis builds the analysis page. A non-blank city argument replaces the session city.
func renderAnalysis(ctx context.Context, dash Dashboard, pc session.PageContext, city string) (analysisPage, session.PageContext) {
	next := pc.WithCity(city)
	page := analysisPage{Title: "Weather Analysis", City: next.City}
	if next.City == "" {
		page.Warning = MsgNoCityForAnalyze
		return page, next
	}

	view, err := dash.Forecast(ctx, next.City)
	if err != nil {
		page.Warning, page.Error = userMessage(err, MsgAnalysisFailed)
		return page, next
	}

	trend := &trendBlock{City: view.Series.City, Rows: view.Daily}
	for _, d := range view.Daily {
		trend.Chart.Labels = append(trend.Chart.Labels, d.DateLabel())
		trend.Chart.Temperatures = append(trend.Chart.Temperatures, d.Temperature)
		trend.Chart.Humidity = append(trend.Chart.Humidity, d.Humidity)
		trend.Chart.Wind = append(trend.Chart.Wind, d.WindSpeed)
	}
	page.Trends = trend
	return page, next
}

func rawChart(series models.ForecastSeries) *chartData {
	c := &chartData{}
	for _, p := range series.Points {
		c.Labels = append(c.Labels, p.DateLabel())
		c.Temperatures = append(c.Temperatures, p.Temperature)
	}
	return c
}

func csvURL(city, view string) string {
	q := url.Values{}
	q.Set("city", city)
	q.Set("view", view)
	return "/forecast.csv?" + q.Encode()
}

// userMessage converts a lookup error to a (warning, error) message pair.
// notFound is the page-specific text for an unresolvable city.
func userMessage(err error, notFound string) (warning, errMsg string) {
	switch {
	case errors.Is(err, validation.ErrEmptyInput):
		return MsgEmptyCity, ""
	case validation.IsInvalidInput(err):
		return MsgInvalidCity, ""
	case errors.Is(err, client.ErrNotFound):
		return "", notFound
	case errors.Is(err, client.ErrMalformedResponse):
		return "", MsgMalformed
	default:
		return "", MsgUnavailable
	}
}
