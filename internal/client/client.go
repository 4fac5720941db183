package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kjstillabower/weather-dashboard/internal/localtime"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

type WeatherClient interface {
	FetchCurrent(ctx context.Context, city string) (models.CurrentConditions, error)
	FetchForecast(ctx context.Context, city string) (models.ForecastSeries, error)
}

var (
	ErrInvalidAPIKey       = errors.New("invalid API key")
	ErrNotFound            = errors.New("city not found")
	ErrUpstreamUnavailable = errors.New("weather service unavailable")
	ErrMalformedResponse   = errors.New("malformed response")
)

// Endpoint labels for metrics.
const (
	EndpointCurrent  = "current"
	EndpointForecast = "forecast"
)

const maxBodyBytes = 4 << 20

type OpenWeatherClient struct {
	apiKey      string
	currentURL  string
	forecastURL string
	client      *http.Client
	now         func() time.Time
}

func NewOpenWeatherClient(apiKey, currentURL, forecastURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	for _, raw := range []string{currentURL, forecastURL} {
		if _, err := url.Parse(raw); err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", raw, err)
		}
	}

	return &OpenWeatherClient{
		apiKey:      apiKey,
		currentURL:  currentURL,
		forecastURL: forecastURL,
		client: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}, nil
}

type currentResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys *struct {
		Sunrise *int64 `json:"sunrise"`
		Sunset  *int64 `json:"sunset"`
	} `json:"sys"`
	Timezone int `json:"timezone"`
}

type forecastResponse struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  *struct {
			Temp     *float64 `json:"temp"`
			Humidity int      `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

// FetchCurrent returns current conditions for city. A blank city fails with
// validation.ErrEmptyInput without any network call.
func (c *OpenWeatherClient) FetchCurrent(ctx context.Context, city string) (models.CurrentConditions, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return models.CurrentConditions{}, validation.ErrEmptyInput
	}

	body, err := c.get(ctx, EndpointCurrent, c.currentURL, city)
	if err != nil {
		return models.CurrentConditions{}, err
	}

	var apiResp currentResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.CurrentConditions{}, c.malformed(EndpointCurrent, fmt.Errorf("parse response: %w", err))
	}
	result, err := c.mapCurrent(apiResp, city)
	if err != nil {
		return models.CurrentConditions{}, c.malformed(EndpointCurrent, err)
	}
	return result, nil
}

// FetchForecast returns the provider's multi-day series for city in provider order.
func (c *OpenWeatherClient) FetchForecast(ctx context.Context, city string) (models.ForecastSeries, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return models.ForecastSeries{}, validation.ErrEmptyInput
	}

	body, err := c.get(ctx, EndpointForecast, c.forecastURL, city)
	if err != nil {
		return models.ForecastSeries{}, err
	}

	var apiResp forecastResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.ForecastSeries{}, c.malformed(EndpointForecast, fmt.Errorf("parse response: %w", err))
	}
	result, err := mapForecast(apiResp, city)
	if err != nil {
		return models.ForecastSeries{}, c.malformed(EndpointForecast, err)
	}
	return result, nil
}

// get performs one GET and returns the body of a 200 response.
func (c *OpenWeatherClient) get(ctx context.Context, endpoint, rawURL, city string) ([]byte, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, rawURL, city)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	if corrID := observability.CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.WeatherAPIDuration.WithLabelValues(endpoint, "error").Observe(duration)
		return nil, c.recordError(endpoint, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err))
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(endpoint, status).Observe(duration)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, c.recordError(endpoint, fmt.Errorf("%w: HTTP %d", ErrNotFound, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.recordError(endpoint, fmt.Errorf("%w: read response body: %w", ErrUpstreamUnavailable, err))
	}
	return body, nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, rawURL, city string) (*http.Request, error) {
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := baseURL.Query()
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *OpenWeatherClient) mapCurrent(apiResp currentResponse, city string) (models.CurrentConditions, error) {
	if apiResp.Main == nil || apiResp.Main.Temp == nil || apiResp.Main.Humidity == nil {
		return models.CurrentConditions{}, errors.New("missing main.temp or main.humidity")
	}
	if h := *apiResp.Main.Humidity; h < 0 || h > 100 {
		return models.CurrentConditions{}, fmt.Errorf("humidity %d out of range", h)
	}
	if apiResp.Sys == nil || apiResp.Sys.Sunrise == nil || apiResp.Sys.Sunset == nil {
		return models.CurrentConditions{}, errors.New("missing sys.sunrise or sys.sunset")
	}
	if len(apiResp.Weather) == 0 {
		return models.CurrentConditions{}, errors.New("missing weather[0]")
	}

	description := apiResp.Weather[0].Description
	if description == "" {
		description = apiResp.Weather[0].Main
	}

	name := apiResp.Name
	if name == "" {
		name = city
	}

	return models.CurrentConditions{
		City:           name,
		Temperature:    *apiResp.Main.Temp,
		Humidity:       *apiResp.Main.Humidity,
		Condition:      titleCase(description),
		Description:    description,
		WindSpeed:      apiResp.Wind.Speed,
		Sunrise:        localtime.Format(*apiResp.Sys.Sunrise, apiResp.Timezone),
		Sunset:         localtime.Format(*apiResp.Sys.Sunset, apiResp.Timezone),
		TimezoneOffset: apiResp.Timezone,
		Timestamp:      c.now(),
	}, nil
}

func mapForecast(apiResp forecastResponse, city string) (models.ForecastSeries, error) {
	if apiResp.List == nil {
		return models.ForecastSeries{}, errors.New("missing list")
	}

	points := make([]models.ForecastPoint, 0, len(apiResp.List))
	for i, item := range apiResp.List {
		if item.Main == nil || item.Main.Temp == nil {
			return models.ForecastSeries{}, fmt.Errorf("list[%d]: missing main.temp", i)
		}
		if item.Main.Humidity < 0 || item.Main.Humidity > 100 {
			return models.ForecastSeries{}, fmt.Errorf("list[%d]: humidity %d out of range", i, item.Main.Humidity)
		}
		ts, err := time.Parse(models.PointTimeLayout, item.DtTxt)
		if err != nil {
			return models.ForecastSeries{}, fmt.Errorf("list[%d]: parse dt_txt: %w", i, err)
		}
		p := models.ForecastPoint{
			Timestamp:   ts,
			Temperature: *item.Main.Temp,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
		}
		if len(item.Weather) > 0 {
			p.Description = item.Weather[0].Description
		}
		points = append(points, p)
	}

	name := apiResp.City.Name
	if name == "" {
		name = city
	}
	return models.ForecastSeries{
		City:           name,
		TimezoneOffset: apiResp.City.Timezone,
		Points:         points,
	}, nil
}

// titleCase upper-cases the first letter of each word. A Caser is stateful, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

func (c *OpenWeatherClient) malformed(endpoint string, err error) error {
	return c.recordError(endpoint, fmt.Errorf("%w: %w", ErrMalformedResponse, err))
}

func (c *OpenWeatherClient) recordError(endpoint string, err error) error {
	observability.WeatherAPIErrorsTotal.WithLabelValues(endpoint, string(CategorizeError(err))).Inc()
	return err
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
