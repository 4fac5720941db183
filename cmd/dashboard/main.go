package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/config"
	"github.com/kjstillabower/weather-dashboard/internal/forecast"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries what every subcommand needs. Tests replace the loaders.
type app struct {
	logger     *zap.Logger
	loadConfig func() (*config.Config, error)
	newClient  func(cfg *config.Config) (client.WeatherClient, error)
}

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	a := &app{
		logger:     logger,
		loadConfig: config.Load,
		newClient:  openWeatherClient,
	}
	if err := a.rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "weather-dashboard",
		Short:         "Weather dashboard",
		Long:          "Current conditions, recommendations and 5-day forecasts served as a web dashboard",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.currentCmd())
	root.AddCommand(a.forecastCmd())
	return root
}

func openWeatherClient(cfg *config.Config) (client.WeatherClient, error) {
	return client.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.WeatherAPICurrentURL, cfg.WeatherAPIForecastURL, cfg.WeatherAPITimeout)
}

// dashboard builds the lookup service from config.
func (a *app) dashboard(cfg *config.Config) (*service.DashboardService, error) {
	weatherClient, err := a.newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("weather client: %w", err)
	}
	agg := forecast.Aggregator{Reference: cfg.ForecastReference, MaxDays: cfg.ForecastMaxDays}
	return service.NewDashboardService(weatherClient, agg, cfg.CityMinLength, cfg.CityMaxLength), nil
}
