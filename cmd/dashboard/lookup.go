package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/weather-dashboard/internal/service"
)

func (a *app) currentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current <city>",
		Short: "Print current conditions and recommendations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			dash, err := a.dashboard(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			view, err := dash.Current(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printCurrent(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func printCurrent(w io.Writer, v service.CurrentView) {
	fmt.Fprintf(w, "Weather in %s\n", v.Conditions.City)
	fmt.Fprintf(w, "Temperature: %s\n", v.Temperature)
	fmt.Fprintf(w, "Humidity:    %s\n", v.Humidity)
	fmt.Fprintf(w, "Condition:   %s\n", v.Conditions.Condition)
	fmt.Fprintf(w, "Wind Speed:  %s\n", v.WindSpeed)
	fmt.Fprintf(w, "Sunrise:     %s\n", v.Conditions.Sunrise)
	fmt.Fprintf(w, "Sunset:      %s\n", v.Conditions.Sunset)
	fmt.Fprintln(w, "Recommendations:")
	for _, r := range v.Recommendations {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}

func (a *app) forecastCmd() *cobra.Command {
	var (
		daily  bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "forecast <city>",
		Short: "Print the forecast as CSV",
		Long:  "Print the forecast as CSV: one row per day by default, every sample with --daily=false",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			dash, err := a.dashboard(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			view := service.ViewDaily
			if !daily {
				view = service.ViewRaw
			}
			body, err := dash.ForecastCSV(ctx, strings.Join(args, " "), view)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().BoolVar(&daily, "daily", true, "one representative sample per day")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV to file instead of stdout")
	return cmd
}
