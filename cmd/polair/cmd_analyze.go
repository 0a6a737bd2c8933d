package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/polairhq/polair/internal/airdata"
	"github.com/polairhq/polair/internal/render"
)

var (
	mapOutPath    string
	mapCityFilter string
	chartOutPath  string
	chartTitle    string
	nearestRadius float64
)

var statsCmd = &cobra.Command{
	Use:   "stats <sensor-id>",
	Short: "Compute statistics over the cached measurements of a sensor",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Render cached stations as a standalone HTML map",
	RunE:  runMap,
}

var chartCmd = &cobra.Command{
	Use:   "chart <sensor-id>",
	Short: "Render the cached measurements of a sensor as a standalone SVG chart",
	Args:  cobra.ExactArgs(1),
	RunE:  runChart,
}

var nearestCmd = &cobra.Command{
	Use:   "nearest <lat> <lon>",
	Short: "List cached stations within a radius of a point",
	Args:  cobra.ExactArgs(2),
	RunE:  runNearest,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(nearestCmd)

	mapCmd.Flags().StringVar(&mapOutPath, "out", "map.html", "output file")
	mapCmd.Flags().StringVar(&mapCityFilter, "city", "", "case-insensitive city name substring")
	chartCmd.Flags().StringVar(&chartOutPath, "out", "chart.svg", "output file")
	chartCmd.Flags().StringVar(&chartTitle, "title", "Pomiary", "chart title")
	nearestCmd.Flags().Float64Var(&nearestRadius, "radius", 30, "radius in kilometers")
}

func runStats(cmd *cobra.Command, args []string) error {
	sensorID, err := parseID(args[0], "sensor id")
	if err != nil {
		return err
	}

	ms, err := app.store.Measurements(cmd.Context(), sensorID, nil)
	if err != nil {
		return fmt.Errorf("load measurements: %w", err)
	}

	st := airdata.ComputeStats(ms)
	if !st.Valid {
		fmt.Println("no values to analyze")
		return nil
	}

	fmt.Printf("min:   %.2f at %s\n", st.Min, st.MinAt.Format(airdata.TimestampLayout))
	fmt.Printf("max:   %.2f at %s\n", st.Max, st.MaxAt.Format(airdata.TimestampLayout))
	fmt.Printf("avg:   %.2f\n", st.Avg)
	fmt.Printf("trend: %+.6f per hour\n", st.TrendSlope*3600)
	return nil
}

func runMap(cmd *cobra.Command, _ []string) error {
	stations, err := app.store.Stations(cmd.Context(), mapCityFilter)
	if err != nil {
		return fmt.Errorf("load stations: %w", err)
	}
	if len(stations) == 0 {
		fmt.Println("no cached stations; run `polair stations sync` first")
		return nil
	}

	markers := make([]airdata.MapMarker, 0, len(stations))
	for _, s := range stations {
		markers = append(markers, s.Marker())
	}
	if err := render.WriteMap(markers, mapOutPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s (%d stations)\n", mapOutPath, len(markers))
	return nil
}

func runChart(cmd *cobra.Command, args []string) error {
	sensorID, err := parseID(args[0], "sensor id")
	if err != nil {
		return err
	}

	ms, err := app.store.Measurements(cmd.Context(), sensorID, nil)
	if err != nil {
		return fmt.Errorf("load measurements: %w", err)
	}

	if err := render.WriteChart(ms, chartTitle, chartOutPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s (%d measurements)\n", chartOutPath, len(ms))
	return nil
}

func runNearest(cmd *cobra.Command, args []string) error {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q", args[0])
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q", args[1])
	}

	stations, err := app.store.Stations(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("load stations: %w", err)
	}

	nearby := airdata.NearestWithin(stations, lat, lon, nearestRadius)
	for _, sd := range nearby {
		fmt.Printf("%6.1f km  %d  %s (%s)\n",
			sd.Distance, sd.Station.ID, sd.Station.Name, orDash(sd.Station.CityName))
	}
	fmt.Printf("%d stations within %.0f km\n", len(nearby), nearestRadius)
	return nil
}
