package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var stationsCityFilter string

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Manage monitoring stations",
}

var stationsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch all stations from the API and save them to the cache",
	RunE:  runStationsSync,
}

var stationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached stations, optionally filtered by city",
	RunE:  runStationsList,
}

func init() {
	rootCmd.AddCommand(stationsCmd)
	stationsCmd.AddCommand(stationsSyncCmd)
	stationsCmd.AddCommand(stationsListCmd)
	stationsListCmd.Flags().StringVar(&stationsCityFilter, "city", "", "case-insensitive city name substring")
}

func runStationsSync(cmd *cobra.Command, _ []string) error {
	outcome, err := app.ingest.SyncStations(cmd.Context())
	if err != nil {
		return fmt.Errorf("sync stations: %w", err)
	}
	reportOutcome("stations", outcome)
	return nil
}

func runStationsList(cmd *cobra.Command, _ []string) error {
	stations, err := app.store.Stations(cmd.Context(), stationsCityFilter)
	if err != nil {
		return fmt.Errorf("list stations: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCITY\tCOMMUNE\tDISTRICT\tPROVINCE\tLAT\tLON")
	for _, s := range stations {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.6f\t%.6f\n",
			s.ID, s.Name, orDash(s.CityName), orDash(s.Commune),
			orDash(s.District), orDash(s.Province), s.Lat, s.Lon)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("%d stations\n", len(stations))
	return nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "—"
	}
	return *s
}
