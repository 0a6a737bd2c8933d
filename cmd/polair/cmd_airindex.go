package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/polairhq/polair/internal/airdata"
)

var airindexCmd = &cobra.Command{
	Use:   "airindex",
	Short: "Manage computed air quality indexes",
}

var airindexSyncCmd = &cobra.Command{
	Use:   "sync <station-id>",
	Short: "Fetch the air quality index of a station and save it to the cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runAirindexSync,
}

var airindexListCmd = &cobra.Command{
	Use:   "list <station-id>",
	Short: "List the cached air quality index of a station",
	Args:  cobra.ExactArgs(1),
	RunE:  runAirindexList,
}

func init() {
	rootCmd.AddCommand(airindexCmd)
	airindexCmd.AddCommand(airindexSyncCmd)
	airindexCmd.AddCommand(airindexListCmd)
}

func runAirindexSync(cmd *cobra.Command, args []string) error {
	stationID, err := parseID(args[0], "station id")
	if err != nil {
		return err
	}

	outcome, err := app.ingest.SyncAirIndex(cmd.Context(), stationID)
	if err != nil {
		return fmt.Errorf("sync air index: %w", err)
	}
	reportOutcome(fmt.Sprintf("air index of station %d", stationID), outcome)
	return nil
}

func runAirindexList(cmd *cobra.Command, args []string) error {
	stationID, err := parseID(args[0], "station id")
	if err != nil {
		return err
	}

	indexes, err := app.store.AirIndexesByStation(cmd.Context(), stationID)
	if err != nil {
		return fmt.Errorf("list air index: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tVALUE\tCATEGORY\tCALCULATED")
	for _, idx := range indexes {
		value := "—"
		if idx.Value != nil {
			value = fmt.Sprintf("%.0f", *idx.Value)
		}
		calcAt := "—"
		if idx.CalcAt != nil {
			calcAt = idx.CalcAt.Format(airdata.TimestampLayout)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", idx.Param, value, orDash(idx.Category), calcAt)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("%d parameters\n", len(indexes))
	return nil
}
