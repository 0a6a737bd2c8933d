package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Manage station sensors",
}

var sensorsSyncCmd = &cobra.Command{
	Use:   "sync <station-id>",
	Short: "Fetch the sensors of a station and save them to the cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runSensorsSync,
}

var sensorsListCmd = &cobra.Command{
	Use:   "list <station-id>",
	Short: "List the cached sensors of a station",
	Args:  cobra.ExactArgs(1),
	RunE:  runSensorsList,
}

func init() {
	rootCmd.AddCommand(sensorsCmd)
	sensorsCmd.AddCommand(sensorsSyncCmd)
	sensorsCmd.AddCommand(sensorsListCmd)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected a number", what, arg)
	}
	return id, nil
}

func runSensorsSync(cmd *cobra.Command, args []string) error {
	stationID, err := parseID(args[0], "station id")
	if err != nil {
		return err
	}

	outcome, err := app.ingest.SyncSensors(cmd.Context(), stationID)
	if err != nil {
		return fmt.Errorf("sync sensors: %w", err)
	}
	reportOutcome(fmt.Sprintf("sensors of station %d", stationID), outcome)
	return nil
}

func runSensorsList(cmd *cobra.Command, args []string) error {
	stationID, err := parseID(args[0], "station id")
	if err != nil {
		return err
	}

	sensors, err := app.store.SensorsByStation(cmd.Context(), stationID)
	if err != nil {
		return fmt.Errorf("list sensors: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME")
	for _, s := range sensors {
		fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.ParamCode, s.ParamName)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("%d sensors\n", len(sensors))
	return nil
}
