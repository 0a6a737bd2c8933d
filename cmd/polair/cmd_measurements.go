package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/polairhq/polair/internal/airdata"
)

var measurementsSince string

var measurementsCmd = &cobra.Command{
	Use:   "measurements",
	Short: "Manage sensor measurements",
}

var measurementsSyncCmd = &cobra.Command{
	Use:   "sync <sensor-id>",
	Short: "Fetch the measurement series of a sensor and save it to the cache",
	Long: `Fetches the current measurement series of a sensor. When the API reports
no current data, the archive is searched with a 5-week and then a 10-week
trailing window before giving up.`,
	Args: cobra.ExactArgs(1),
	RunE: runMeasurementsSync,
}

var measurementsListCmd = &cobra.Command{
	Use:   "list <sensor-id>",
	Short: "List the cached measurements of a sensor",
	Args:  cobra.ExactArgs(1),
	RunE:  runMeasurementsList,
}

func init() {
	rootCmd.AddCommand(measurementsCmd)
	measurementsCmd.AddCommand(measurementsSyncCmd)
	measurementsCmd.AddCommand(measurementsListCmd)
	measurementsListCmd.Flags().StringVar(&measurementsSince, "since", "",
		`inclusive lower bound, "2006-01-02 15:04:05"`)
}

func runMeasurementsSync(cmd *cobra.Command, args []string) error {
	sensorID, err := parseID(args[0], "sensor id")
	if err != nil {
		return err
	}

	outcome, err := app.ingest.SyncMeasurements(cmd.Context(), sensorID)
	if err != nil {
		return fmt.Errorf("sync measurements: %w", err)
	}
	reportOutcome(fmt.Sprintf("measurements of sensor %d", sensorID), outcome)
	return nil
}

func sinceFilter() (*time.Time, error) {
	if measurementsSince == "" {
		return nil, nil
	}
	at, err := time.Parse(airdata.TimestampLayout, measurementsSince)
	if err != nil {
		return nil, fmt.Errorf("invalid --since %q: expected %q", measurementsSince, airdata.TimestampLayout)
	}
	return &at, nil
}

func runMeasurementsList(cmd *cobra.Command, args []string) error {
	sensorID, err := parseID(args[0], "sensor id")
	if err != nil {
		return err
	}
	since, err := sinceFilter()
	if err != nil {
		return err
	}

	ms, err := app.store.Measurements(cmd.Context(), sensorID, since)
	if err != nil {
		return fmt.Errorf("list measurements: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tVALUE")
	for _, m := range ms {
		value := "—"
		if m.Value != nil {
			value = fmt.Sprintf("%.2f", *m.Value)
		}
		fmt.Fprintf(w, "%s\t%s\n", m.At.Format(airdata.TimestampLayout), value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("%d measurements\n", len(ms))
	return nil
}
