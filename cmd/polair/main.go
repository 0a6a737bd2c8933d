// Command polair fetches air quality data from the GIOŚ REST API, caches it
// in a local SQLite database and renders tables, a station map and simple
// time series statistics.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/polairhq/polair/internal/config"
	"github.com/polairhq/polair/internal/gios"
	"github.com/polairhq/polair/internal/ingest"
	"github.com/polairhq/polair/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "polair",
	Short: "polair - GIOŚ air quality fetcher and browser",
	Long: `polair fetches station, sensor, measurement and air index data from
the Polish GIOŚ air quality API, caches it locally and lets you browse,
map and analyze it offline.`,
	SilenceUsage: true,
}

// app holds the wired dependencies shared by all commands.
type application struct {
	logger zerolog.Logger
	store  *store.Store
	walker *gios.Walker
	ingest *ingest.Service
}

var app *application

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
	if os.Getenv("POLAIR_DEBUG") != "" {
		logger = logger.Level(zerolog.DebugLevel)
	}

	cfg := config.FromEnv()

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open cache database")
		os.Exit(1)
	}
	defer st.Close()

	client := gios.NewClient(gios.ClientConfig{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  logger,
	})
	walker := gios.NewWalker(gios.WalkerConfig{API: client, Logger: logger})

	app = &application{
		logger: logger,
		store:  st,
		walker: walker,
		ingest: ingest.NewService(ingest.ServiceConfig{
			Fetcher: walker,
			Cache:   st,
			Logger:  logger,
		}),
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// reportOutcome prints the per-operation result line the way the user sees
// it: updated with a count, zero usable records, or the source it came from.
func reportOutcome(what string, outcome ingest.Outcome) {
	switch outcome.Status {
	case ingest.StatusUpdated:
		if outcome.Source != "" && outcome.Source != gios.SourceCurrent {
			fmt.Printf("%s: saved %d records (%d skipped, source: %s)\n",
				what, outcome.Records, outcome.Skipped, outcome.Source)
			return
		}
		fmt.Printf("%s: saved %d records (%d skipped)\n", what, outcome.Records, outcome.Skipped)
	case ingest.StatusNoData:
		fmt.Printf("%s: no usable data available\n", what)
	default:
		fmt.Printf("%s: failed\n", what)
	}
}
