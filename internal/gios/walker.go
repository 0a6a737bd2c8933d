package gios

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// defaultPageSize is the page size used for station and sensor listings.
	defaultPageSize = 200

	// archivalPageSize is the fixed page size of the archival fallback query.
	archivalPageSize = 30
)

// fallbackWindows are the trailing archival windows, in weeks, tried in order
// when current data is unavailable. The search is bounded: stations with a
// reporting cadence sparser than the widest window report "no data".
var fallbackWindows = []int{5, 10}

// API is the subset of the client the walker drives. Satisfied by *Client.
type API interface {
	StationsPage(ctx context.Context, page, size int) (map[string]any, error)
	StationSensorsPage(ctx context.Context, stationID int64, page, size int) (map[string]any, error)
	CurrentData(ctx context.Context, sensorID int64) (any, error)
	AirIndexData(ctx context.Context, id int64) (map[string]any, error)
	ArchivalData(ctx context.Context, sensorID int64, from, to time.Time, page, size int) (map[string]any, error)
}

// MeasurementSource identifies where a measurement series came from.
type MeasurementSource string

const (
	// SourceCurrent means the live endpoint had usable data.
	SourceCurrent MeasurementSource = "current"

	// SourceArchival means the archival fallback produced the data.
	SourceArchival MeasurementSource = "archival"

	// SourceNone means neither live nor archival data was available.
	SourceNone MeasurementSource = "none"
)

// WalkerConfig holds configuration for the Walker.
type WalkerConfig struct {
	API API

	// Logger for walk progress.
	Logger zerolog.Logger

	// PageSize for station and sensor listings (default: 200).
	PageSize int

	// Now supplies the archival fallback anchor (default: time.Now).
	Now func() time.Time
}

// Walker assembles full record sets across paginated responses and runs the
// archival fallback search when live data is unavailable. Each walk starts
// from page zero, so walks are restartable.
type Walker struct {
	api      API
	logger   zerolog.Logger
	pageSize int
	now      func() time.Time
}

// NewWalker creates a new Walker.
func NewWalker(cfg WalkerConfig) *Walker {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Walker{
		api:      cfg.API,
		logger:   cfg.Logger,
		pageSize: pageSize,
		now:      now,
	}
}

// AllStations fetches every page of the station listing. Pagination stops
// when the response links carry no "next" relation or "next" equals "self".
// A listing entry that is not a JSON object fails the whole walk.
func (w *Walker) AllStations(ctx context.Context) ([]map[string]any, error) {
	var all []map[string]any
	for page := 0; ; page++ {
		data, err := w.api.StationsPage(ctx, page, w.pageSize)
		if err != nil {
			return nil, err
		}

		items := listItems(data, keyStationList)
		if items == nil {
			items = listItems(data, keyStationListAlt)
		}
		for _, it := range items {
			rec, ok := it.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("station listing entry: got %T: %w", it, ErrNotMapping)
			}
			all = append(all, rec)
		}

		if lastPage(data) {
			break
		}
	}
	w.logger.Debug().Int("stations", len(all)).Msg("station walk complete")
	return all, nil
}

// StationSensors fetches every page of the sensor listing for a station. On
// top of the link-relation check, the walk is bounded by the response's
// totalPages count as a safety net against malformed link metadata. A listing
// entry that is not a JSON object fails the whole walk.
func (w *Walker) StationSensors(ctx context.Context, stationID int64) ([]map[string]any, error) {
	var all []map[string]any
	for page := 0; ; page++ {
		data, err := w.api.StationSensorsPage(ctx, stationID, page, w.pageSize)
		if err != nil {
			return nil, err
		}

		for _, it := range listItems(data, keySensorList) {
			rec, ok := it.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("sensor listing entry: got %T: %w", it, ErrNotMapping)
			}
			all = append(all, rec)
		}

		if lastPage(data) || page >= totalPages(data)-1 {
			break
		}
	}
	return all, nil
}

// MeasurementsWithFallback fetches the current measurement series for a
// sensor, falling back to archival windows when the live endpoint returns the
// error sentinel or no usable values. The fallback tries a 5-week and then a
// 10-week trailing window, both anchored at one "now" established when the
// fallback starts, querying page 0 with a fixed size of 30. When both windows
// are empty the result is SourceNone with no rows, not an error.
func (w *Walker) MeasurementsWithFallback(ctx context.Context, sensorID int64) ([]any, MeasurementSource, error) {
	payload, err := w.api.CurrentData(ctx, sensorID)
	if err != nil {
		return nil, SourceNone, err
	}

	if !IsErrorSentinel(payload) {
		rows := measurementRows(payload)
		if hasUsableValue(rows) {
			return rows, SourceCurrent, nil
		}
	}

	w.logger.Info().Int64("sensor_id", sensorID).Msg("no current data, searching archive")

	anchor := w.now()
	for _, weeks := range fallbackWindows {
		from := anchor.AddDate(0, 0, -7*weeks)
		data, err := w.api.ArchivalData(ctx, sensorID, from, anchor, 0, archivalPageSize)
		if err != nil {
			return nil, SourceNone, err
		}
		rows := listItems(data, keyArchivalList)
		if len(rows) > 0 {
			w.logger.Info().
				Int64("sensor_id", sensorID).
				Int("weeks", weeks).
				Int("rows", len(rows)).
				Msg("archival fallback hit")
			return rows, SourceArchival, nil
		}
	}

	return nil, SourceNone, nil
}

// AirIndex fetches the raw air index payload for a station or sensor id.
func (w *Walker) AirIndex(ctx context.Context, id int64) (map[string]any, error) {
	return w.api.AirIndexData(ctx, id)
}

// measurementRows extracts the row list from a current-data payload, which
// arrives either as a bare list or wrapped in the data-list envelope.
func measurementRows(payload any) []any {
	switch p := payload.(type) {
	case []any:
		return p
	case map[string]any:
		return listItems(p, keyDataList)
	default:
		return nil
	}
}

// hasUsableValue reports whether any row carries a present value, in either
// the flat "Wartość" shape or the nested "values" shape.
func hasUsableValue(rows []any) bool {
	for _, r := range rows {
		rec, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := rec["Wartość"]; ok && v != nil && v != "" {
			return true
		}
		if values, ok := rec["values"].([]any); ok {
			for _, e := range values {
				if pair, ok := e.(map[string]any); ok && pair["value"] != nil {
					return true
				}
			}
		}
	}
	return false
}

func listItems(data map[string]any, key string) []any {
	items, _ := data[key].([]any)
	return items
}

// lastPage inspects the pagination link relations: no links, no "next", or
// "next" equal to "self" all signal the final page.
func lastPage(data map[string]any) bool {
	links, ok := data["links"].(map[string]any)
	if !ok {
		return true
	}
	next, ok := links["next"]
	if !ok {
		return true
	}
	nextStr, _ := next.(string)
	selfStr, _ := links["self"].(string)
	return nextStr == "" || nextStr == selfStr
}

func totalPages(data map[string]any) int {
	if n, ok := asInt64(data["totalPages"]); ok {
		return int(n)
	}
	return 1
}
