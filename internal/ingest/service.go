// Package ingest drives the fetch → normalize → store pipeline and reports a
// distinct outcome per operation so the presentation layer can render
// "updated N records", "no usable data" or "failed" without re-deriving it.
package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/polairhq/polair/internal/airdata"
	"github.com/polairhq/polair/internal/gios"
)

// Status classifies the result of one sync operation.
type Status string

const (
	// StatusUpdated means records were normalized and stored.
	StatusUpdated Status = "updated"

	// StatusNoData means the operation succeeded but produced zero usable
	// records (empty upstream data, sentinel response, exhausted fallback).
	StatusNoData Status = "no_data"

	// StatusFailed means the operation failed; the error says why.
	StatusFailed Status = "failed"
)

// Outcome summarizes one sync operation.
type Outcome struct {
	Status  Status
	Records int
	Skipped int

	// Source is set for measurement syncs: current, archival or none.
	Source gios.MeasurementSource
}

// Fetcher is the walker-side dependency. Satisfied by *gios.Walker.
type Fetcher interface {
	AllStations(ctx context.Context) ([]map[string]any, error)
	StationSensors(ctx context.Context, stationID int64) ([]map[string]any, error)
	MeasurementsWithFallback(ctx context.Context, sensorID int64) ([]any, gios.MeasurementSource, error)
	AirIndex(ctx context.Context, id int64) (map[string]any, error)
}

// Cache is the store-side dependency. Satisfied by *store.Store.
type Cache interface {
	UpsertStations(ctx context.Context, stations []airdata.Station) error
	UpsertSensors(ctx context.Context, sensors []airdata.Sensor) error
	UpsertMeasurements(ctx context.Context, ms []airdata.Measurement) error
	UpsertAirIndexes(ctx context.Context, indexes []airdata.AirIndex) error
}

// ServiceConfig holds dependencies for the ingest service.
type ServiceConfig struct {
	Fetcher Fetcher
	Cache   Cache
	Logger  zerolog.Logger
}

// Service runs fetch-and-store sequences. Each sequence normalizes the whole
// batch before any write, so a normalization failure keeps the cache
// untouched. Batches for distinct operations may run from separate
// goroutines; the store serializes commits.
type Service struct {
	fetcher Fetcher
	cache   Cache
	logger  zerolog.Logger
}

// NewService creates a new ingest service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		fetcher: cfg.Fetcher,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
}

// SyncStations fetches the full station listing, normalizes it and upserts
// the batch. Any station failing validation aborts the whole sync before the
// store is touched.
func (s *Service) SyncStations(ctx context.Context) (Outcome, error) {
	raw, err := s.fetcher.AllStations(ctx)
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("fetch stations: %w", err)
	}

	stations := make([]airdata.Station, 0, len(raw))
	for _, rec := range raw {
		station, err := gios.NormalizeStation(rec)
		if err != nil {
			return Outcome{Status: StatusFailed}, fmt.Errorf("normalize station: %w", err)
		}
		stations = append(stations, station)
	}

	if len(stations) == 0 {
		return Outcome{Status: StatusNoData}, nil
	}

	if err := s.cache.UpsertStations(ctx, stations); err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("store stations: %w", err)
	}

	s.logger.Info().Int("stations", len(stations)).Msg("stations synced")
	return Outcome{Status: StatusUpdated, Records: len(stations)}, nil
}

// SyncSensors fetches, normalizes and upserts the sensors of one station.
func (s *Service) SyncSensors(ctx context.Context, stationID int64) (Outcome, error) {
	raw, err := s.fetcher.StationSensors(ctx, stationID)
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("fetch sensors for station %d: %w", stationID, err)
	}

	sensors := make([]airdata.Sensor, 0, len(raw))
	for _, rec := range raw {
		sensor, err := gios.NormalizeSensor(rec)
		if err != nil {
			return Outcome{Status: StatusFailed}, fmt.Errorf("normalize sensor: %w", err)
		}
		sensors = append(sensors, sensor)
	}

	if len(sensors) == 0 {
		return Outcome{Status: StatusNoData}, nil
	}

	if err := s.cache.UpsertSensors(ctx, sensors); err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("store sensors: %w", err)
	}

	s.logger.Info().Int64("station_id", stationID).Int("sensors", len(sensors)).Msg("sensors synced")
	return Outcome{Status: StatusUpdated, Records: len(sensors)}, nil
}

// SyncMeasurements fetches the measurement series of one sensor (falling
// back to archival windows when live data is unavailable), filters it
// best-effort and upserts what parsed. Malformed entries are counted, not
// fatal.
func (s *Service) SyncMeasurements(ctx context.Context, sensorID int64) (Outcome, error) {
	rows, source, err := s.fetcher.MeasurementsWithFallback(ctx, sensorID)
	if err != nil {
		return Outcome{Status: StatusFailed, Source: source}, fmt.Errorf("fetch measurements for sensor %d: %w", sensorID, err)
	}
	if source == gios.SourceNone {
		return Outcome{Status: StatusNoData, Source: source}, nil
	}

	batch := gios.NormalizeMeasurements(rows, sensorID)
	if len(batch.Measurements) == 0 {
		return Outcome{Status: StatusNoData, Skipped: batch.Skipped, Source: source}, nil
	}

	if err := s.cache.UpsertMeasurements(ctx, batch.Measurements); err != nil {
		return Outcome{Status: StatusFailed, Source: source}, fmt.Errorf("store measurements: %w", err)
	}

	s.logger.Info().
		Int64("sensor_id", sensorID).
		Int("measurements", len(batch.Measurements)).
		Int("skipped", batch.Skipped).
		Str("source", string(source)).
		Msg("measurements synced")
	return Outcome{
		Status:  StatusUpdated,
		Records: len(batch.Measurements),
		Skipped: batch.Skipped,
		Source:  source,
	}, nil
}

// SyncAirIndex fetches the computed air quality index of one station and
// upserts the per-parameter entries, deduplicated on (station, parameter).
func (s *Service) SyncAirIndex(ctx context.Context, stationID int64) (Outcome, error) {
	raw, err := s.fetcher.AirIndex(ctx, stationID)
	if err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("fetch air index for station %d: %w", stationID, err)
	}
	if gios.IsErrorSentinel(raw) {
		return Outcome{Status: StatusNoData}, nil
	}

	indexes := gios.NormalizeAirIndex(raw, stationID)
	if len(indexes) == 0 {
		return Outcome{Status: StatusNoData}, nil
	}

	if err := s.cache.UpsertAirIndexes(ctx, indexes); err != nil {
		return Outcome{Status: StatusFailed}, fmt.Errorf("store air index: %w", err)
	}

	s.logger.Info().Int64("station_id", stationID).Int("parameters", len(indexes)).Msg("air index synced")
	return Outcome{Status: StatusUpdated, Records: len(indexes)}, nil
}
