package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polairhq/polair/internal/airdata"
	"github.com/polairhq/polair/internal/gios"
	"github.com/polairhq/polair/internal/ingest"
)

type fakeFetcher struct {
	stations    []map[string]any
	stationsErr error

	sensors []map[string]any

	rows    []any
	source  gios.MeasurementSource
	rowsErr error

	airIndex map[string]any
}

func (f *fakeFetcher) AllStations(context.Context) ([]map[string]any, error) {
	return f.stations, f.stationsErr
}

func (f *fakeFetcher) StationSensors(context.Context, int64) ([]map[string]any, error) {
	return f.sensors, nil
}

func (f *fakeFetcher) MeasurementsWithFallback(context.Context, int64) ([]any, gios.MeasurementSource, error) {
	return f.rows, f.source, f.rowsErr
}

func (f *fakeFetcher) AirIndex(context.Context, int64) (map[string]any, error) {
	return f.airIndex, nil
}

type fakeCache struct {
	stations     []airdata.Station
	sensors      []airdata.Sensor
	measurements []airdata.Measurement
	indexes      []airdata.AirIndex
	upsertErr    error
}

func (c *fakeCache) UpsertStations(_ context.Context, stations []airdata.Station) error {
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.stations = append(c.stations, stations...)
	return nil
}

func (c *fakeCache) UpsertSensors(_ context.Context, sensors []airdata.Sensor) error {
	c.sensors = append(c.sensors, sensors...)
	return nil
}

func (c *fakeCache) UpsertMeasurements(_ context.Context, ms []airdata.Measurement) error {
	c.measurements = append(c.measurements, ms...)
	return nil
}

func (c *fakeCache) UpsertAirIndexes(_ context.Context, indexes []airdata.AirIndex) error {
	c.indexes = append(c.indexes, indexes...)
	return nil
}

func newService(f *fakeFetcher, c *fakeCache) *ingest.Service {
	return ingest.NewService(ingest.ServiceConfig{
		Fetcher: f,
		Cache:   c,
		Logger:  zerolog.Nop(),
	})
}

func validRawStation(id int) map[string]any {
	return map[string]any{
		"Identyfikator stacji": float64(id),
		"Kod stacji":           "Code",
		"Nazwa stacji":         "Name",
		"WGS84 φ N":            float64(52.0),
		"WGS84 λ E":            float64(21.0),
	}
}

func TestSyncStations_Updated(t *testing.T) {
	fetcher := &fakeFetcher{stations: []map[string]any{validRawStation(1), validRawStation(2)}}
	cache := &fakeCache{}

	outcome, err := newService(fetcher, cache).SyncStations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ingest.StatusUpdated, outcome.Status)
	assert.Equal(t, 2, outcome.Records)
	assert.Len(t, cache.stations, 2)
}

func TestSyncStations_NormalizationFailureShortsWholeBatch(t *testing.T) {
	bad := validRawStation(2)
	delete(bad, "Kod stacji")
	fetcher := &fakeFetcher{stations: []map[string]any{validRawStation(1), bad}}
	cache := &fakeCache{}

	outcome, err := newService(fetcher, cache).SyncStations(context.Background())
	require.Error(t, err)

	var verr *gios.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, ingest.StatusFailed, outcome.Status)
	assert.Empty(t, cache.stations) // nothing reached the store
}

func TestSyncStations_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{stationsErr: errors.New("network down")}

	outcome, err := newService(fetcher, &fakeCache{}).SyncStations(context.Background())
	require.Error(t, err)
	assert.Equal(t, ingest.StatusFailed, outcome.Status)
}

func TestSyncStations_Empty(t *testing.T) {
	outcome, err := newService(&fakeFetcher{}, &fakeCache{}).SyncStations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ingest.StatusNoData, outcome.Status)
	assert.Equal(t, 0, outcome.Records)
}

func TestSyncStations_StoreFailure(t *testing.T) {
	fetcher := &fakeFetcher{stations: []map[string]any{validRawStation(1)}}
	cache := &fakeCache{upsertErr: errors.New("disk full")}

	outcome, err := newService(fetcher, cache).SyncStations(context.Background())
	require.Error(t, err)
	assert.Equal(t, ingest.StatusFailed, outcome.Status)
}

func TestSyncSensors_BothShapes(t *testing.T) {
	fetcher := &fakeFetcher{sensors: []map[string]any{
		{
			"id":        float64(672),
			"stationId": float64(117),
			"param": map[string]any{
				"paramCode": "PM10",
				"paramName": "pył zawieszony PM10",
			},
		},
		{
			"Identyfikator stanowiska": float64(673),
			"Identyfikator stacji":     float64(117),
			"Wskaźnik - kod":           "NO2",
			"Wskaźnik":                 "dwutlenek azotu",
		},
	}}
	cache := &fakeCache{}

	outcome, err := newService(fetcher, cache).SyncSensors(context.Background(), 117)
	require.NoError(t, err)

	assert.Equal(t, ingest.StatusUpdated, outcome.Status)
	assert.Equal(t, 2, outcome.Records)
	require.Len(t, cache.sensors, 2)
	assert.Equal(t, "PM10", cache.sensors[0].ParamCode)
	assert.Equal(t, "NO2", cache.sensors[1].ParamCode)
}

func TestSyncMeasurements_CurrentData(t *testing.T) {
	fetcher := &fakeFetcher{
		rows: []any{
			map[string]any{"Data": "2025-08-20 12:00:00", "Wartość": 42.5},
			map[string]any{"Data": "bad-date", "Wartość": 1.0},
		},
		source: gios.SourceCurrent,
	}
	cache := &fakeCache{}

	outcome, err := newService(fetcher, cache).SyncMeasurements(context.Background(), 672)
	require.NoError(t, err)

	assert.Equal(t, ingest.StatusUpdated, outcome.Status)
	assert.Equal(t, 1, outcome.Records)
	assert.Equal(t, 1, outcome.Skipped)
	assert.Equal(t, gios.SourceCurrent, outcome.Source)
	require.Len(t, cache.measurements, 1)
	assert.Equal(t, int64(672), cache.measurements[0].SensorID)
}

func TestSyncMeasurements_NoDataAnywhere(t *testing.T) {
	fetcher := &fakeFetcher{source: gios.SourceNone}
	cache := &fakeCache{}

	outcome, err := newService(fetcher, cache).SyncMeasurements(context.Background(), 672)
	require.NoError(t, err)

	assert.Equal(t, ingest.StatusNoData, outcome.Status)
	assert.Equal(t, gios.SourceNone, outcome.Source)
	assert.Empty(t, cache.measurements)
}

func TestSyncMeasurements_AllRowsMalformed(t *testing.T) {
	fetcher := &fakeFetcher{
		rows:   []any{"not-a-dict", map[string]any{"Data": "nope", "Wartość": 1.0}},
		source: gios.SourceArchival,
	}
	cache := &fakeCache{}

	outcome, err := newService(fetcher, cache).SyncMeasurements(context.Background(), 672)
	require.NoError(t, err)

	assert.Equal(t, ingest.StatusNoData, outcome.Status)
	assert.Equal(t, 2, outcome.Skipped)
	assert.Empty(t, cache.measurements)
}

func TestSyncAirIndex_Updated(t *testing.T) {
	fetcher := &fakeFetcher{airIndex: map[string]any{
		"AqIndex": map[string]any{
			"Wartość indeksu dla wskaźnika PM10":         float64(1),
			"Nazwa kategorii indeksu dla wskażnika PM10": "Dobry",
		},
	}}
	cache := &fakeCache{}

	outcome, err := newService(fetcher, cache).SyncAirIndex(context.Background(), 117)
	require.NoError(t, err)

	assert.Equal(t, ingest.StatusUpdated, outcome.Status)
	assert.Equal(t, 1, outcome.Records)
	require.Len(t, cache.indexes, 1)
	assert.Equal(t, int64(117), cache.indexes[0].StationID)
	assert.Equal(t, "PM10", cache.indexes[0].Param)
}

func TestSyncAirIndex_Sentinel(t *testing.T) {
	fetcher := &fakeFetcher{airIndex: map[string]any{"error_result": "Brak danych"}}
	cache := &fakeCache{}

	outcome, err := newService(fetcher, cache).SyncAirIndex(context.Background(), 117)
	require.NoError(t, err)

	assert.Equal(t, ingest.StatusNoData, outcome.Status)
	assert.Empty(t, cache.indexes)
}
