package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/polairhq/polair/internal/airdata"
)

// White-box: reaches into the pool to prove the pragmas hold on every
// connection, not just the one Open happened to configure.
func TestForeignKeys_EnforcedOnFreshConnections(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "polair_test.db"), zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	// Force every statement onto a brand new connection.
	s.db.SetMaxIdleConns(0)
	s.db.SetConnMaxLifetime(time.Nanosecond)

	ctx := context.Background()
	require.NoError(t, s.UpsertStations(ctx, []airdata.Station{
		{ID: 117, Code: "DsWrocBartni", Name: "Wrocław - Bartnicza", Lat: 51.115933, Lon: 17.141125},
	}))

	err = s.UpsertSensors(ctx, []airdata.Sensor{
		{ID: 1, StationID: 9999, ParamCode: "PM10", ParamName: "pył zawieszony PM10"}, // no such station
	})
	require.Error(t, err)

	sensors, err := s.SensorsByStation(ctx, 117)
	require.NoError(t, err)
	require.Empty(t, sensors)
}
