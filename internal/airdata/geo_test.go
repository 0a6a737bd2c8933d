package airdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polairhq/polair/internal/airdata"
)

func TestNearestWithin(t *testing.T) {
	stations := []airdata.Station{
		{ID: 1, Name: "Warszawa-Centrum", Lat: 52.2297, Lon: 21.0122},
		{ID: 2, Name: "Piastów", Lat: 52.1840, Lon: 20.8396},
		{ID: 3, Name: "Kraków-Kurdwanów", Lat: 50.0104, Lon: 19.9490},
	}

	// Query from central Warsaw with a 30 km radius: Kraków is ~250 km away.
	got := airdata.NearestWithin(stations, 52.2319, 21.0067, 30)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].Station.ID)
	assert.Equal(t, int64(2), got[1].Station.ID)
	assert.Less(t, got[0].Distance, got[1].Distance)
}

func TestNearestWithin_Empty(t *testing.T) {
	stations := []airdata.Station{
		{ID: 3, Name: "Kraków-Kurdwanów", Lat: 50.0104, Lon: 19.9490},
	}

	got := airdata.NearestWithin(stations, 52.2319, 21.0067, 10)
	assert.Empty(t, got)
}
