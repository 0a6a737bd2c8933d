package render_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polairhq/polair/internal/airdata"
	"github.com/polairhq/polair/internal/render"
)

func TestWriteMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.html")

	markers := []airdata.MapMarker{
		{ID: 117, Name: "Wrocław - Bartnicza", City: "Wrocław", Lat: 51.115933, Lon: 17.141125},
		{ID: 118, Name: "Warszawa-Ursynów", City: "Warszawa", Lat: 52.160772, Lon: 21.033819},
	}
	require.NoError(t, render.WriteMap(markers, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	html := string(content)
	assert.Contains(t, html, "leaflet")
	assert.Contains(t, html, "51.115933")
	assert.Contains(t, html, "Warszawa-Ursynów")
}

func TestWriteMap_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.html")
	require.NoError(t, render.WriteMap(nil, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "L.map")
}

func TestWriteChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.svg")

	base := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	v1, v2 := 42.5, 43.1
	ms := []airdata.Measurement{
		{SensorID: 672, At: base, Value: &v1},
		{SensorID: 672, At: base.Add(time.Hour), Value: &v2},
		{SensorID: 672, At: base.Add(2 * time.Hour), Value: nil}, // ignored
	}
	require.NoError(t, render.WriteChart(ms, "PM10", path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	svg := string(content)
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "polyline")
	assert.Contains(t, svg, "PM10")
}

func TestWriteChart_NoValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.svg")

	err := render.WriteChart(nil, "PM10", path)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}
