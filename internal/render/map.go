// Package render writes the standalone artifacts handed to the user: a
// marker map as an HTML file and a plotted series as an SVG file. Only the
// shape of the data handed in is contractual; the rendering itself is
// deliberately simple.
package render

import (
	"fmt"
	"html/template"
	"os"

	"github.com/polairhq/polair/internal/airdata"
)

// Map defaults center on Poland.
const (
	mapCenterLat = 52.0
	mapCenterLon = 19.0
	mapZoom      = 6
)

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Stacje pomiarowe</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
	attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
{{range .Markers}}
L.circleMarker([{{.Lat}}, {{.Lon}}], {radius: 6, color: 'blue', fill: true})
	.bindPopup({{printf "%s (%s)" .Name .City}})
	.addTo(map);
{{end}}
</script>
</body>
</html>
`))

type mapData struct {
	CenterLat float64
	CenterLon float64
	Zoom      int
	Markers   []airdata.MapMarker
}

// WriteMap renders the station markers into a standalone HTML file at path.
func WriteMap(markers []airdata.MapMarker, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create map file: %w", err)
	}
	defer f.Close()

	data := mapData{
		CenterLat: mapCenterLat,
		CenterLon: mapCenterLon,
		Zoom:      mapZoom,
		Markers:   markers,
	}
	if err := mapTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	return nil
}
