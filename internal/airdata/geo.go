package airdata

import (
	"math"
	"sort"
)

// StationDistance pairs a station with its distance from a query point.
type StationDistance struct {
	Station  Station
	Distance float64 // kilometers
}

// NearestWithin returns the stations within radiusKM of the given point,
// sorted by distance ascending.
func NearestWithin(stations []Station, lat, lon, radiusKM float64) []StationDistance {
	var out []StationDistance
	for _, s := range stations {
		d := haversineKM(lat, lon, s.Lat, s.Lon)
		if d <= radiusKM {
			out = append(out, StationDistance{Station: s, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

// haversineKM calculates the great-circle distance between two points in
// kilometers using the Haversine formula.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371.0 // km

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
