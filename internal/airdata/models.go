// Package airdata holds the normalized air quality domain records and
// the pure computations (statistics, geo lookups) that operate on them.
package airdata

import "time"

// TimestampLayout is the canonical measurement timestamp format used by the
// upstream API and stored in the cache.
const TimestampLayout = "2006-01-02 15:04:05"

// Station represents a fixed physical air quality monitoring location.
type Station struct {
	// ID is the externally assigned, stable station identifier.
	ID int64

	// Code is the short station code (e.g. "DsWrocBartni").
	Code string

	// Name is the display name of the station.
	Name string

	// Lat and Lon are WGS84 decimal degrees.
	Lat float64
	Lon float64

	// Optional location attributes. Nil means the upstream record did not
	// carry the field, which is distinct from an empty string.
	CityID   *int64
	CityName *string
	Commune  *string
	District *string
	Province *string
	Street   *string
}

// Sensor represents a single pollutant-measuring instrument at a station.
type Sensor struct {
	// ID is the sensor identifier, assigned independently of the station.
	ID int64

	// StationID references the owning station.
	StationID int64

	// ParamName is the human-readable parameter label (e.g. "pył zawieszony PM10").
	ParamName string

	// ParamCode is the short parameter symbol (e.g. "PM10").
	ParamCode string

	// ParamFormula is the chemical formula, when provided.
	ParamFormula *string

	// ParamID is the numeric parameter-type identifier, when provided.
	ParamID *int64
}

// Measurement is one timestamped reading from a sensor. Identity is the
// (SensorID, At) pair; Value is nil when the upstream reported no value.
type Measurement struct {
	SensorID int64
	At       time.Time
	Value    *float64
}

// AirIndex is a computed categorical air quality rating for one pollutant
// parameter at a station.
type AirIndex struct {
	StationID int64

	// Param is the pollutant parameter name discovered from the response
	// keys (e.g. "PM10", "NO2", "C6H6").
	Param string

	// Value is the numeric index value, nil when absent.
	Value *float64

	// Category is the textual air quality category, nil when absent.
	Category *string

	// CalcAt is when the index was computed, nil when absent.
	CalcAt *time.Time
}

// MapMarker is the tuple handed to the map rendering collaborator.
type MapMarker struct {
	ID   int64
	Name string
	City string
	Lat  float64
	Lon  float64
}

// Marker converts a station to the shape the map renderer consumes.
func (s Station) Marker() MapMarker {
	city := ""
	if s.CityName != nil {
		city = *s.CityName
	}
	return MapMarker{ID: s.ID, Name: s.Name, City: city, Lat: s.Lat, Lon: s.Lon}
}
