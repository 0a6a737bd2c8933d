// Package gios provides a client for the GIOŚ (Polish Chief Inspectorate of
// Environmental Protection) air quality REST API, together with the
// normalization of its loosely structured payloads into domain records.
package gios

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/polairhq/polair/internal/airdata"
)

// Envelope keys and dynamic key fragments used by the upstream API. Field
// names are Polish natural-language labels, reproduced verbatim.
const (
	keyStationList    = "Lista stacji pomiarowych"
	keyStationListAlt = "Lista stacji pomiarów"
	keySensorList     = "Lista stanowisk pomiarowych dla podanej stacji"
	keyDataList       = "Lista danych pomiarowych"
	keyArchivalList   = "Lista archiwalnych wyników pomiarów"
	keyAqIndex        = "AqIndex"
	keyErrorSentinel  = "error_result"

	indexValuePrefix = "Wartość indeksu dla wskaźnika "
	// The category key uses the upstream's own spelling ("wskażnika").
	indexCategoryPrefix = "Nazwa kategorii indeksu dla wskażnika "
	indexCalcDatePrefix = "Data wykonania obliczeń indeksu dla wskaźnika "
)

// ErrNotMapping is returned when a record that must be a JSON object is not.
var ErrNotMapping = errors.New("record is not a mapping")

// ValidationError reports a required field that is absent or untypeable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: field %q %s", e.Field, e.Reason)
}

// NormalizeStation converts one raw station record into a Station.
// Identifier, code, name and both coordinates are required; the remaining
// location attributes are optional and map to nil when absent.
func NormalizeStation(raw map[string]any) (airdata.Station, error) {
	id, err := requireInt(raw, "Identyfikator stacji")
	if err != nil {
		return airdata.Station{}, err
	}
	code, err := requireString(raw, "Kod stacji")
	if err != nil {
		return airdata.Station{}, err
	}
	name, err := requireString(raw, "Nazwa stacji")
	if err != nil {
		return airdata.Station{}, err
	}
	lat, err := requireFloat(raw, "WGS84 φ N")
	if err != nil {
		return airdata.Station{}, err
	}
	lon, err := requireFloat(raw, "WGS84 λ E")
	if err != nil {
		return airdata.Station{}, err
	}

	return airdata.Station{
		ID:       id,
		Code:     code,
		Name:     name,
		Lat:      lat,
		Lon:      lon,
		CityID:   optionalInt(raw, "Identyfikator miasta"),
		CityName: optionalString(raw, "Nazwa miasta"),
		Commune:  optionalString(raw, "Gmina"),
		District: optionalString(raw, "Powiat"),
		Province: optionalString(raw, "Województwo"),
		Street:   optionalString(raw, "Ulica"),
	}, nil
}

// NormalizeSensor converts one raw sensor record into a Sensor. Two shapes
// appear upstream and are tried in order: the nested-parameter shape
// ({id, stationId, param:{...}}) and the flat Polish-key shape.
func NormalizeSensor(raw any) (airdata.Sensor, error) {
	rec, ok := raw.(map[string]any)
	if !ok {
		return airdata.Sensor{}, fmt.Errorf("normalize sensor: got %T: %w", raw, ErrNotMapping)
	}

	if param, ok := rec["param"].(map[string]any); ok {
		id, err := requireInt(rec, "id")
		if err != nil {
			return airdata.Sensor{}, err
		}
		stationID, err := requireInt(rec, "stationId")
		if err != nil {
			return airdata.Sensor{}, err
		}
		return airdata.Sensor{
			ID:           id,
			StationID:    stationID,
			ParamCode:    stringOrEmpty(param, "paramCode"),
			ParamName:    stringOrEmpty(param, "paramName"),
			ParamFormula: optionalString(param, "paramFormula"),
			ParamID:      optionalInt(param, "idParam"),
		}, nil
	}

	id, err := requireInt(rec, "Identyfikator stanowiska")
	if err != nil {
		return airdata.Sensor{}, err
	}
	stationID, err := requireInt(rec, "Identyfikator stacji")
	if err != nil {
		return airdata.Sensor{}, err
	}
	return airdata.Sensor{
		ID:           id,
		StationID:    stationID,
		ParamCode:    stringOrEmpty(rec, "Wskaźnik - kod"),
		ParamName:    stringOrEmpty(rec, "Wskaźnik"),
		ParamFormula: optionalString(rec, "Wskaźnik - wzór"),
	}, nil
}

// MeasurementBatch is the outcome of normalizing a raw measurement series:
// the records that parsed plus a count of the entries dropped along the way.
type MeasurementBatch struct {
	Measurements []airdata.Measurement
	Skipped      int
}

// NormalizeMeasurements converts a raw measurement payload (a single record
// or a list of records) into measurements. Two record shapes are accepted: a
// record with a nested "values" list of {date, value} pairs, and a flat row
// with "Data"/"Wartość" fields as returned by the current and archival data
// endpoints. Entries with an absent value or an unparsable timestamp are
// skipped, never raised; non-mapping records are skipped too. The sensor id
// is taken from the record when present, otherwise fallbackSensorID is used.
func NormalizeMeasurements(data any, fallbackSensorID int64) MeasurementBatch {
	var batch MeasurementBatch
	if data == nil {
		return batch
	}

	records, ok := data.([]any)
	if !ok {
		records = []any{data}
	}

	for _, r := range records {
		rec, ok := r.(map[string]any)
		if !ok {
			batch.Skipped++
			continue
		}

		sensorID := fallbackSensorID
		if id, ok := asInt64(rec["id"]); ok {
			sensorID = id
		}

		if values, ok := rec["values"].([]any); ok {
			for _, v := range values {
				pair, ok := v.(map[string]any)
				if !ok {
					batch.Skipped++
					continue
				}
				appendPoint(&batch, sensorID, pair["date"], pair["value"])
			}
			continue
		}

		// Flat "Data"/"Wartość" row.
		if _, ok := rec["Data"]; ok {
			appendPoint(&batch, sensorID, rec["Data"], rec["Wartość"])
			continue
		}

		batch.Skipped++
	}

	return batch
}

// appendPoint validates one (date, value) pair and appends it, counting the
// pair as skipped when the value is absent or the date does not parse.
func appendPoint(batch *MeasurementBatch, sensorID int64, rawDate, rawValue any) {
	value, ok := asFloat64(rawValue)
	if !ok {
		batch.Skipped++
		return
	}

	dateStr, ok := rawDate.(string)
	if !ok {
		batch.Skipped++
		return
	}
	at, err := time.Parse(airdata.TimestampLayout, dateStr)
	if err != nil {
		batch.Skipped++
		return
	}

	batch.Measurements = append(batch.Measurements, airdata.Measurement{
		SensorID: sensorID,
		At:       at,
		Value:    &value,
	})
}

// NormalizeAirIndex extracts the per-pollutant index entries from a raw air
// index response. Parameter names are discovered by scanning for keys with
// the index value prefix; the category and computation date are looked up
// through companion keys composed from the discovered name and left nil when
// the companion key is absent or malformed. Results are ordered by parameter
// name.
func NormalizeAirIndex(raw map[string]any, stationID int64) []airdata.AirIndex {
	rec := raw
	switch aq := raw[keyAqIndex].(type) {
	case map[string]any:
		rec = aq
	case []any:
		if len(aq) > 0 {
			if first, ok := aq[0].(map[string]any); ok {
				rec = first
			}
		}
	}

	var indexes []airdata.AirIndex
	for key, val := range rec {
		if !strings.HasPrefix(key, indexValuePrefix) {
			continue
		}
		param := strings.TrimPrefix(key, indexValuePrefix)

		idx := airdata.AirIndex{StationID: stationID, Param: param}
		if v, ok := asFloat64(val); ok {
			idx.Value = &v
		}
		if cat, ok := rec[indexCategoryPrefix+param].(string); ok {
			idx.Category = &cat
		}
		if ds, ok := rec[indexCalcDatePrefix+param].(string); ok {
			if at, err := parseCalcDate(ds); err == nil {
				idx.CalcAt = &at
			}
		}
		indexes = append(indexes, idx)
	}

	sort.Slice(indexes, func(i, j int) bool {
		return indexes[i].Param < indexes[j].Param
	})
	return indexes
}

// parseCalcDate accepts the canonical timestamp layout or RFC 3339.
func parseCalcDate(s string) (time.Time, error) {
	if at, err := time.Parse(airdata.TimestampLayout, s); err == nil {
		return at, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Typed field accessors. JSON decoding yields float64 for numbers, but the
// upstream also ships numeric values as strings (coordinates in particular),
// so both are accepted.

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func requireInt(rec map[string]any, key string) (int64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, &ValidationError{Field: key, Reason: "is required"}
	}
	n, ok := asInt64(v)
	if !ok {
		return 0, &ValidationError{Field: key, Reason: "is not numeric"}
	}
	return n, nil
}

func requireFloat(rec map[string]any, key string) (float64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, &ValidationError{Field: key, Reason: "is required"}
	}
	f, ok := asFloat64(v)
	if !ok {
		return 0, &ValidationError{Field: key, Reason: "is not numeric"}
	}
	return f, nil
}

func requireString(rec map[string]any, key string) (string, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return "", &ValidationError{Field: key, Reason: "is required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: key, Reason: "is not a string"}
	}
	return s, nil
}

func stringOrEmpty(rec map[string]any, key string) string {
	if s, ok := rec[key].(string); ok {
		return s
	}
	return ""
}

func optionalString(rec map[string]any, key string) *string {
	if s, ok := rec[key].(string); ok {
		return &s
	}
	return nil
}

func optionalInt(rec map[string]any, key string) *int64 {
	if v, ok := rec[key]; ok && v != nil {
		if n, ok := asInt64(v); ok {
			return &n
		}
	}
	return nil
}
