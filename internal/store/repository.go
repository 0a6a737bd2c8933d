package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/polairhq/polair/internal/airdata"
)

// UpsertStations writes a station batch in one transaction. A conflicting
// row's mutable fields are fully replaced (last-write-wins at record
// granularity).
func (s *Store) UpsertStations(ctx context.Context, stations []airdata.Station) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO stations (id, code, name, lat, lon, city_id, city_name, commune, district, province, street)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				code=excluded.code, name=excluded.name, lat=excluded.lat, lon=excluded.lon,
				city_id=excluded.city_id, city_name=excluded.city_name,
				commune=excluded.commune, district=excluded.district,
				province=excluded.province, street=excluded.street`
		for _, st := range stations {
			if _, err := tx.ExecContext(ctx, query,
				st.ID, st.Code, st.Name, st.Lat, st.Lon,
				st.CityID, st.CityName, st.Commune, st.District, st.Province, st.Street,
			); err != nil {
				return fmt.Errorf("upsert station %d: %w", st.ID, err)
			}
		}
		return nil
	})
}

// UpsertSensors writes a sensor batch in one transaction.
func (s *Store) UpsertSensors(ctx context.Context, sensors []airdata.Sensor) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO sensors (id, station_id, param_name, param_formula, param_code, param_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				station_id=excluded.station_id, param_name=excluded.param_name,
				param_formula=excluded.param_formula, param_code=excluded.param_code,
				param_id=excluded.param_id`
		for _, sn := range sensors {
			if _, err := tx.ExecContext(ctx, query,
				sn.ID, sn.StationID, sn.ParamName, sn.ParamFormula, sn.ParamCode, sn.ParamID,
			); err != nil {
				return fmt.Errorf("upsert sensor %d: %w", sn.ID, err)
			}
		}
		return nil
	})
}

// UpsertMeasurements writes a measurement batch in one transaction, keyed by
// (sensor_id, dt) so repeated fetches overwrite the value rather than
// duplicate the row.
func (s *Store) UpsertMeasurements(ctx context.Context, ms []airdata.Measurement) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO measurements (sensor_id, dt, value) VALUES (?, ?, ?)
			ON CONFLICT(sensor_id, dt) DO UPDATE SET value=excluded.value`
		for _, m := range ms {
			if _, err := tx.ExecContext(ctx, query,
				m.SensorID, m.At.Format(airdata.TimestampLayout), m.Value,
			); err != nil {
				return fmt.Errorf("upsert measurement (%d, %s): %w",
					m.SensorID, m.At.Format(airdata.TimestampLayout), err)
			}
		}
		return nil
	})
}

// UpsertAirIndexes writes an air index batch in one transaction, deduplicated
// on (station_id, param).
func (s *Store) UpsertAirIndexes(ctx context.Context, indexes []airdata.AirIndex) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO air_index (station_id, param, value, category, calc_date)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(station_id, param) DO UPDATE SET
				value=excluded.value, category=excluded.category, calc_date=excluded.calc_date`
		for _, idx := range indexes {
			var calcDate *string
			if idx.CalcAt != nil {
				d := idx.CalcAt.Format(airdata.TimestampLayout)
				calcDate = &d
			}
			if _, err := tx.ExecContext(ctx, query,
				idx.StationID, idx.Param, idx.Value, idx.Category, calcDate,
			); err != nil {
				return fmt.Errorf("upsert air index (%d, %s): %w", idx.StationID, idx.Param, err)
			}
		}
		return nil
	})
}

// DeleteStation removes a station; sensors and measurements follow through
// the cascade relationships.
func (s *Store) DeleteStation(ctx context.Context, stationID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stations WHERE id = ?`, stationID)
	if err != nil {
		return fmt.Errorf("delete station %d: %w", stationID, err)
	}
	return nil
}

// Stations returns cached stations, optionally filtered by a case-insensitive
// substring match on the city name. Unfiltered results are ordered by
// province, city and name; filtered results by city and name.
func (s *Store) Stations(ctx context.Context, cityFilter string) ([]airdata.Station, error) {
	builder := sq.Select(
		"id", "code", "name", "lat", "lon",
		"city_id", "city_name", "commune", "district", "province", "street",
	).From("stations")

	if cityFilter != "" {
		builder = builder.
			Where(sq.Like{"LOWER(city_name)": "%" + strings.ToLower(cityFilter) + "%"}).
			OrderBy("city_name", "name")
	} else {
		builder = builder.OrderBy("province", "city_name", "name")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stations query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var stations []airdata.Station
	for rows.Next() {
		var (
			st       airdata.Station
			cityID   sql.NullInt64
			cityName sql.NullString
			commune  sql.NullString
			district sql.NullString
			province sql.NullString
			street   sql.NullString
		)
		if err := rows.Scan(
			&st.ID, &st.Code, &st.Name, &st.Lat, &st.Lon,
			&cityID, &cityName, &commune, &district, &province, &street,
		); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		st.CityID = nullInt(cityID)
		st.CityName = nullString(cityName)
		st.Commune = nullString(commune)
		st.District = nullString(district)
		st.Province = nullString(province)
		st.Street = nullString(street)
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// SensorsByStation returns the cached sensors of a station ordered by
// parameter code.
func (s *Store) SensorsByStation(ctx context.Context, stationID int64) ([]airdata.Sensor, error) {
	query, args, err := sq.Select("id", "station_id", "param_name", "param_formula", "param_code", "param_id").
		From("sensors").
		Where(sq.Eq{"station_id": stationID}).
		OrderBy("param_code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sensors query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sensors: %w", err)
	}
	defer rows.Close()

	var sensors []airdata.Sensor
	for rows.Next() {
		var (
			sn      airdata.Sensor
			formula sql.NullString
			paramID sql.NullInt64
		)
		if err := rows.Scan(&sn.ID, &sn.StationID, &sn.ParamName, &formula, &sn.ParamCode, &paramID); err != nil {
			return nil, fmt.Errorf("scan sensor: %w", err)
		}
		sn.ParamFormula = nullString(formula)
		sn.ParamID = nullInt(paramID)
		sensors = append(sensors, sn)
	}
	return sensors, rows.Err()
}

// Measurements returns the cached series of a sensor ordered by timestamp
// ascending. A non-nil since bounds the series from below, inclusive.
func (s *Store) Measurements(ctx context.Context, sensorID int64, since *time.Time) ([]airdata.Measurement, error) {
	builder := sq.Select("sensor_id", "dt", "value").
		From("measurements").
		Where(sq.Eq{"sensor_id": sensorID}).
		OrderBy("dt")

	if since != nil {
		builder = builder.Where(sq.GtOrEq{"dt": since.Format(airdata.TimestampLayout)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build measurements query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	var ms []airdata.Measurement
	for rows.Next() {
		var (
			m     airdata.Measurement
			dt    string
			value sql.NullFloat64
		)
		if err := rows.Scan(&m.SensorID, &dt, &value); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		at, err := time.Parse(airdata.TimestampLayout, dt)
		if err != nil {
			return nil, fmt.Errorf("parse cached timestamp %q: %w", dt, err)
		}
		m.At = at
		if value.Valid {
			v := value.Float64
			m.Value = &v
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

// AirIndexesByStation returns the cached air index entries of a station
// ordered by parameter name.
func (s *Store) AirIndexesByStation(ctx context.Context, stationID int64) ([]airdata.AirIndex, error) {
	query, args, err := sq.Select("station_id", "param", "value", "category", "calc_date").
		From("air_index").
		Where(sq.Eq{"station_id": stationID}).
		OrderBy("param").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build air index query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query air index: %w", err)
	}
	defer rows.Close()

	var indexes []airdata.AirIndex
	for rows.Next() {
		var (
			idx      airdata.AirIndex
			value    sql.NullFloat64
			category sql.NullString
			calcDate sql.NullString
		)
		if err := rows.Scan(&idx.StationID, &idx.Param, &value, &category, &calcDate); err != nil {
			return nil, fmt.Errorf("scan air index: %w", err)
		}
		if value.Valid {
			v := value.Float64
			idx.Value = &v
		}
		idx.Category = nullString(category)
		if calcDate.Valid {
			if at, err := time.Parse(airdata.TimestampLayout, calcDate.String); err == nil {
				idx.CalcAt = &at
			}
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func nullString(v sql.NullString) *string {
	if v.Valid {
		return &v.String
	}
	return nil
}

func nullInt(v sql.NullInt64) *int64 {
	if v.Valid {
		return &v.Int64
	}
	return nil
}
