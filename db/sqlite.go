package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"

	"github.com/sowmiyavani28/Flight-Analytics-App/models"
)

// SQLiteStore implements Store on SQLite via modernc.org/sqlite. It backs
// local single-file deployments and the test suite; timestamps are stored
// as RFC3339 strings.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database file at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS airport (
			airport_id INTEGER PRIMARY KEY AUTOINCREMENT,
			icao_code TEXT UNIQUE,
			iata_code TEXT UNIQUE,
			name TEXT,
			city TEXT,
			country TEXT,
			continent TEXT,
			latitude REAL,
			longitude REAL,
			timezone TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS aircraft (
			aircraft_id INTEGER PRIMARY KEY AUTOINCREMENT,
			registration TEXT UNIQUE,
			model TEXT,
			manufacturer TEXT,
			icao_type_code TEXT,
			owner TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS flights (
			flight_id TEXT PRIMARY KEY,
			flight_number TEXT,
			aircraft_registration TEXT,
			origin_iata TEXT,
			destination_iata TEXT,
			scheduled_departure TEXT,
			actual_departure TEXT,
			scheduled_arrival TEXT,
			actual_arrival TEXT,
			status TEXT,
			airline_code TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS airport_delays (
			delay_id INTEGER PRIMARY KEY AUTOINCREMENT,
			airport_iata TEXT,
			delay_date TEXT,
			total_flights INTEGER,
			delayed_flights INTEGER,
			avg_delay_min REAL,
			median_delay_min REAL,
			canceled_flights INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			description TEXT,
			created_at TEXT NOT NULL,
			last_used_at TEXT,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,

		`CREATE INDEX IF NOT EXISTS idx_flights_origin ON flights (origin_iata)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_destination ON flights (destination_iata)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_scheduled_departure ON flights (scheduled_departure DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_airline ON flights (airline_code)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_registration ON flights (aircraft_registration)`,
		`CREATE INDEX IF NOT EXISTS idx_airport_delays_airport_date ON airport_delays (airport_iata, delay_date)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error creating tables: %w", err)
		}
	}
	return nil
}

// SQLite extended result codes for constraint violations.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

func sqliteErr(err error) error {
	if err == nil {
		return nil
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		if code := serr.Code(); code == sqliteConstraintPrimaryKey || code == sqliteConstraintUnique {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
	}
	return err
}

// timeToString converts a nullable timestamp to its stored RFC3339 form.
func timeToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// stringToTime converts a stored RFC3339 string back to *time.Time.
// Returns nil for NULL, empty, or unparseable values.
func stringToTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func (s *SQLiteStore) UpsertAirport(ctx context.Context, a models.Airport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO airport (
			icao_code, iata_code, name, city, country, continent,
			latitude, longitude, timezone
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (iata_code) DO UPDATE SET
			icao_code = excluded.icao_code,
			name = excluded.name,
			city = excluded.city,
			country = excluded.country,
			continent = excluded.continent,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			timezone = excluded.timezone
	`, a.ICAOCode, a.IATACode, a.Name, a.City, a.Country, a.Continent,
		a.Latitude, a.Longitude, a.Timezone)
	return sqliteErr(err)
}

func (s *SQLiteStore) UpsertAircraft(ctx context.Context, a models.Aircraft) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO aircraft (
			registration, model, manufacturer, icao_type_code, owner
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (registration) DO UPDATE SET
			model = excluded.model,
			manufacturer = excluded.manufacturer,
			icao_type_code = excluded.icao_type_code,
			owner = excluded.owner
	`, a.Registration, a.Model, a.Manufacturer, a.ICAOTypeCode, a.Owner)
	return sqliteErr(err)
}

func (s *SQLiteStore) UpsertFlight(ctx context.Context, f models.Flight) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flights (
			flight_id, flight_number, aircraft_registration,
			origin_iata, destination_iata,
			scheduled_departure, actual_departure,
			scheduled_arrival, actual_arrival,
			status, airline_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (flight_id) DO UPDATE SET
			flight_number = excluded.flight_number,
			aircraft_registration = excluded.aircraft_registration,
			origin_iata = excluded.origin_iata,
			destination_iata = excluded.destination_iata,
			scheduled_departure = excluded.scheduled_departure,
			actual_departure = excluded.actual_departure,
			scheduled_arrival = excluded.scheduled_arrival,
			actual_arrival = excluded.actual_arrival,
			status = excluded.status,
			airline_code = excluded.airline_code
	`, f.FlightID, f.FlightNumber, f.AircraftRegistration,
		f.OriginIATA, f.DestinationIATA,
		timeToString(f.ScheduledDeparture), timeToString(f.ActualDeparture),
		timeToString(f.ScheduledArrival), timeToString(f.ActualArrival),
		f.Status, f.AirlineCode)
	return sqliteErr(err)
}

func (s *SQLiteStore) InsertDelaySummary(ctx context.Context, d models.AirportDelay) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO airport_delays (
			airport_iata, delay_date, total_flights,
			delayed_flights, avg_delay_min,
			median_delay_min, canceled_flights
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.AirportIATA, d.DelayDate, d.TotalFlights,
		d.DelayedFlights, d.AvgDelayMin,
		d.MedianDelayMin, d.CanceledFlights)
	return sqliteErr(err)
}

func (s *SQLiteStore) GetAirportByIATA(ctx context.Context, iata string) (*models.Airport, error) {
	var a models.Airport
	err := s.db.QueryRowContext(ctx, `
		SELECT airport_id, icao_code, iata_code, name, city, country,
			continent, latitude, longitude, timezone
		FROM airport
		WHERE iata_code = ?
	`, iata).Scan(
		&a.AirportID, &a.ICAOCode, &a.IATACode, &a.Name, &a.City,
		&a.Country, &a.Continent, &a.Latitude, &a.Longitude, &a.Timezone,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) GetAircraftByRegistration(ctx context.Context, reg string) (*models.Aircraft, error) {
	var a models.Aircraft
	err := s.db.QueryRowContext(ctx, `
		SELECT aircraft_id, registration, model, manufacturer,
			icao_type_code, owner
		FROM aircraft
		WHERE registration = ?
	`, reg).Scan(
		&a.AircraftID, &a.Registration, &a.Model, &a.Manufacturer,
		&a.ICAOTypeCode, &a.Owner,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const sqliteFlightColumns = `flight_id, flight_number, aircraft_registration,
	origin_iata, destination_iata,
	scheduled_departure, actual_departure,
	scheduled_arrival, actual_arrival,
	status, airline_code`

func scanSQLiteFlight(row interface{ Scan(...interface{}) error }) (models.Flight, error) {
	var f models.Flight
	var schedDep, actDep, schedArr, actArr *string
	err := row.Scan(
		&f.FlightID, &f.FlightNumber, &f.AircraftRegistration,
		&f.OriginIATA, &f.DestinationIATA,
		&schedDep, &actDep, &schedArr, &actArr,
		&f.Status, &f.AirlineCode,
	)
	if err != nil {
		return f, err
	}
	f.ScheduledDeparture = stringToTime(schedDep)
	f.ActualDeparture = stringToTime(actDep)
	f.ScheduledArrival = stringToTime(schedArr)
	f.ActualArrival = stringToTime(actArr)
	return f, nil
}

func (s *SQLiteStore) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	f, err := scanSQLiteFlight(s.db.QueryRowContext(ctx, `
		SELECT `+sqliteFlightColumns+`
		FROM flights
		WHERE flight_id = ?
	`, flightID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLiteStore) ListFlights(ctx context.Context, filter FlightFilter) ([]models.Flight, error) {
	query := `SELECT ` + sqliteFlightColumns + ` FROM flights WHERE 1=1`
	var args []interface{}

	if filter.AirlineCode != "" {
		query += " AND airline_code = ?"
		args = append(args, filter.AirlineCode)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		query += " AND scheduled_departure >= ?"
		args = append(args, *timeToString(filter.From))
	}
	if filter.To != nil {
		query += " AND scheduled_departure < ?"
		args = append(args, *timeToString(filter.To))
	}

	query += " ORDER BY scheduled_departure DESC LIMIT ?"
	args = append(args, normalizeLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		f, err := scanSQLiteFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (s *SQLiteStore) ListCancelledFlights(ctx context.Context, limit int) ([]models.Flight, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cancelledStatuses)), ", ")
	args := make([]interface{}, 0, len(cancelledStatuses)+1)
	for _, status := range cancelledStatuses {
		args = append(args, status)
	}
	args = append(args, normalizeLimit(limit))

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteFlightColumns+`
		FROM flights
		WHERE status IN (`+placeholders+`)
		ORDER BY scheduled_departure DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		f, err := scanSQLiteFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (s *SQLiteStore) ListDelaySummaries(ctx context.Context, airportIATA string, limit int) ([]models.AirportDelay, error) {
	query := `
		SELECT delay_id, airport_iata, delay_date, total_flights,
			delayed_flights, avg_delay_min, median_delay_min,
			canceled_flights
		FROM airport_delays`
	var args []interface{}
	if airportIATA != "" {
		query += " WHERE airport_iata = ?"
		args = append(args, airportIATA)
	}
	query += " ORDER BY delay_date DESC, delay_id DESC LIMIT ?"
	args = append(args, normalizeLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.AirportDelay
	for rows.Next() {
		var d models.AirportDelay
		if err := rows.Scan(
			&d.DelayID, &d.AirportIATA, &d.DelayDate, &d.TotalFlights,
			&d.DelayedFlights, &d.AvgDelayMin, &d.MedianDelayMin,
			&d.CanceledFlights,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, d)
	}
	return summaries, rows.Err()
}

func (s *SQLiteStore) GetOverview(ctx context.Context) (*Overview, error) {
	var o Overview
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM flights),
			(SELECT COUNT(*) FROM aircraft),
			(SELECT COUNT(*) FROM airport),
			(SELECT COUNT(DISTINCT airline_code) FROM flights WHERE airline_code IS NOT NULL)
	`).Scan(&o.TotalFlights, &o.TotalAircraft, &o.TotalAirports, &o.Airlines)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *SQLiteStore) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM flights
		GROUP BY status
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) FlightsByAircraftModel(ctx context.Context, limit int) ([]ModelCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.model, COUNT(f.flight_id) AS total_flights
		FROM flights f
		JOIN aircraft a ON f.aircraft_registration = a.registration
		WHERE a.model IS NOT NULL AND a.model <> ''
		GROUP BY a.model
		ORDER BY total_flights DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []ModelCount
	for rows.Next() {
		var c ModelCount
		if err := rows.Scan(&c.Model, &c.Flights); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) TopAirports(ctx context.Context, direction string, limit int) ([]AirportCount, error) {
	joinColumn := "origin_iata"
	if direction == "arrival" {
		joinColumn = "destination_iata"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ap.name, COUNT(*) AS movements
		FROM flights f
		JOIN airport ap ON f.`+joinColumn+` = ap.iata_code
		GROUP BY ap.name
		ORDER BY movements DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []AirportCount
	for rows.Next() {
		var c AirportCount
		if err := rows.Scan(&c.Name, &c.Flights); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) AirlinePerformance(ctx context.Context) ([]AirlineStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			airline_code,
			SUM(CASE WHEN status IN ('Departed', 'Arrived') THEN 1 ELSE 0 END) AS on_time,
			SUM(CASE WHEN status = 'Delayed' THEN 1 ELSE 0 END) AS delayed,
			SUM(CASE WHEN status IN ('Canceled', 'CanceledUncertain') THEN 1 ELSE 0 END) AS cancelled
		FROM flights
		WHERE airline_code IS NOT NULL
		GROUP BY airline_code
		ORDER BY airline_code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []AirlineStats
	for rows.Next() {
		var a AirlineStats
		if err := rows.Scan(&a.AirlineCode, &a.OnTime, &a.Delayed, &a.Cancelled); err != nil {
			return nil, err
		}
		stats = append(stats, a)
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) CreateAPIKey(ctx context.Context, key, description string) (*APIKey, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (key, description, created_at, is_active)
		VALUES (?, ?, ?, 1)
	`, key, description, now.Format(time.RFC3339))
	if err != nil {
		return nil, sqliteErr(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &APIKey{
		ID:          id,
		Key:         key,
		Description: description,
		CreatedAt:   now,
		IsActive:    true,
	}, nil
}

func (s *SQLiteStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, description, created_at, last_used_at, is_active
		FROM api_keys
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var createdAt string
		var lastUsedAt *string
		if err := rows.Scan(&k.ID, &k.Key, &k.Description, &createdAt, &lastUsedAt, &k.IsActive); err != nil {
			return nil, err
		}
		if t := stringToTime(&createdAt); t != nil {
			k.CreatedAt = *t
		}
		k.LastUsedAt = stringToTime(lastUsedAt)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) DeleteAPIKey(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) TouchAPIKey(ctx context.Context, key string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE api_keys
		SET last_used_at = ?
		WHERE key = ? AND is_active = 1
	`, time.Now().UTC().Format(time.RFC3339), key)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
