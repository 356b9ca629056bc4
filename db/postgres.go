package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/sowmiyavani28/Flight-Analytics-App/models"
)

// PostgresStore implements Store on PostgreSQL via lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection with the given lib/pq connection
// string and verifies it with a ping.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// CreateSchema creates the four tables plus the api_keys table if they do
// not exist yet. Safe to call on every startup.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS airport (
			airport_id SERIAL PRIMARY KEY,
			icao_code VARCHAR(4) UNIQUE,
			iata_code VARCHAR(3) UNIQUE,
			name VARCHAR(255),
			city VARCHAR(100),
			country VARCHAR(100),
			continent VARCHAR(50),
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			timezone VARCHAR(64)
		)`,
		`CREATE TABLE IF NOT EXISTS aircraft (
			aircraft_id SERIAL PRIMARY KEY,
			registration VARCHAR(16) UNIQUE,
			model VARCHAR(255),
			manufacturer VARCHAR(255),
			icao_type_code VARCHAR(8),
			owner VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS flights (
			flight_id VARCHAR(64) PRIMARY KEY,
			flight_number VARCHAR(16),
			aircraft_registration VARCHAR(16),
			origin_iata VARCHAR(3),
			destination_iata VARCHAR(3),
			scheduled_departure TIMESTAMP WITH TIME ZONE,
			actual_departure TIMESTAMP WITH TIME ZONE,
			scheduled_arrival TIMESTAMP WITH TIME ZONE,
			actual_arrival TIMESTAMP WITH TIME ZONE,
			status VARCHAR(32),
			airline_code VARCHAR(8)
		)`,
		`CREATE TABLE IF NOT EXISTS airport_delays (
			delay_id SERIAL PRIMARY KEY,
			airport_iata VARCHAR(3),
			delay_date DATE,
			total_flights INTEGER,
			delayed_flights INTEGER,
			avg_delay_min DOUBLE PRECISION,
			median_delay_min DOUBLE PRECISION,
			canceled_flights INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id SERIAL PRIMARY KEY,
			key VARCHAR(64) NOT NULL UNIQUE,
			description TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			last_used_at TIMESTAMP WITH TIME ZONE,
			is_active BOOLEAN NOT NULL DEFAULT true
		)`,

		// Indexes
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

// pgErr maps unique-constraint violations to ErrDuplicate so callers can
// tell duplicate ingestion apart from other storage failures.
func pgErr(err error) error {
	if err == nil {
		return nil
	}
	var perr *pq.Error
	if errors.As(err, &perr) && perr.Code == "23505" {
		return fmt.Errorf("%w (%s)", ErrDuplicate, perr.Constraint)
	}
	return err
}

// UpsertAirport inserts an airport, updating mutable fields when the IATA
// code already exists. A conflict on a different unique code (ICAO)
// surfaces as ErrDuplicate.
func (s *PostgresStore) UpsertAirport(ctx context.Context, a models.Airport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO airport (
			icao_code, iata_code, name, city, country, continent,
			latitude, longitude, timezone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (iata_code) DO UPDATE SET
			icao_code = EXCLUDED.icao_code,
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			continent = EXCLUDED.continent,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			timezone = EXCLUDED.timezone
	`, a.ICAOCode, a.IATACode, a.Name, a.City, a.Country, a.Continent,
		a.Latitude, a.Longitude, a.Timezone)
	return pgErr(err)
}

func (s *PostgresStore) UpsertAircraft(ctx context.Context, a models.Aircraft) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO aircraft (
			registration, model, manufacturer, icao_type_code, owner
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (registration) DO UPDATE SET
			model = EXCLUDED.model,
			manufacturer = EXCLUDED.manufacturer,
			icao_type_code = EXCLUDED.icao_type_code,
			owner = EXCLUDED.owner
	`, a.Registration, a.Model, a.Manufacturer, a.ICAOTypeCode, a.Owner)
	return pgErr(err)
}

// UpsertFlight inserts or replaces a flight keyed by its identifier.
// Re-ingesting the same leg fills in actual times and status in place.
func (s *PostgresStore) UpsertFlight(ctx context.Context, f models.Flight) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flights (
			flight_id, flight_number, aircraft_registration,
			origin_iata, destination_iata,
			scheduled_departure, actual_departure,
			scheduled_arrival, actual_arrival,
			status, airline_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (flight_id) DO UPDATE SET
			flight_number = EXCLUDED.flight_number,
			aircraft_registration = EXCLUDED.aircraft_registration,
			origin_iata = EXCLUDED.origin_iata,
			destination_iata = EXCLUDED.destination_iata,
			scheduled_departure = EXCLUDED.scheduled_departure,
			actual_departure = EXCLUDED.actual_departure,
			scheduled_arrival = EXCLUDED.scheduled_arrival,
			actual_arrival = EXCLUDED.actual_arrival,
			status = EXCLUDED.status,
			airline_code = EXCLUDED.airline_code
	`, f.FlightID, f.FlightNumber, f.AircraftRegistration,
		f.OriginIATA, f.DestinationIATA,
		f.ScheduledDeparture, f.ActualDeparture,
		f.ScheduledArrival, f.ActualArrival,
		f.Status, f.AirlineCode)
	return pgErr(err)
}

// InsertDelaySummary appends one daily aggregate row. No dedup: two rows
// for the same airport and date both persist.
func (s *PostgresStore) InsertDelaySummary(ctx context.Context, d models.AirportDelay) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO airport_delays (
			airport_iata, delay_date, total_flights,
			delayed_flights, avg_delay_min,
			median_delay_min, canceled_flights
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.AirportIATA, d.DelayDate, d.TotalFlights,
		d.DelayedFlights, d.AvgDelayMin,
		d.MedianDelayMin, d.CanceledFlights)
	return pgErr(err)
}

func (s *PostgresStore) GetAirportByIATA(ctx context.Context, iata string) (*models.Airport, error) {
	var a models.Airport
	err := s.db.QueryRowContext(ctx, `
		SELECT airport_id, icao_code, iata_code, name, city, country,
			continent, latitude, longitude, timezone
		FROM airport
		WHERE iata_code = $1
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

func (s *PostgresStore) GetAircraftByRegistration(ctx context.Context, reg string) (*models.Aircraft, error) {
	var a models.Aircraft
	err := s.db.QueryRowContext(ctx, `
		SELECT aircraft_id, registration, model, manufacturer,
			icao_type_code, owner
		FROM aircraft
		WHERE registration = $1
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

const pgFlightColumns = `flight_id, flight_number, aircraft_registration,
	origin_iata, destination_iata,
	scheduled_departure, actual_departure,
	scheduled_arrival, actual_arrival,
	status, airline_code`

func scanPGFlight(row interface{ Scan(...interface{}) error }) (models.Flight, error) {
	var f models.Flight
	err := row.Scan(
		&f.FlightID, &f.FlightNumber, &f.AircraftRegistration,
		&f.OriginIATA, &f.DestinationIATA,
		&f.ScheduledDeparture, &f.ActualDeparture,
		&f.ScheduledArrival, &f.ActualArrival,
		&f.Status, &f.AirlineCode,
	)
	return f, err
}

func (s *PostgresStore) GetFlight(ctx context.Context, flightID string) (*models.Flight, error) {
	f, err := scanPGFlight(s.db.QueryRowContext(ctx, `
		SELECT `+pgFlightColumns+`
		FROM flights
		WHERE flight_id = $1
	`, flightID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *PostgresStore) ListFlights(ctx context.Context, filter FlightFilter) ([]models.Flight, error) {
	query := `SELECT ` + pgFlightColumns + ` FROM flights WHERE 1=1`
	var args []interface{}

	if filter.AirlineCode != "" {
		args = append(args, filter.AirlineCode)
		query += fmt.Sprintf(" AND airline_code = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND scheduled_departure >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND scheduled_departure < $%d", len(args))
	}

	args = append(args, normalizeLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY scheduled_departure DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		f, err := scanPGFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (s *PostgresStore) ListCancelledFlights(ctx context.Context, limit int) ([]models.Flight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pgFlightColumns+`
		FROM flights
		WHERE status = ANY($1)
		ORDER BY scheduled_departure DESC
		LIMIT $2
	`, pq.Array(cancelledStatuses), normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		f, err := scanPGFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (s *PostgresStore) ListDelaySummaries(ctx context.Context, airportIATA string, limit int) ([]models.AirportDelay, error) {
	query := `
		SELECT delay_id, airport_iata, delay_date::text, total_flights,
			delayed_flights, avg_delay_min, median_delay_min,
			canceled_flights
		FROM airport_delays`
	var args []interface{}
	if airportIATA != "" {
		args = append(args, airportIATA)
		query += fmt.Sprintf(" WHERE airport_iata = $%d", len(args))
	}
	args = append(args, normalizeLimit(limit))
	query += fmt.Sprintf(" ORDER BY delay_date DESC, delay_id DESC LIMIT $%d", len(args))

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

func (s *PostgresStore) GetOverview(ctx context.Context) (*Overview, error) {
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

func (s *PostgresStore) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
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

func (s *PostgresStore) FlightsByAircraftModel(ctx context.Context, limit int) ([]ModelCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.model, COUNT(f.flight_id) AS total_flights
		FROM flights f
		JOIN aircraft a ON f.aircraft_registration = a.registration
		WHERE a.model IS NOT NULL AND a.model <> ''
		GROUP BY a.model
		ORDER BY total_flights DESC
		LIMIT $1
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

// TopAirports returns the busiest airports by departures or arrivals.
// The join is soft: flights referencing an airport that was never
// ingested are simply absent from the result.
func (s *PostgresStore) TopAirports(ctx context.Context, direction string, limit int) ([]AirportCount, error) {
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
		LIMIT $1
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

func (s *PostgresStore) AirlinePerformance(ctx context.Context) ([]AirlineStats, error) {
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

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key, description string) (*APIKey, error) {
	var k APIKey
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO api_keys (key, description)
		VALUES ($1, $2)
		RETURNING id, key, description, created_at, is_active
	`, key, description).Scan(&k.ID, &k.Key, &k.Description, &k.CreatedAt, &k.IsActive)
	if err != nil {
		return nil, pgErr(err)
	}
	return &k, nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
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
		if err := rows.Scan(&k.ID, &k.Key, &k.Description, &k.CreatedAt, &k.LastUsedAt, &k.IsActive); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) DeleteAPIKey(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
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

// TouchAPIKey reports whether the key is valid and records its use.
func (s *PostgresStore) TouchAPIKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		UPDATE api_keys
		SET last_used_at = NOW()
		WHERE key = $1 AND is_active = true
		RETURNING true
	`, key).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return exists, nil
}

// normalizeLimit clamps a caller-supplied limit to the range the
// dashboard used (10..500 slider, default 50).
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}
