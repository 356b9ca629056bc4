package db

import (
	"context"
	"errors"
	"time"

	"github.com/sowmiyavani28/Flight-Analytics-App/models"
)

var (
	// ErrNotFound is returned by single-row lookups when no row matches.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique code or
	// flight identifier. It signals duplicate ingestion; the caller
	// decides whether to upsert or reject.
	ErrDuplicate = errors.New("duplicate record")
)

// FlightFilter narrows ListFlights. Zero values mean "no filter".
type FlightFilter struct {
	AirlineCode string
	Status      string
	From        *time.Time // scheduled_departure >= From
	To          *time.Time // scheduled_departure < To
	Limit       int
}

type Overview struct {
	TotalFlights  int `json:"total_flights"`
	TotalAircraft int `json:"total_aircraft"`
	TotalAirports int `json:"total_airports"`
	Airlines      int `json:"airlines"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type ModelCount struct {
	Model   string `json:"model"`
	Flights int    `json:"flights"`
}

type AirportCount struct {
	Name    string `json:"name"`
	Flights int    `json:"flights"`
}

type AirlineStats struct {
	AirlineCode string `json:"airline_code"`
	OnTime      int    `json:"on_time"`
	Delayed     int    `json:"delayed"`
	Cancelled   int    `json:"cancelled"`
}

type APIKey struct {
	ID          int64      `json:"id"`
	Key         string     `json:"key"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

// Store is the persistence handle for the aviation reference and
// operations schema. Implementations exist for PostgreSQL and SQLite.
type Store interface {
	CreateSchema(ctx context.Context) error
	Close() error

	UpsertAirport(ctx context.Context, a models.Airport) error
	UpsertAircraft(ctx context.Context, a models.Aircraft) error
	UpsertFlight(ctx context.Context, f models.Flight) error
	InsertDelaySummary(ctx context.Context, d models.AirportDelay) error

	GetAirportByIATA(ctx context.Context, iata string) (*models.Airport, error)
	GetAircraftByRegistration(ctx context.Context, reg string) (*models.Aircraft, error)
	GetFlight(ctx context.Context, flightID string) (*models.Flight, error)
	ListFlights(ctx context.Context, filter FlightFilter) ([]models.Flight, error)
	ListCancelledFlights(ctx context.Context, limit int) ([]models.Flight, error)
	ListDelaySummaries(ctx context.Context, airportIATA string, limit int) ([]models.AirportDelay, error)

	GetOverview(ctx context.Context) (*Overview, error)
	StatusDistribution(ctx context.Context) ([]StatusCount, error)
	FlightsByAircraftModel(ctx context.Context, limit int) ([]ModelCount, error)
	TopAirports(ctx context.Context, direction string, limit int) ([]AirportCount, error)
	AirlinePerformance(ctx context.Context) ([]AirlineStats, error)

	CreateAPIKey(ctx context.Context, key, description string) (*APIKey, error)
	ListAPIKeys(ctx context.Context) ([]APIKey, error)
	DeleteAPIKey(ctx context.Context, id int64) error
	TouchAPIKey(ctx context.Context, key string) (bool, error)
}

// Statuses the source marks a flight with when it is cancelled. The
// status field itself is free text set by the provider.
var cancelledStatuses = []string{"Canceled", "CanceledUncertain"}
