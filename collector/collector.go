package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/sowmiyavani28/Flight-Analytics-App/db"
	"github.com/sowmiyavani28/Flight-Analytics-App/models"
	jsonfetcher "github.com/sowmiyavani28/Flight-Analytics-App/services/json_fetcher"
	"github.com/sowmiyavani28/Flight-Analytics-App/types"
)

// DefaultAirports is the airport set ingested when none is configured.
var DefaultAirports = []string{
	"DEL", "BOM", "BLR", "HYD", "JFK", "LAX", "DXB",
	"SIN", "LHR", "CDG", "CCU", "PNQ", "GOI", "MAA", "MYQ",
}

// Collector runs the ETL pipeline: fetch airport metadata and flight
// boards from the provider, map them into rows, upsert them, compute the
// daily delay summary, then backfill aircraft metadata for every
// registration seen.
type Collector struct {
	store    db.Store
	fetcher  *jsonfetcher.Client
	airports []string
	// Registrations seen in flight payloads, pending an aircraft fetch.
	pendingRegistrations map[string]struct{}
	stats                types.CollectionStats
}

func New(store db.Store, fetcher *jsonfetcher.Client, airports []string) *Collector {
	if len(airports) == 0 {
		airports = DefaultAirports
	}
	return &Collector{
		store:                store,
		fetcher:              fetcher,
		airports:             airports,
		pendingRegistrations: make(map[string]struct{}),
		stats: types.CollectionStats{
			StartTime: time.Now(),
		},
	}
}

func (c *Collector) GetStats() types.CollectionStats {
	return c.stats
}

// Run executes one full collection pass for the given date. Per-airport
// failures are logged and skipped so one bad airport does not abort the
// run; only context cancellation stops it.
func (c *Collector) Run(ctx context.Context, date time.Time) error {
	runID := uuid.NewString()
	c.stats.LastRunID = runID
	log.Printf("Starting collection run %s for %s (%d airports)",
		runID, date.Format("2006-01-02"), len(c.airports))

	for _, iata := range c.airports {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.processAirport(ctx, iata, date); err != nil {
			log.Printf("Error processing %s: %v", iata, err)
			continue
		}
		c.stats.AirportsProcessed++
	}

	if err := c.collectAircraft(ctx); err != nil {
		return err
	}

	c.stats.LastRun = time.Now()
	c.stats.RunsCompleted++
	log.Printf("Collection run %s done: airports=%d flights=%d aircraft=%d",
		runID, c.stats.AirportsProcessed, c.stats.FlightsStored, c.stats.AircraftStored)
	return nil
}

func (c *Collector) processAirport(ctx context.Context, iata string, date time.Time) error {
	var airport types.AirportPayload
	if err := c.fetcher.Get(ctx, "/airports/iata/"+iata, nil, &airport); err != nil {
		return fmt.Errorf("error fetching airport: %w", err)
	}
	if err := c.store.UpsertAirport(ctx, airportRow(airport)); err != nil {
		return fmt.Errorf("error storing airport: %w", err)
	}

	board, err := c.fetchFlights(ctx, iata, date)
	if err != nil {
		return fmt.Errorf("error fetching flights: %w", err)
	}

	flights := buildFlightRows(board, iata)
	for _, f := range flights {
		if f.AircraftRegistration != nil && *f.AircraftRegistration != "" {
			c.pendingRegistrations[*f.AircraftRegistration] = struct{}{}
		}
		if err := c.store.UpsertFlight(ctx, f); err != nil {
			return fmt.Errorf("error storing flight %s: %w", f.FlightID, err)
		}
		c.stats.FlightsStored++
	}

	summary := ComputeDelaySummary(flights, iata, date.Format("2006-01-02"))
	if err := c.store.InsertDelaySummary(ctx, summary); err != nil {
		return fmt.Errorf("error storing delay summary: %w", err)
	}
	c.stats.DelayRowsStored++

	log.Printf("%s: stored %d flights, delay summary delayed=%d/%d canceled=%d",
		iata, len(flights), summary.DelayedFlights, summary.TotalFlights, summary.CanceledFlights)
	return nil
}

// fetchFlights pulls the airport's flight board for the whole day in two
// 12-hour windows (the provider caps a request at 12 hours). A window the
// provider rejects with 400 is skipped. Flights are deduplicated by
// number and direction since consecutive windows can overlap.
func (c *Collector) fetchFlights(ctx context.Context, iata string, date time.Time) (*types.FlightBoard, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	windows := [][2]time.Time{
		{dayStart, dayStart.Add(12 * time.Hour)},
		{dayStart.Add(12 * time.Hour), dayStart.Add(24*time.Hour - time.Minute)},
	}

	params := url.Values{}
	for _, p := range []string{"withLeg", "withCancelled", "withCodeshared", "withCargo", "withPrivate"} {
		params.Set(p, "true")
	}

	board := &types.FlightBoard{}
	seen := make(map[string]struct{})

	for _, w := range windows {
		path := fmt.Sprintf("/flights/airports/iata/%s/%s/%s",
			iata, w[0].Format("2006-01-02T15:04"), w[1].Format("2006-01-02T15:04"))

		var windowBoard types.FlightBoard
		err := c.fetcher.Get(ctx, path, params, &windowBoard)
		if err != nil {
			var statusErr *jsonfetcher.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == 400 {
				log.Printf("%s: skipping invalid window %s", iata, path)
				continue
			}
			return nil, err
		}

		for _, f := range windowBoard.Departures {
			key := f.Number + "_DEP"
			if _, ok := seen[key]; !ok {
				board.Departures = append(board.Departures, f)
				seen[key] = struct{}{}
			}
		}
		for _, f := range windowBoard.Arrivals {
			key := f.Number + "_ARR"
			if _, ok := seen[key]; !ok {
				board.Arrivals = append(board.Arrivals, f)
				seen[key] = struct{}{}
			}
		}
	}

	return board, nil
}

// collectAircraft backfills aircraft metadata for every registration seen
// during the run. Unknown registrations (anything but 200) are skipped.
func (c *Collector) collectAircraft(ctx context.Context) error {
	for reg := range c.pendingRegistrations {
		if err := ctx.Err(); err != nil {
			return err
		}

		var payload types.AircraftPayload
		err := c.fetcher.Get(ctx, "/aircrafts/reg/"+reg, nil, &payload)
		if err != nil {
			var statusErr *jsonfetcher.StatusError
			if errors.As(err, &statusErr) {
				delete(c.pendingRegistrations, reg)
				continue
			}
			return fmt.Errorf("error fetching aircraft %s: %w", reg, err)
		}

		if err := c.store.UpsertAircraft(ctx, aircraftRow(payload)); err != nil {
			log.Printf("Error storing aircraft %s: %v", reg, err)
			continue
		}
		c.stats.AircraftStored++
		delete(c.pendingRegistrations, reg)
	}
	return nil
}

func airportRow(p types.AirportPayload) models.Airport {
	name := p.FullName
	if name == "" {
		name = p.ShortName
	}
	return models.Airport{
		ICAOCode:  nullable(p.ICAO),
		IATACode:  nullable(p.IATA),
		Name:      name,
		City:      p.MunicipalityName,
		Country:   p.Country.Name,
		Continent: p.Continent.Name,
		Latitude:  p.Location.Lat,
		Longitude: p.Location.Lon,
		Timezone:  p.TimeZone,
	}
}

func aircraftRow(p types.AircraftPayload) models.Aircraft {
	return models.Aircraft{
		Registration: nullable(p.Reg),
		Model:        p.ModelCode,
		Manufacturer: p.TypeName,
		ICAOTypeCode: p.ICAOCode,
		Owner:        p.AirlineName,
	}
}

// buildFlightRows maps a flight board to rows. The flight identifier is
// the flight number joined with the scheduled UTC time at the board's
// airport, which stays stable across reloads of the same leg.
func buildFlightRows(board *types.FlightBoard, iata string) []models.Flight {
	var rows []models.Flight
	seen := make(map[string]struct{})

	add := func(f models.Flight) {
		if _, ok := seen[f.FlightID]; ok {
			return
		}
		seen[f.FlightID] = struct{}{}
		rows = append(rows, f)
	}

	for _, f := range board.Departures {
		add(models.Flight{
			FlightID:             f.Number + "_" + f.Departure.ScheduledTime.UTC,
			FlightNumber:         f.Number,
			AircraftRegistration: nullable(f.Aircraft.Reg),
			OriginIATA:           nullable(iata),
			DestinationIATA:      nullable(f.Arrival.Airport.IATA),
			ScheduledDeparture:   parseUTC(f.Departure.ScheduledTime.UTC),
			ActualDeparture:      parseUTC(f.Departure.RevisedTime.UTC),
			ScheduledArrival:     parseUTC(f.Arrival.ScheduledTime.UTC),
			ActualArrival:        parseUTC(f.Arrival.RevisedTime.UTC),
			Status:               f.Status,
			AirlineCode:          nullable(f.Airline.IATA),
		})
	}

	for _, f := range board.Arrivals {
		add(models.Flight{
			FlightID:             f.Number + "_" + f.Arrival.ScheduledTime.UTC,
			FlightNumber:         f.Number,
			AircraftRegistration: nullable(f.Aircraft.Reg),
			OriginIATA:           nullable(f.Departure.Airport.IATA),
			DestinationIATA:      nullable(iata),
			ScheduledDeparture:   parseUTC(f.Departure.ScheduledTime.UTC),
			ActualDeparture:      parseUTC(f.Departure.RevisedTime.UTC),
			ScheduledArrival:     parseUTC(f.Arrival.ScheduledTime.UTC),
			ActualArrival:        parseUTC(f.Arrival.RevisedTime.UTC),
			Status:               f.Status,
			AirlineCode:          nullable(f.Airline.IATA),
		})
	}

	return rows
}

// Timestamp layouts seen in provider payloads.
var utcLayouts = []string{
	"2006-01-02 15:04Z",
	"2006-01-02T15:04Z",
	time.RFC3339,
}

func parseUTC(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range utcLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
