package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sowmiyavani28/Flight-Analytics-App/db"
	jsonfetcher "github.com/sowmiyavani28/Flight-Analytics-App/services/json_fetcher"
	"github.com/sowmiyavani28/Flight-Analytics-App/types"
)

func newProviderStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-rapidapi-key") != "test-key" {
			t.Errorf("missing api key header on %s", r.URL.Path)
		}

		switch {
		case r.URL.Path == "/airports/iata/MYQ":
			json.NewEncoder(w).Encode(types.AirportPayload{
				ICAO:             "VOMY",
				IATA:             "MYQ",
				FullName:         "Mysore Airport",
				MunicipalityName: "Mysore",
				Country:          types.NamedEntity{Name: "India"},
				Continent:        types.NamedEntity{Name: "Asia"},
				Location:         types.Location{Lat: 12.23, Lon: 76.65},
				TimeZone:         "Asia/Kolkata",
			})

		case strings.HasPrefix(r.URL.Path, "/flights/airports/iata/MYQ/"):
			// The provider rejects the afternoon window; ingestion must
			// carry on with what the morning window returned.
			if strings.Contains(r.URL.Path, "/2025-03-01T12:00/") {
				http.Error(w, "bad window", http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(types.FlightBoard{
				Departures: []types.FlightPayload{{
					Number: "AI101",
					Status: "Departed",
					Departure: types.Movement{
						ScheduledTime: types.TimePair{UTC: "2025-03-01 05:00Z"},
						RevisedTime:   types.TimePair{UTC: "2025-03-01 05:20Z"},
					},
					Arrival: types.Movement{
						Airport:       types.AirportRef{IATA: "DEL"},
						ScheduledTime: types.TimePair{UTC: "2025-03-01 08:00Z"},
					},
					Aircraft: types.AircraftRef{Reg: "VT-ABC"},
					Airline:  types.AirlineRef{Name: "Air India", IATA: "AI"},
				}},
				Arrivals: []types.FlightPayload{{
					Number: "6E202",
					Status: "Arrived",
					Departure: types.Movement{
						Airport:       types.AirportRef{IATA: "BOM"},
						ScheduledTime: types.TimePair{UTC: "2025-03-01 07:00Z"},
					},
					Arrival: types.Movement{
						ScheduledTime: types.TimePair{UTC: "2025-03-01 09:00Z"},
						RevisedTime:   types.TimePair{UTC: "2025-03-01 08:50Z"},
					},
					Aircraft: types.AircraftRef{Reg: "VT-XYZ"},
					Airline:  types.AirlineRef{Name: "IndiGo", IATA: "6E"},
				}},
			})

		case r.URL.Path == "/aircrafts/reg/VT-ABC":
			json.NewEncoder(w).Encode(types.AircraftPayload{
				Reg:         "VT-ABC",
				ModelCode:   "A20N",
				TypeName:    "Airbus A320neo",
				ICAOCode:    "A20N",
				AirlineName: "Air India",
			})

		default:
			// Unknown aircraft registrations and anything else.
			http.NotFound(w, r)
		}
	}))
}

func TestCollectorRun(t *testing.T) {
	server := newProviderStub(t)
	defer server.Close()

	store, err := db.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}

	fetcher := jsonfetcher.NewWithBaseURL(server.URL, "test-key")
	c := New(store, fetcher, []string{"MYQ"})

	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := c.Run(ctx, date); err != nil {
		t.Fatalf("Run: %v", err)
	}

	airport, err := store.GetAirportByIATA(ctx, "MYQ")
	if err != nil {
		t.Fatalf("GetAirportByIATA: %v", err)
	}
	if airport.Name != "Mysore Airport" || airport.Country != "India" {
		t.Errorf("airport = %+v", airport)
	}

	departure, err := store.GetFlight(ctx, "AI101_2025-03-01 05:00Z")
	if err != nil {
		t.Fatalf("GetFlight(departure): %v", err)
	}
	if departure.OriginIATA == nil || *departure.OriginIATA != "MYQ" {
		t.Errorf("departure origin = %v, want MYQ", departure.OriginIATA)
	}
	if departure.DestinationIATA == nil || *departure.DestinationIATA != "DEL" {
		t.Errorf("departure destination = %v, want DEL", departure.DestinationIATA)
	}
	wantActual := time.Date(2025, 3, 1, 5, 20, 0, 0, time.UTC)
	if departure.ActualDeparture == nil || !departure.ActualDeparture.Equal(wantActual) {
		t.Errorf("actual departure = %v, want %v", departure.ActualDeparture, wantActual)
	}

	arrival, err := store.GetFlight(ctx, "6E202_2025-03-01 09:00Z")
	if err != nil {
		t.Fatalf("GetFlight(arrival): %v", err)
	}
	if arrival.OriginIATA == nil || *arrival.OriginIATA != "BOM" {
		t.Errorf("arrival origin = %v, want BOM", arrival.OriginIATA)
	}
	if arrival.DestinationIATA == nil || *arrival.DestinationIATA != "MYQ" {
		t.Errorf("arrival destination = %v, want MYQ", arrival.DestinationIATA)
	}

	summaries, err := store.ListDelaySummaries(ctx, "MYQ", 0)
	if err != nil {
		t.Fatalf("ListDelaySummaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	summary := summaries[0]
	if summary.DelayDate != "2025-03-01" {
		t.Errorf("DelayDate = %s", summary.DelayDate)
	}
	// One departure 20 minutes late, one arrival early (clipped to 0).
	if summary.TotalFlights != 2 || summary.DelayedFlights != 1 {
		t.Errorf("counts = %d/%d, want 2/1", summary.TotalFlights, summary.DelayedFlights)
	}
	if summary.AvgDelayMin != 10 || summary.MedianDelayMin != 10 {
		t.Errorf("avg/median = %v/%v, want 10/10", summary.AvgDelayMin, summary.MedianDelayMin)
	}

	aircraft, err := store.GetAircraftByRegistration(ctx, "VT-ABC")
	if err != nil {
		t.Fatalf("GetAircraftByRegistration: %v", err)
	}
	if aircraft.Model != "A20N" || aircraft.Owner != "Air India" {
		t.Errorf("aircraft = %+v", aircraft)
	}
	// The provider does not know VT-XYZ; it must be skipped, not stored.
	if _, err := store.GetAircraftByRegistration(ctx, "VT-XYZ"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("VT-XYZ err = %v, want ErrNotFound", err)
	}

	stats := c.GetStats()
	if stats.RunsCompleted != 1 || stats.AirportsProcessed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.FlightsStored != 2 || stats.AircraftStored != 1 || stats.DelayRowsStored != 1 {
		t.Errorf("stored counts = %+v", stats)
	}
	if stats.LastRunID == "" {
		t.Error("LastRunID is empty")
	}
}

func TestCollectorRunCancelled(t *testing.T) {
	server := newProviderStub(t)
	defer server.Close()

	store, err := db.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()
	if err := store.CreateSchema(context.Background()); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(store, jsonfetcher.NewWithBaseURL(server.URL, "test-key"), []string{"MYQ"})
	if err := c.Run(ctx, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
}
