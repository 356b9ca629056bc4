package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/sowmiyavani28/Flight-Analytics-App/db"
	"github.com/sowmiyavani28/Flight-Analytics-App/models"
	"github.com/sowmiyavani28/Flight-Analytics-App/types"
)

type stubCollector struct {
	stats types.CollectionStats
}

func (s *stubCollector) GetStats() types.CollectionStats { return s.stats }

func strPtr(s string) *string { return &s }

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	store, err := db.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if err := store.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}

	if err := store.UpsertAirport(ctx, models.Airport{
		ICAOCode: strPtr("VOMY"), IATACode: strPtr("MYQ"), Name: "Mysore Airport",
	}); err != nil {
		t.Fatalf("seeding airport: %v", err)
	}
	if err := store.UpsertAircraft(ctx, models.Aircraft{
		Registration: strPtr("VT-ABC"), Model: "A20N",
	}); err != nil {
		t.Fatalf("seeding aircraft: %v", err)
	}

	sched := time.Date(2025, 3, 1, 5, 0, 0, 0, time.UTC)
	flights := []models.Flight{
		{
			FlightID: "AI101_a", FlightNumber: "AI101",
			AircraftRegistration: strPtr("VT-ABC"),
			OriginIATA:           strPtr("MYQ"), DestinationIATA: strPtr("DEL"),
			ScheduledDeparture: &sched,
			Status:             "Arrived", AirlineCode: strPtr("AI"),
		},
		{
			FlightID: "6E202_a", FlightNumber: "6E202",
			OriginIATA: strPtr("MYQ"), DestinationIATA: strPtr("BOM"),
			Status: "Canceled", AirlineCode: strPtr("6E"),
		},
	}
	for _, f := range flights {
		if err := store.UpsertFlight(ctx, f); err != nil {
			t.Fatalf("seeding flight %s: %v", f.FlightID, err)
		}
	}

	if err := store.InsertDelaySummary(ctx, models.AirportDelay{
		AirportIATA: "MYQ", DelayDate: "2025-03-01",
		TotalFlights: 2, DelayedFlights: 1, AvgDelayMin: 10, MedianDelayMin: 10,
	}); err != nil {
		t.Fatalf("seeding delay summary: %v", err)
	}

	return NewRouter(store, &stubCollector{stats: types.CollectionStats{RunsCompleted: 3}})
}

func doGet(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestGetOverview(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/overview")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var overview db.Overview
	if err := json.NewDecoder(rec.Body).Decode(&overview); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if overview.TotalFlights != 2 || overview.TotalAirports != 1 || overview.Airlines != 2 {
		t.Errorf("overview = %+v", overview)
	}

	if limit := rec.Header().Get("X-RateLimit-Limit"); limit != "100" {
		t.Errorf("X-RateLimit-Limit = %q, want 100", limit)
	}
}

func TestGetCollectorStats(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/collector/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats types.CollectionStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if stats.RunsCompleted != 3 {
		t.Errorf("RunsCompleted = %d, want 3", stats.RunsCompleted)
	}
}

func TestListFlights(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/flights?airline=AI")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp FlightsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Count != 1 || resp.Flights[0].FlightID != "AI101_a" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestListCancelledFlights(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/flights/cancelled")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp FlightsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Count != 1 || resp.Flights[0].FlightID != "6E202_a" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetFlight(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/flights/AI101_a")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var flight models.Flight
	if err := json.NewDecoder(rec.Body).Decode(&flight); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if flight.FlightNumber != "AI101" {
		t.Errorf("FlightNumber = %q", flight.FlightNumber)
	}

	if rec := doGet(t, router, "/api/flights/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("missing flight status = %d, want 404", rec.Code)
	}
}

func TestGetAirport(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/airports/MYQ")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var airport models.Airport
	if err := json.NewDecoder(rec.Body).Decode(&airport); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if airport.Name != "Mysore Airport" {
		t.Errorf("Name = %q", airport.Name)
	}

	if rec := doGet(t, router, "/api/airports/ZZZ"); rec.Code != http.StatusNotFound {
		t.Errorf("missing airport status = %d, want 404", rec.Code)
	}
}

func TestGetAircraft(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/aircraft/VT-ABC")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if rec := doGet(t, router, "/api/aircraft/VT-NONE"); rec.Code != http.StatusNotFound {
		t.Errorf("missing aircraft status = %d, want 404", rec.Code)
	}
}

func TestGetTopAirportsInvalidDirection(t *testing.T) {
	router := newTestRouter(t)

	if rec := doGet(t, router, "/api/analytics/top-airports?direction=sideways"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec := doGet(t, router, "/api/analytics/top-airports"); rec.Code != http.StatusOK {
		t.Errorf("default direction status = %d, want 200", rec.Code)
	}
}

func TestListDelaySummaries(t *testing.T) {
	router := newTestRouter(t)

	rec := doGet(t, router, "/api/delays?airport=MYQ")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp DelaysResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Count != 1 || resp.Summaries[0].AvgDelayMin != 10 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAPIKeyEndpoints(t *testing.T) {
	t.Setenv("MASTER_API_KEY", "master-secret")
	router := newTestRouter(t)

	// Wrong master key is rejected.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/keys", bytes.NewBufferString(`{"description":"d"}`))
	req.Header.Set("Authorization", "wrong")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong master status = %d, want 401", rec.Code)
	}

	// Create a key with the master key.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/keys", bytes.NewBufferString(`{"description":"dashboard"}`))
	req.Header.Set("Authorization", "master-secret")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created db.APIKey
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if created.Key == "" || created.Description != "dashboard" {
		t.Errorf("created = %+v", created)
	}

	// A valid key bypasses rate limiting on data routes.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/overview", nil)
	req.Header.Set("Authorization", created.Key)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("keyed request status = %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "" {
		t.Error("keyed request should not carry rate limit headers")
	}

	// List, then delete it.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/keys", nil)
	req.Header.Set("Authorization", "master-secret")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var keys []db.APIKey
	if err := json.NewDecoder(rec.Body).Decode(&keys); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("keys = %d, want 1", len(keys))
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("DELETE", "/api/keys", bytes.NewBufferString(`{"id":1}`))
	req.Header.Set("Authorization", "master-secret")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("DELETE", "/api/keys", bytes.NewBufferString(`{"id":1}`))
	req.Header.Set("Authorization", "master-secret")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	router := newTestRouter(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < maxRequests+1; i++ {
		last = doGet(t, router, "/api/overview")
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status after %d requests = %d, want 429", maxRequests+1, last.Code)
	}
	if last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", last.Header().Get("X-RateLimit-Remaining"))
	}
}
