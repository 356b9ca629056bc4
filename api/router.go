package api

import (
	"github.com/gorilla/mux"

	"github.com/sowmiyavani28/Flight-Analytics-App/db"
	"github.com/sowmiyavani28/Flight-Analytics-App/types"
)

// Collector exposes ingestion progress to the API.
type Collector interface {
	GetStats() types.CollectionStats
}

// Server holds the handler dependencies. The store is passed in
// explicitly; handlers never reach for package-level state.
type Server struct {
	store     db.Store
	collector Collector
	limiter   *RateLimiter
}

// NewRouter creates and configures a new router with all API endpoints.
func NewRouter(store db.Store, collector Collector) *mux.Router {
	s := &Server{
		store:     store,
		collector: collector,
		limiter:   NewRateLimiter(),
	}

	r := mux.NewRouter()

	// API key management (master key guarded, not rate limited)
	r.HandleFunc("/api/keys", s.CreateAPIKey).Methods("POST")
	r.HandleFunc("/api/keys", s.ListAPIKeys).Methods("GET")
	r.HandleFunc("/api/keys", s.DeleteAPIKey).Methods("DELETE")

	// Apply rate limiting middleware to all other routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.RateLimit)

	// Overview and collector status
	api.HandleFunc("/overview", s.GetOverview).Methods("GET")
	api.HandleFunc("/collector/stats", s.GetCollectorStats).Methods("GET")

	// Flights explorer
	api.HandleFunc("/flights", s.ListFlights).Methods("GET")
	api.HandleFunc("/flights/cancelled", s.ListCancelledFlights).Methods("GET")
	api.HandleFunc("/flights/{id}", s.GetFlight).Methods("GET")

	// Reference lookups
	api.HandleFunc("/airports/{iata}", s.GetAirport).Methods("GET")
	api.HandleFunc("/aircraft/{reg}", s.GetAircraft).Methods("GET")

	// Analytics endpoints (the dashboard pages)
	api.HandleFunc("/analytics/status-distribution", s.GetStatusDistribution).Methods("GET")
	api.HandleFunc("/analytics/aircraft-models", s.GetAircraftModels).Methods("GET")
	api.HandleFunc("/analytics/top-airports", s.GetTopAirports).Methods("GET")
	api.HandleFunc("/analytics/airline-performance", s.GetAirlinePerformance).Methods("GET")

	// Delay summaries
	api.HandleFunc("/delays", s.ListDelaySummaries).Methods("GET")

	return r
}
