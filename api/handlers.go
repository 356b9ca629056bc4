package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/sowmiyavani28/Flight-Analytics-App/db"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func parseLimit(r *http.Request) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			return limit
		}
	}
	return 0
}

// parseTimeParam accepts RFC3339 or a plain date.
func parseTimeParam(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// GetOverview handles GET /api/overview
func (s *Server) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.store.GetOverview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get overview")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// GetCollectorStats handles GET /api/collector/stats
func (s *Server) GetCollectorStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.GetStats())
}

// ListFlights handles GET /api/flights
// Query params: airline, status, from, to, limit
func (s *Server) ListFlights(w http.ResponseWriter, r *http.Request) {
	filter := db.FlightFilter{
		AirlineCode: r.URL.Query().Get("airline"),
		Status:      r.URL.Query().Get("status"),
		From:        parseTimeParam(r.URL.Query().Get("from")),
		To:          parseTimeParam(r.URL.Query().Get("to")),
		Limit:       parseLimit(r),
	}

	flights, err := s.store.ListFlights(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list flights")
		return
	}
	writeJSON(w, http.StatusOK, FlightsResponse{Flights: flights, Count: len(flights)})
}

// ListCancelledFlights handles GET /api/flights/cancelled
func (s *Server) ListCancelledFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := s.store.ListCancelledFlights(r.Context(), parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cancelled flights")
		return
	}
	writeJSON(w, http.StatusOK, FlightsResponse{Flights: flights, Count: len(flights)})
}

// GetFlight handles GET /api/flights/{id}
func (s *Server) GetFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := s.store.GetFlight(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Flight not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get flight")
		return
	}
	writeJSON(w, http.StatusOK, flight)
}

// GetAirport handles GET /api/airports/{iata}
func (s *Server) GetAirport(w http.ResponseWriter, r *http.Request) {
	airport, err := s.store.GetAirportByIATA(r.Context(), mux.Vars(r)["iata"])
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Airport not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get airport")
		return
	}
	writeJSON(w, http.StatusOK, airport)
}

// GetAircraft handles GET /api/aircraft/{reg}
func (s *Server) GetAircraft(w http.ResponseWriter, r *http.Request) {
	aircraft, err := s.store.GetAircraftByRegistration(r.Context(), mux.Vars(r)["reg"])
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Aircraft not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get aircraft")
		return
	}
	writeJSON(w, http.StatusOK, aircraft)
}

// GetStatusDistribution handles GET /api/analytics/status-distribution
func (s *Server) GetStatusDistribution(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.store.StatusDistribution(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get status distribution")
		return
	}
	writeJSON(w, http.StatusOK, StatusDistributionResponse{Statuses: statuses})
}

// GetAircraftModels handles GET /api/analytics/aircraft-models
func (s *Server) GetAircraftModels(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.FlightsByAircraftModel(r.Context(), parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get aircraft models")
		return
	}
	writeJSON(w, http.StatusOK, AircraftModelsResponse{Models: counts})
}

// GetTopAirports handles GET /api/analytics/top-airports
// Query params: direction (departure|arrival, default departure), limit
func (s *Server) GetTopAirports(w http.ResponseWriter, r *http.Request) {
	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = "departure"
	}
	if direction != "departure" && direction != "arrival" {
		writeError(w, http.StatusBadRequest, "Invalid direction. Must be 'departure' or 'arrival'")
		return
	}

	counts, err := s.store.TopAirports(r.Context(), direction, parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get top airports")
		return
	}
	writeJSON(w, http.StatusOK, TopAirportsResponse{Direction: direction, Airports: counts})
}

// GetAirlinePerformance handles GET /api/analytics/airline-performance
func (s *Server) GetAirlinePerformance(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.AirlinePerformance(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get airline performance")
		return
	}
	writeJSON(w, http.StatusOK, AirlinePerformanceResponse{Airlines: stats})
}

// ListDelaySummaries handles GET /api/delays
// Query params: airport (IATA, optional), limit
func (s *Server) ListDelaySummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListDelaySummaries(r.Context(), r.URL.Query().Get("airport"), parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list delay summaries")
		return
	}
	writeJSON(w, http.StatusOK, DelaysResponse{Summaries: summaries, Count: len(summaries)})
}
