package models

import "time"

// Flight represents a single flight leg. FlightID is the natural key
// assigned during ingestion (flight number + scheduled UTC time) and is
// stable across reloads, so re-ingesting the same leg updates the row in
// place as actual times and status become known.
type Flight struct {
	FlightID             string     `json:"flight_id"`
	FlightNumber         string     `json:"flight_number"`
	AircraftRegistration *string    `json:"aircraft_registration"`
	OriginIATA           *string    `json:"origin_iata"`
	DestinationIATA      *string    `json:"destination_iata"`
	ScheduledDeparture   *time.Time `json:"scheduled_departure"`
	ActualDeparture      *time.Time `json:"actual_departure"`
	ScheduledArrival     *time.Time `json:"scheduled_arrival"`
	ActualArrival        *time.Time `json:"actual_arrival"`
	Status               string     `json:"status"`
	AirlineCode          *string    `json:"airline_code"`
}
