package api

import (
	"github.com/sowmiyavani28/Flight-Analytics-App/db"
	"github.com/sowmiyavani28/Flight-Analytics-App/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type FlightsResponse struct {
	Flights []models.Flight `json:"flights"`
	Count   int             `json:"count"`
}

type DelaysResponse struct {
	Summaries []models.AirportDelay `json:"summaries"`
	Count     int                   `json:"count"`
}

type StatusDistributionResponse struct {
	Statuses []db.StatusCount `json:"statuses"`
}

type AircraftModelsResponse struct {
	Models []db.ModelCount `json:"models"`
}

type TopAirportsResponse struct {
	Direction string            `json:"direction"`
	Airports  []db.AirportCount `json:"airports"`
}

type AirlinePerformanceResponse struct {
	Airlines []db.AirlineStats `json:"airlines"`
}
