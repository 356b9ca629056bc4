package types

import "time"

type CollectionStats struct {
	LastRunID         string    `json:"last_run_id"`
	LastRun           time.Time `json:"last_run"`
	RunsCompleted     int64     `json:"runs_completed"`
	AirportsProcessed int64     `json:"airports_processed"`
	FlightsStored     int64     `json:"flights_stored"`
	AircraftStored    int64     `json:"aircraft_stored"`
	DelayRowsStored   int64     `json:"delay_rows_stored"`
	StartTime         time.Time `json:"start_time"`
}
