package models

// AirportDelay is one daily delay aggregate for one airport. Rows are
// append-only: nothing enforces uniqueness on (airport_iata, delay_date),
// so re-running ingestion for the same day adds a second row.
type AirportDelay struct {
	DelayID         int64   `json:"delay_id"`
	AirportIATA     string  `json:"airport_iata"`
	DelayDate       string  `json:"delay_date"` // YYYY-MM-DD
	TotalFlights    int     `json:"total_flights"`
	DelayedFlights  int     `json:"delayed_flights"`
	AvgDelayMin     float64 `json:"avg_delay_min"`
	MedianDelayMin  float64 `json:"median_delay_min"`
	CanceledFlights int     `json:"canceled_flights"`
}
