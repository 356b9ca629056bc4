package models

// Airport represents one row of the airport table. ICAO and IATA codes
// are nullable because some fields are missing from smaller airfields in
// the source data; each is unique when present.
type Airport struct {
	AirportID int64    `json:"airport_id"`
	ICAOCode  *string  `json:"icao_code"`
	IATACode  *string  `json:"iata_code"`
	Name      string   `json:"name"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Continent string   `json:"continent"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Timezone  string   `json:"timezone"`
}
