package models

// Aircraft represents one airframe. Registration is unique when present.
type Aircraft struct {
	AircraftID   int64   `json:"aircraft_id"`
	Registration *string `json:"registration"`
	Model        string  `json:"model"`
	Manufacturer string  `json:"manufacturer"`
	ICAOTypeCode string  `json:"icao_type_code"`
	Owner        string  `json:"owner"`
}
