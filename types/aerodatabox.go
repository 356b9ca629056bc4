package types

// Payload shapes returned by the AeroDataBox API on RapidAPI. Only the
// fields the pipeline reads are declared; the provider sends much more.

type NamedEntity struct {
	Name string `json:"name"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AirportPayload is the response of GET /airports/iata/{iata}.
type AirportPayload struct {
	ICAO             string      `json:"icao"`
	IATA             string      `json:"iata"`
	FullName         string      `json:"fullName"`
	ShortName        string      `json:"shortName"`
	MunicipalityName string      `json:"municipalityName"`
	Country          NamedEntity `json:"country"`
	Continent        NamedEntity `json:"continent"`
	Location         Location    `json:"location"`
	TimeZone         string      `json:"timeZone"`
}

// FlightBoard is the response of GET /flights/airports/iata/{iata}/{from}/{to}.
type FlightBoard struct {
	Departures []FlightPayload `json:"departures"`
	Arrivals   []FlightPayload `json:"arrivals"`
}

type FlightPayload struct {
	Number    string      `json:"number"`
	Status    string      `json:"status"`
	Departure Movement    `json:"departure"`
	Arrival   Movement    `json:"arrival"`
	Aircraft  AircraftRef `json:"aircraft"`
	Airline   AirlineRef  `json:"airline"`
}

// Movement is one end of a flight leg (either the departure or the
// arrival side), with scheduled and revised times.
type Movement struct {
	Airport       AirportRef `json:"airport"`
	ScheduledTime TimePair   `json:"scheduledTime"`
	RevisedTime   TimePair   `json:"revisedTime"`
}

type AirportRef struct {
	ICAO string `json:"icao"`
	IATA string `json:"iata"`
	Name string `json:"name"`
}

type TimePair struct {
	UTC   string `json:"utc"`
	Local string `json:"local"`
}

type AircraftRef struct {
	Reg   string `json:"reg"`
	Model string `json:"model"`
}

type AirlineRef struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
	ICAO string `json:"icao"`
}

// AircraftPayload is the response of GET /aircrafts/reg/{registration}.
type AircraftPayload struct {
	Reg         string `json:"reg"`
	ModelCode   string `json:"modelCode"`
	TypeName    string `json:"typeName"`
	ICAOCode    string `json:"icaoCode"`
	AirlineName string `json:"airlineName"`
}
