package model

import (
	"time"
)

// Flight represents one flight record returned by the flight-data API.
type Flight struct {
	FlightIATA   string `json:"flight_iata"`
	FlightNumber string `json:"flight_number,omitempty"`
	FlightDate   string `json:"flight_date,omitempty"`
	Airline      string `json:"airline"`
	Status       string `json:"status,omitempty"`

	DepartureIATA    string     `json:"departure_iata"`
	DepartureAirport string     `json:"departure_airport,omitempty"`
	DepartureTime    *time.Time `json:"departure_time,omitempty"`

	ArrivalIATA    string     `json:"arrival_iata"`
	ArrivalAirport string     `json:"arrival_airport,omitempty"`
	ArrivalTime    *time.Time `json:"arrival_time,omitempty"`

	// Live position, present only for airborne flights.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// Key returns the identity used for de-duplicating flights.
func (f Flight) Key() string {
	if f.FlightIATA != "" {
		return f.FlightIATA + "@" + f.FlightDate
	}
	return f.Airline + "-" + f.FlightNumber + "@" + f.FlightDate
}

// FlightSearchResponse is the response for a flight search.
type FlightSearchResponse struct {
	Flights []Flight `json:"flights"`
	Cached  bool     `json:"cached"`
}

// RecentFlightsResponse is the response for the recent random flights pool.
type RecentFlightsResponse struct {
	Flights []Flight `json:"flights"`
}
