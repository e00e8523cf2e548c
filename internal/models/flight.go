package models

import "time"

type Price struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}

type Segment struct {
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	DepartingAt  time.Time `json:"departing_at"`
	ArrivingAt   time.Time `json:"arriving_at"`
	CarrierCode  string    `json:"carrier_code,omitempty"`
	FlightNumber string    `json:"flight_number,omitempty"`
	DurationMins int       `json:"duration_minutes,omitempty"`
}

type Slice struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Segments    []Segment `json:"segments"`
}

// Stops is the number of connections within the slice.
func (s Slice) Stops() int {
	if len(s.Segments) == 0 {
		return 0
	}
	return len(s.Segments) - 1
}

// Offer is a priced itinerary as returned by the flight search service. Offers
// are treated as immutable once received.
type Offer struct {
	ID        string     `json:"id"`
	Price     Price      `json:"total"`
	Owner     string     `json:"owner"`
	OwnerCode string     `json:"owner_code,omitempty"`
	Slices    []Slice    `json:"slices"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type SearchResult struct {
	OfferRequestID string  `json:"offer_request_id"`
	Offers         []Offer `json:"offers"`
}

type Place struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	IATACode string `json:"iata_code"`
	CityName string `json:"city_name,omitempty"`
	Country  string `json:"iata_country_code,omitempty"`
}
