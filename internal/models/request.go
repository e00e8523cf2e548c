package models

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

func (c CabinClass) IsValid() bool {
	switch c {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

type TripType string

const (
	TripOneWay    TripType = "one-way"
	TripRoundTrip TripType = "round-trip"
)

type SearchCriteria struct {
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartureDate string     `json:"departure_date"`
	ReturnDate    *string    `json:"return_date,omitempty"`
	Passengers    int        `json:"passengers"`
	CabinClass    CabinClass `json:"cabin_class"`
	TripType      TripType   `json:"trip_type"`
}

// IsRoundTrip reports whether a return slice should be requested.
func (c SearchCriteria) IsRoundTrip() bool {
	return c.TripType == TripRoundTrip
}

// Validate checks required fields and normalizes defaults in place. It never
// talks to any remote service.
func (c *SearchCriteria) Validate() error {
	c.Origin = strings.ToUpper(strings.TrimSpace(c.Origin))
	c.Destination = strings.ToUpper(strings.TrimSpace(c.Destination))
	c.DepartureDate = strings.TrimSpace(c.DepartureDate)
	if c.ReturnDate != nil {
		rd := strings.TrimSpace(*c.ReturnDate)
		if rd == "" {
			c.ReturnDate = nil
		} else {
			c.ReturnDate = &rd
		}
	}

	if c.Origin == "" {
		return ErrMissingOrigin
	}
	if c.Destination == "" {
		return ErrMissingDestination
	}
	if c.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	if c.Origin == c.Destination {
		return ErrSameOriginDestination
	}

	departure, err := time.Parse(DateLayout, c.DepartureDate)
	if err != nil {
		return ErrInvalidDepartureDate
	}

	if c.TripType == "" {
		c.TripType = TripOneWay
		if c.ReturnDate != nil {
			c.TripType = TripRoundTrip
		}
	}

	switch c.TripType {
	case TripRoundTrip:
		if c.ReturnDate == nil {
			return ErrMissingReturnDate
		}
		ret, err := time.Parse(DateLayout, *c.ReturnDate)
		if err != nil {
			return ErrInvalidReturnDate
		}
		if ret.Before(departure) {
			return ErrReturnBeforeDeparture
		}
	case TripOneWay:
		if c.ReturnDate != nil {
			return ErrUnexpectedReturnDate
		}
	default:
		return ErrInvalidTripType
	}

	if c.Passengers <= 0 {
		c.Passengers = 1
	}
	if c.CabinClass == "" {
		c.CabinClass = CabinEconomy
	}
	c.CabinClass = CabinClass(strings.ToLower(string(c.CabinClass)))
	if !c.CabinClass.IsValid() {
		return ErrInvalidCabinClass
	}
	return nil
}

type SelectOfferRequest struct {
	OfferID string `json:"offer_id"`
}

// CheckoutRequest is the payload sent to the hosted checkout service.
type CheckoutRequest struct {
	OfferID      string            `json:"flight_offer_id"`
	Amount       float64           `json:"amount"`
	Currency     string            `json:"currency"`
	ReturnOrigin string            `json:"origin_url"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func (r *CheckoutRequest) Validate() error {
	if r.OfferID == "" {
		return ErrMissingOfferID
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if r.Currency == "" {
		return ErrMissingCurrency
	}
	if r.ReturnOrigin == "" {
		return ErrMissingReturnOrigin
	}
	return nil
}
