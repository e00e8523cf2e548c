package models

import "errors"

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin         ValidationError = "origin is required"
	ErrMissingDestination    ValidationError = "destination is required"
	ErrMissingDepartureDate  ValidationError = "departure_date is required"
	ErrSameOriginDestination ValidationError = "origin and destination must differ"
	ErrInvalidDepartureDate  ValidationError = "departure_date must be YYYY-MM-DD"
	ErrMissingReturnDate     ValidationError = "return_date is required for round-trip"
	ErrInvalidReturnDate     ValidationError = "return_date must be YYYY-MM-DD"
	ErrReturnBeforeDeparture ValidationError = "return_date must not be before departure_date"
	ErrUnexpectedReturnDate  ValidationError = "return_date is only allowed for round-trip"
	ErrInvalidTripType       ValidationError = "trip_type must be one-way or round-trip"
	ErrInvalidCabinClass     ValidationError = "cabin_class must be economy, premium_economy, business or first"

	ErrMissingOfferID      ValidationError = "flight_offer_id is required"
	ErrInvalidAmount       ValidationError = "amount must be positive"
	ErrMissingCurrency     ValidationError = "currency is required"
	ErrMissingReturnOrigin ValidationError = "origin_url is required"
	ErrMissingSessionID    ValidationError = "session_id is required"
)

var (
	ErrSessionNotFound   = errors.New("booking session not found")
	ErrNoResults         = errors.New("no search results to select from")
	ErrOfferNotFound     = errors.New("offer is not part of the current results")
	ErrNoOfferSelected   = errors.New("no offer selected")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrPaymentUnresolved = errors.New("payment could not be confirmed")
)

const (
	genericSearchMessage   = "Flight search failed, please try again"
	genericCheckoutMessage = "Unable to start checkout, please try again"
)

// SearchError is returned when the flight search service rejected the request
// or could not be reached.
type SearchError struct {
	Detail string
	Err    error
}

func (e *SearchError) Error() string {
	if e.Err == nil {
		return "search failed: " + e.Message()
	}
	return "search failed: " + e.Err.Error()
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Message is the user-facing text: the upstream detail when there is one.
func (e *SearchError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return genericSearchMessage
}

// CheckoutError is returned when the checkout session could not be created.
type CheckoutError struct {
	Detail string
	Err    error
}

func (e *CheckoutError) Error() string {
	if e.Err == nil {
		return "checkout failed: " + e.Message()
	}
	return "checkout failed: " + e.Err.Error()
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

func (e *CheckoutError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return genericCheckoutMessage
}

// UpstreamDetailer is implemented by errors that carry a message from a
// remote service.
type UpstreamDetailer interface {
	UpstreamMessage() string
}

// UpstreamDetail returns the remote service's message carried by err, if any.
func UpstreamDetail(err error) string {
	var d UpstreamDetailer
	if errors.As(err, &d) {
		return d.UpstreamMessage()
	}
	return ""
}
