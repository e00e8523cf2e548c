package models

type SearchMetadata struct {
	OfferRequestID string `json:"offer_request_id,omitempty"`
	TotalResults   int    `json:"total_results"`
	SearchTimeMs   int64  `json:"search_time_ms"`
	CacheHit       bool   `json:"cache_hit"`
}

type SearchResponse struct {
	SearchCriteria SearchCriteria `json:"search_criteria"`
	Metadata       SearchMetadata `json:"metadata"`
	Offers         []Offer        `json:"offers"`
}

type SessionResponse struct {
	SessionID     string          `json:"session_id"`
	State         string          `json:"state"`
	Criteria      *SearchCriteria `json:"criteria,omitempty"`
	Results       []Offer         `json:"results"`
	SelectedOffer *Offer          `json:"selected_offer,omitempty"`
	CheckoutOpen  bool            `json:"checkout_open"`
	LastError     string          `json:"last_error,omitempty"`
}

type RedirectResponse struct {
	URL string `json:"url"`
}

type PaymentConfirmationResponse struct {
	Outcome string         `json:"outcome"`
	Result  PaymentCheck   `json:"result"`
	History []PaymentCheck `json:"history"`
}

// CheckoutStatusResponse is the upstream status plus what we recorded when
// the checkout was opened.
type CheckoutStatusResponse struct {
	CheckoutStatus
	BookingSessionID string `json:"booking_session_id,omitempty"`
	OfferID          string `json:"offer_id,omitempty"`
}

type PlacesResponse struct {
	Data []Place `json:"data"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
