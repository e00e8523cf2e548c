package models

type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CheckoutStatus mirrors what the checkout status service reports for a
// hosted session.
type CheckoutStatus struct {
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

const (
	UpstreamPaymentPaid   = "paid"
	UpstreamSessionExpire = "expired"
)

func (s CheckoutStatus) IsPaid() bool {
	return s.PaymentStatus == UpstreamPaymentPaid
}

func (s CheckoutStatus) IsExpired() bool {
	return s.Status == UpstreamSessionExpire
}

type PaymentState string

const (
	PaymentChecking PaymentState = "checking"
	PaymentSuccess  PaymentState = "success"
	PaymentFailed   PaymentState = "failed"
)

// Outcomes of a finished confirmation. Unresolved means we gave up asking,
// not that the payment was declined.
const (
	OutcomePaid       = "paid"
	OutcomeFailed     = "failed"
	OutcomeUnresolved = "unresolved"
)

func (s PaymentState) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// PaymentCheck is one snapshot of the confirmation loop.
type PaymentCheck struct {
	SessionID string       `json:"session_id"`
	Attempt   int          `json:"attempt"`
	Status    PaymentState `json:"status"`
	Reason    string       `json:"reason,omitempty"`
}
