package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/models"
	"github.com/dharmasatrya/trotair/internal/ratelimit"
	"github.com/dharmasatrya/trotair/pkg/currency"
)

// The hosted page substitutes this placeholder with the real session id when
// it redirects back.
const sessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

type checkoutSessionBody struct {
	Amount     int64             `json:"amount"`
	Currency   string            `json:"currency"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata"`
}

type checkoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type checkoutStatusResponse struct {
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

type CheckoutConfig struct {
	BaseURL   string
	SecretKey string
	Source    string
	Timeout   time.Duration
}

// HostedCheckoutProvider creates hosted payment sessions and reads their
// status back.
type HostedCheckoutProvider struct {
	config  CheckoutConfig
	client  httpDoer
	limiter *ratelimit.UpstreamLimiter
	logger  *logrus.Logger
}

func NewHostedCheckoutProvider(cfg CheckoutConfig, limiter *ratelimit.UpstreamLimiter, logger *logrus.Logger) *HostedCheckoutProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Source == "" {
		cfg.Source = "trotair_flight_booking"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &HostedCheckoutProvider{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

func (p *HostedCheckoutProvider) Name() string {
	return "checkout"
}

func (p *HostedCheckoutProvider) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + p.config.SecretKey,
	}
}

func (p *HostedCheckoutProvider) CreateSession(ctx context.Context, req models.CheckoutRequest) (models.CheckoutSession, error) {
	if err := p.limiter.Wait(ctx, ratelimit.UpstreamCheckout); err != nil {
		return models.CheckoutSession{}, NewProviderError(p.Name(), err)
	}

	origin := strings.TrimRight(req.ReturnOrigin, "/")
	metadata := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["flight_offer_id"] = req.OfferID
	metadata["source"] = p.config.Source

	body := checkoutSessionBody{
		Amount:     currency.MinorUnits(req.Amount, req.Currency),
		Currency:   strings.ToLower(req.Currency),
		SuccessURL: origin + "/booking-success?session_id=" + sessionIDPlaceholder,
		CancelURL:  origin + "/booking-cancelled",
		Metadata:   metadata,
	}

	var resp checkoutSessionResponse
	err := doJSON(ctx, p.client, apiCall{
		provider: p.Name(),
		method:   http.MethodPost,
		url:      p.config.BaseURL + "/v1/checkout/sessions",
		headers:  p.headers(),
		body:     body,
	}, &resp)
	if err != nil {
		p.logger.WithError(err).WithField("offer_id", req.OfferID).Error("Checkout session creation failed")
		return models.CheckoutSession{}, err
	}
	if resp.URL == "" {
		return models.CheckoutSession{}, &ProviderError{Provider: p.Name(), Detail: "checkout session has no redirect url"}
	}

	return models.CheckoutSession{SessionID: resp.ID, URL: resp.URL}, nil
}

func (p *HostedCheckoutProvider) CheckoutStatus(ctx context.Context, sessionID string) (models.CheckoutStatus, error) {
	if err := p.limiter.Wait(ctx, ratelimit.UpstreamCheckout); err != nil {
		return models.CheckoutStatus{}, NewProviderError(p.Name(), err)
	}

	var resp checkoutStatusResponse
	err := doJSON(ctx, p.client, apiCall{
		provider: p.Name(),
		method:   http.MethodGet,
		url:      p.config.BaseURL + "/v1/checkout/sessions/" + url.PathEscape(sessionID),
		headers:  p.headers(),
	}, &resp)
	if err != nil {
		return models.CheckoutStatus{}, err
	}

	return models.CheckoutStatus{
		Status:        resp.Status,
		PaymentStatus: resp.PaymentStatus,
		AmountTotal:   resp.AmountTotal,
		Amount:        currency.FromMinorUnits(resp.AmountTotal, resp.Currency),
		Currency:      resp.Currency,
		Metadata:      resp.Metadata,
	}, nil
}
