package payment

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/models"
)

const (
	DefaultMaxAttempts = 5
	DefaultInterval    = 2 * time.Second

	ReasonMissingSession = "return URL carried no session_id"
	ReasonExpired        = "checkout session expired"
	ReasonUnresolved     = "payment was not confirmed in time"
)

type StatusChecker interface {
	CheckoutStatus(ctx context.Context, sessionID string) (models.CheckoutStatus, error)
}

type Config struct {
	MaxAttempts int
	Interval    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
	}
}

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Option func(*Poller)

// WithSleep replaces the wait between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(p *Poller) {
		p.sleep = sleep
	}
}

// Poller resolves the outcome of a hosted checkout after the user has been
// sent back to us.
type Poller struct {
	checker StatusChecker
	config  Config
	sleep   SleepFunc
	logger  *logrus.Logger
}

func NewPoller(checker StatusChecker, cfg Config, logger *logrus.Logger, opts ...Option) *Poller {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Interval < 0 {
		cfg.Interval = DefaultInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	p := &Poller{
		checker: checker,
		config:  cfg,
		sleep:   sleepContext,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve yields a checking snapshot before every status query and ends with
// exactly one success or failed snapshot. Pending answers and transport errors
// draw from the same attempt budget. If ctx ends first the sequence stops
// without a terminal snapshot.
func (p *Poller) Resolve(ctx context.Context, sessionID string) iter.Seq[models.PaymentCheck] {
	return func(yield func(models.PaymentCheck) bool) {
		if sessionID == "" {
			yield(models.PaymentCheck{Status: models.PaymentFailed, Reason: ReasonMissingSession})
			return
		}

		log := p.logger.WithField("checkout_session_id", sessionID)
		attempt := 0

		for {
			check := models.PaymentCheck{
				SessionID: sessionID,
				Attempt:   attempt + 1,
				Status:    models.PaymentChecking,
			}
			if !yield(check) {
				return
			}

			status, err := p.checker.CheckoutStatus(ctx, sessionID)
			if ctx.Err() != nil {
				return
			}

			if err == nil && status.IsPaid() {
				check.Status = models.PaymentSuccess
				log.WithField("attempt", check.Attempt).Info("Payment confirmed")
				yield(check)
				return
			}
			if err == nil && status.IsExpired() {
				check.Status = models.PaymentFailed
				check.Reason = ReasonExpired
				log.WithField("attempt", check.Attempt).Info("Checkout session expired")
				yield(check)
				return
			}

			attempt++
			entry := log.WithFields(logrus.Fields{
				"attempt":        attempt,
				"max_attempts":   p.config.MaxAttempts,
				"status":         status.Status,
				"payment_status": status.PaymentStatus,
			})
			if err != nil {
				entry = entry.WithError(err)
			}

			if attempt >= p.config.MaxAttempts {
				check.Status = models.PaymentFailed
				check.Reason = ReasonUnresolved
				entry.Warn("Giving up on payment confirmation")
				yield(check)
				return
			}
			entry.Debug("Payment not confirmed yet, retrying")

			if err := p.sleep(ctx, p.config.Interval); err != nil {
				return
			}
		}
	}
}

// Await drains Resolve and returns every snapshot it produced, the final one
// last. The error is nil only on success.
func (p *Poller) Await(ctx context.Context, sessionID string) ([]models.PaymentCheck, error) {
	var history []models.PaymentCheck
	for check := range p.Resolve(ctx, sessionID) {
		history = append(history, check)
	}

	var last models.PaymentCheck
	if len(history) > 0 {
		last = history[len(history)-1]
	}

	switch {
	case last.Status == models.PaymentSuccess:
		return history, nil
	case last.Status != models.PaymentFailed:
		if err := ctx.Err(); err != nil {
			return history, err
		}
		return history, fmt.Errorf("payment confirmation stopped early: %w", models.ErrPaymentUnresolved)
	case last.Reason == ReasonUnresolved:
		return history, models.ErrPaymentUnresolved
	default:
		return history, fmt.Errorf("%w: %s", models.ErrPaymentFailed, last.Reason)
	}
}

// SessionIDFromReturnURL pulls session_id out of the URL the hosted payment
// page redirected back to. It accepts a full URL or a bare query string.
func SessionIDFromReturnURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	if len(q) == 0 && u.RawQuery == "" {
		if values, err := url.ParseQuery(rawURL); err == nil {
			q = values
		}
	}
	return q.Get("session_id")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
