package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/models"
	"github.com/dharmasatrya/trotair/internal/payment"
	"github.com/dharmasatrya/trotair/internal/repository"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, req models.CheckoutRequest) (models.CheckoutSession, error)
	CheckoutStatus(ctx context.Context, sessionID string) (models.CheckoutStatus, error)
}

type paymentResolver interface {
	Resolve(ctx context.Context, sessionID string) iter.Seq[models.PaymentCheck]
	Await(ctx context.Context, sessionID string) ([]models.PaymentCheck, error)
}

type PaymentHandler struct {
	poller   paymentResolver
	checkout CheckoutService
	journal  repository.Journal
	logger   *logrus.Logger
}

func NewPaymentHandler(poller paymentResolver, checkout CheckoutService, journal repository.Journal, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		poller:   poller,
		checkout: checkout,
		journal:  journal,
		logger:   logger,
	}
}

// sessionIDParam reads session_id, falling back to the full return_url the
// browser landed on.
func sessionIDParam(c echo.Context) string {
	if id := c.QueryParam("session_id"); id != "" {
		return id
	}
	return payment.SessionIDFromReturnURL(c.QueryParam("return_url"))
}

// Confirm blocks until the payment resolves and returns the final check with
// everything observed on the way. A payment we stopped asking about is
// reported as unresolved, not as declined.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := sessionIDParam(c)

	history, err := h.poller.Await(ctx, sessionID)
	outcome := models.OutcomePaid
	switch {
	case err == nil:
	case errors.Is(err, models.ErrPaymentUnresolved):
		outcome = models.OutcomeUnresolved
		h.logger.WithField("checkout_session_id", sessionID).Warn("Payment left unresolved")
	case errors.Is(err, models.ErrPaymentFailed):
		outcome = models.OutcomeFailed
	default:
		return err
	}
	if len(history) == 0 {
		return errorJSON(c, http.StatusInternalServerError, "internal_error", "Payment confirmation ended without a result")
	}

	return c.JSON(http.StatusOK, models.PaymentConfirmationResponse{
		Outcome: outcome,
		Result:  history[len(history)-1],
		History: history,
	})
}

// ConfirmStream sends each check as a server-sent event as soon as it is
// known. The loop stops when the client goes away.
func (h *PaymentHandler) ConfirmStream(c echo.Context) error {
	ctx := c.Request().Context()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	for check := range h.poller.Resolve(ctx, sessionIDParam(c)) {
		data, err := json.Marshal(check)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "event: payment\ndata: %s\n\n", data); err != nil {
			h.logger.WithError(err).Debug("Payment stream client went away")
			return nil
		}
		res.Flush()
	}
	return nil
}

// CreateCheckoutSession starts a hosted checkout for an offer outside of any
// booking session.
func (h *PaymentHandler) CreateCheckoutSession(c echo.Context) error {
	var req models.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if req.ReturnOrigin == "" {
		req.ReturnOrigin = c.Request().Header.Get(echo.HeaderOrigin)
	}
	if err := req.Validate(); err != nil {
		return respondError(c, h.logger, err)
	}

	ctx := c.Request().Context()
	session, err := h.checkout.CreateSession(ctx, req)
	if err != nil {
		return respondError(c, h.logger, &models.CheckoutError{Detail: models.UpstreamDetail(err), Err: err})
	}

	tx := &repository.PaymentTransaction{
		CheckoutSessionID: session.SessionID,
		OfferID:           req.OfferID,
		Amount:            req.Amount,
		Currency:          req.Currency,
	}
	if err := h.journal.CreatePaymentTransaction(ctx, tx); err != nil {
		h.logger.WithError(err).WithField("checkout_session_id", session.SessionID).Warn("Failed to record payment transaction")
	}

	return c.JSON(http.StatusOK, session)
}

// CheckoutStatus proxies the upstream status and, for checkouts we opened,
// brings the stored transaction up to date.
func (h *PaymentHandler) CheckoutStatus(c echo.Context) error {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		return respondError(c, h.logger, models.ErrMissingSessionID)
	}
	ctx := c.Request().Context()

	status, err := h.checkout.CheckoutStatus(ctx, sessionID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	resp := models.CheckoutStatusResponse{CheckoutStatus: status}
	log := h.logger.WithField("checkout_session_id", sessionID)

	tx, err := h.journal.GetPaymentTransaction(ctx, sessionID)
	switch {
	case errors.Is(err, repository.ErrTransactionNotFound):
		log.Debug("No stored transaction for checkout session")
	case err != nil:
		log.WithError(err).Warn("Failed to load payment transaction")
	default:
		resp.BookingSessionID = tx.BookingSessionID
		resp.OfferID = tx.OfferID
		if tx.Status != status.Status || tx.PaymentStatus != status.PaymentStatus {
			if err := h.journal.UpdatePaymentStatus(ctx, sessionID, status.Status, status.PaymentStatus); err != nil {
				log.WithError(err).Warn("Failed to record payment status")
			}
		}
	}

	return c.JSON(http.StatusOK, resp)
}
