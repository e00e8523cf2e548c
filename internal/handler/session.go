package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/booking"
	"github.com/dharmasatrya/trotair/internal/models"
	"github.com/dharmasatrya/trotair/internal/repository"
)

type checkoutBody struct {
	ReturnOrigin string `json:"origin_url"`
}

// SessionHandler drives booking sessions over HTTP. Every route below
// /sessions/:id operates on that one session.
type SessionHandler struct {
	store   *booking.Store
	journal repository.Journal
	logger  *logrus.Logger
}

func NewSessionHandler(store *booking.Store, journal repository.Journal, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{
		store:   store,
		journal: journal,
		logger:  logger,
	}
}

func (h *SessionHandler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Reset)
	g.POST("/:id/search", h.Search)
	g.POST("/:id/select", h.Select)
	g.POST("/:id/checkout", h.ConfirmCheckout)
	g.DELETE("/:id/checkout", h.CloseCheckout)
}

func (h *SessionHandler) Create(c echo.Context) error {
	ctrl := h.store.Create()
	return c.JSON(http.StatusCreated, toSessionResponse(ctrl.Snapshot()))
}

func (h *SessionHandler) Get(c echo.Context) error {
	ctrl, err := h.store.Get(c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(ctrl.Snapshot()))
}

func (h *SessionHandler) Reset(c echo.Context) error {
	if err := h.store.Reset(c.Param("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHandler) Search(c echo.Context) error {
	ctrl, err := h.store.Get(c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var criteria models.SearchCriteria
	if err := c.Bind(&criteria); err != nil {
		return bindError(c, err)
	}

	ctx := c.Request().Context()
	offers, err := ctrl.SubmitSearch(ctx, criteria)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	snap := ctrl.Snapshot()
	if snap.Criteria != nil {
		recordSearch(ctx, h.journal, h.logger, ctrl.ID(), *snap.Criteria, models.SearchResult{
			OfferRequestID: snap.OfferRequestID,
			Offers:         offers,
		})
	}

	resp := toSessionResponse(snap)
	resp.Results = nonNilOffers(offers)
	return c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) Select(c echo.Context) error {
	ctrl, err := h.store.Get(c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req models.SelectOfferRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if req.OfferID == "" {
		return respondError(c, h.logger, models.ErrMissingOfferID)
	}

	if _, err := ctrl.SelectOffer(req.OfferID); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(ctrl.Snapshot()))
}

func (h *SessionHandler) CloseCheckout(c echo.Context) error {
	ctrl, err := h.store.Get(c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	ctrl.CloseCheckout()
	return c.JSON(http.StatusOK, toSessionResponse(ctrl.Snapshot()))
}

// ConfirmCheckout answers with the hosted payment page URL. The return origin
// comes from the body, then the Origin header, then configuration.
func (h *SessionHandler) ConfirmCheckout(c echo.Context) error {
	ctrl, err := h.store.Get(c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var body checkoutBody
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&body); err != nil {
			return bindError(c, err)
		}
	}
	origin := body.ReturnOrigin
	if origin == "" {
		origin = c.Request().Header.Get(echo.HeaderOrigin)
	}

	selected := ctrl.Snapshot().SelectedOffer

	ctx := c.Request().Context()
	checkout, err := ctrl.ConfirmCheckout(ctx, origin)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if selected != nil {
		tx := &repository.PaymentTransaction{
			CheckoutSessionID: checkout.SessionID,
			BookingSessionID:  ctrl.ID(),
			OfferID:           selected.ID,
			Amount:            selected.Price.Amount,
			Currency:          selected.Price.Currency,
		}
		if err := h.journal.CreatePaymentTransaction(ctx, tx); err != nil {
			h.logger.WithError(err).WithField("checkout_session_id", checkout.SessionID).Warn("Failed to record payment transaction")
		}
	}

	return c.JSON(http.StatusOK, models.RedirectResponse{URL: checkout.URL})
}

func toSessionResponse(s booking.Session) models.SessionResponse {
	return models.SessionResponse{
		SessionID:     s.ID,
		State:         s.State.String(),
		Criteria:      s.Criteria,
		Results:       nonNilOffers(s.Results),
		SelectedOffer: s.SelectedOffer,
		CheckoutOpen:  s.CheckoutOpen,
		LastError:     s.LastError,
	}
}
