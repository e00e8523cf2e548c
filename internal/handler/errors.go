package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/booking"
	"github.com/dharmasatrya/trotair/internal/models"
	"github.com/dharmasatrya/trotair/internal/providers"
)

func errorJSON(c echo.Context, code int, kind, message string) error {
	return c.JSON(code, models.ErrorResponse{
		Error:   kind,
		Message: message,
		Code:    code,
	})
}

// respondError maps domain errors to HTTP responses. Upstream failures carry
// the upstream's own message when it sent one.
func respondError(c echo.Context, logger *logrus.Logger, err error) error {
	var (
		validationErr models.ValidationError
		transitionErr *booking.TransitionError
		searchErr     *models.SearchError
		checkoutErr   *models.CheckoutError
		providerErr   *providers.ProviderError
	)

	switch {
	case errors.As(err, &validationErr):
		return errorJSON(c, http.StatusBadRequest, "validation_error", validationErr.Error())
	case errors.Is(err, models.ErrSessionNotFound):
		return errorJSON(c, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, models.ErrOfferNotFound):
		return errorJSON(c, http.StatusNotFound, "offer_not_found", err.Error())
	case errors.Is(err, models.ErrNoResults), errors.Is(err, models.ErrNoOfferSelected):
		return errorJSON(c, http.StatusConflict, "invalid_state", err.Error())
	case errors.As(err, &transitionErr):
		return errorJSON(c, http.StatusConflict, "invalid_state", transitionErr.Error())
	case errors.As(err, &searchErr):
		return errorJSON(c, http.StatusBadGateway, "search_error", searchErr.Message())
	case errors.As(err, &checkoutErr):
		return errorJSON(c, http.StatusBadGateway, "checkout_error", checkoutErr.Message())
	case errors.As(err, &providerErr):
		if providerErr.StatusCode == http.StatusNotFound {
			return errorJSON(c, http.StatusNotFound, "not_found", upstreamMessage(err, "Not found"))
		}
		return errorJSON(c, http.StatusBadGateway, "upstream_error", upstreamMessage(err, "Upstream service error"))
	case errors.Is(err, context.DeadlineExceeded):
		return errorJSON(c, http.StatusGatewayTimeout, "timeout", "Upstream service timed out")
	default:
		logger.WithError(err).WithField("path", c.Path()).Error("Unhandled request error")
		return errorJSON(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func upstreamMessage(err error, fallback string) string {
	if detail := models.UpstreamDetail(err); detail != "" {
		return detail
	}
	return fallback
}

func bindError(c echo.Context, err error) error {
	return errorJSON(c, http.StatusBadRequest, "invalid_request", "Failed to parse request body: "+err.Error())
}
