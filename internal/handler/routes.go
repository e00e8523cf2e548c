package handler

import "github.com/labstack/echo/v4"

func RegisterRoutes(e *echo.Echo, sessions *SessionHandler, search *SearchHandler, payments *PaymentHandler) {
	api := e.Group("/api/v1")

	sessions.Register(api.Group("/sessions"))

	api.POST("/flights/search", search.Search)
	api.GET("/flights/offers/:id", search.GetOffer)
	api.GET("/places/suggestions", search.PlaceSuggestions)

	api.GET("/payments/confirm", payments.Confirm)
	api.GET("/payments/confirm/stream", payments.ConfirmStream)
	api.POST("/payments/checkout/session", payments.CreateCheckoutSession)
	api.GET("/payments/checkout/status/:session_id", payments.CheckoutStatus)

	e.GET("/health", HealthHandler)
}
