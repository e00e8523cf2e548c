package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/models"
	"github.com/dharmasatrya/trotair/internal/repository"
)

type hitSearcher interface {
	SearchWithHit(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, bool, error)
}

// OfferCatalog serves single offers and airport autocomplete.
type OfferCatalog interface {
	GetOffer(ctx context.Context, offerID string) (models.Offer, error)
	PlaceSuggestions(ctx context.Context, query string, types []string) []models.Place
}

var defaultPlaceTypes = []string{"airport", "city"}

// SearchHandler exposes the flight search service directly, without a
// booking session.
type SearchHandler struct {
	searcher hitSearcher
	catalog  OfferCatalog
	journal  repository.Journal
	logger   *logrus.Logger
}

func NewSearchHandler(searcher hitSearcher, catalog OfferCatalog, journal repository.Journal, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		catalog:  catalog,
		journal:  journal,
		logger:   logger,
	}
}

func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx := c.Request().Context()

	var criteria models.SearchCriteria
	if err := c.Bind(&criteria); err != nil {
		return bindError(c, err)
	}
	if err := criteria.Validate(); err != nil {
		return respondError(c, h.logger, err)
	}

	result, cacheHit, err := h.searcher.SearchWithHit(ctx, criteria)
	if err != nil {
		return respondError(c, h.logger, &models.SearchError{Detail: models.UpstreamDetail(err), Err: err})
	}

	recordSearch(ctx, h.journal, h.logger, "", criteria, result)

	return c.JSON(http.StatusOK, models.SearchResponse{
		SearchCriteria: criteria,
		Metadata: models.SearchMetadata{
			OfferRequestID: result.OfferRequestID,
			TotalResults:   len(result.Offers),
			SearchTimeMs:   time.Since(startTime).Milliseconds(),
			CacheHit:       cacheHit,
		},
		Offers: nonNilOffers(result.Offers),
	})
}

func (h *SearchHandler) GetOffer(c echo.Context) error {
	offer, err := h.catalog.GetOffer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, offer)
}

func (h *SearchHandler) PlaceSuggestions(c echo.Context) error {
	types := defaultPlaceTypes
	if raw := c.QueryParam("types"); raw != "" {
		types = strings.Split(raw, ",")
	}

	places := h.catalog.PlaceSuggestions(c.Request().Context(), c.QueryParam("query"), types)
	return c.JSON(http.StatusOK, models.PlacesResponse{Data: places})
}

func recordSearch(ctx context.Context, journal repository.Journal, logger *logrus.Logger, sessionID string, criteria models.SearchCriteria, result models.SearchResult) {
	record := &repository.SearchRecord{
		BookingSessionID: sessionID,
		Origin:           criteria.Origin,
		Destination:      criteria.Destination,
		DepartureDate:    criteria.DepartureDate,
		ReturnDate:       criteria.ReturnDate,
		Passengers:       criteria.Passengers,
		CabinClass:       string(criteria.CabinClass),
		TripType:         string(criteria.TripType),
		OfferRequestID:   result.OfferRequestID,
		ResultCount:      len(result.Offers),
	}
	if err := journal.RecordSearch(ctx, record); err != nil {
		logger.WithError(err).Warn("Failed to record flight search")
	}
}

func nonNilOffers(offers []models.Offer) []models.Offer {
	if offers == nil {
		return []models.Offer{}
	}
	return offers
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
