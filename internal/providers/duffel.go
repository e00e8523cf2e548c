package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/models"
	"github.com/dharmasatrya/trotair/internal/ratelimit"
	"github.com/dharmasatrya/trotair/internal/timezone"
	"github.com/dharmasatrya/trotair/pkg/currency"
)

var ErrMalformedOffer = errors.New("malformed offer")

type duffelOfferRequestBody struct {
	Data duffelOfferRequestData `json:"data"`
}

type duffelOfferRequestData struct {
	Slices     []duffelSliceRequest `json:"slices"`
	Passengers []duffelPassenger    `json:"passengers"`
	CabinClass string               `json:"cabin_class"`
}

type duffelSliceRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type duffelPassenger struct {
	Type string `json:"type"`
}

type duffelOfferRequestResponse struct {
	Data struct {
		ID     string        `json:"id"`
		Offers []duffelOffer `json:"offers"`
	} `json:"data"`
}

type duffelOfferResponse struct {
	Data duffelOffer `json:"data"`
}

type duffelOffer struct {
	ID            string        `json:"id"`
	TotalAmount   string        `json:"total_amount"`
	TotalCurrency string        `json:"total_currency"`
	ExpiresAt     string        `json:"expires_at"`
	Owner         duffelCarrier `json:"owner"`
	Slices        []duffelSlice `json:"slices"`
}

type duffelCarrier struct {
	Name     string `json:"name"`
	IATACode string `json:"iata_code"`
}

type duffelPlace struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Name            string `json:"name"`
	IATACode        string `json:"iata_code"`
	CityName        string `json:"city_name"`
	IATACountryCode string `json:"iata_country_code"`
	TimeZone        string `json:"time_zone"`
}

type duffelSlice struct {
	Origin      duffelPlace     `json:"origin"`
	Destination duffelPlace     `json:"destination"`
	Segments    []duffelSegment `json:"segments"`
}

type duffelSegment struct {
	Origin                       duffelPlace   `json:"origin"`
	Destination                  duffelPlace   `json:"destination"`
	DepartingAt                  string        `json:"departing_at"`
	ArrivingAt                   string        `json:"arriving_at"`
	Duration                     string        `json:"duration"`
	MarketingCarrier             duffelCarrier `json:"marketing_carrier"`
	MarketingCarrierFlightNumber string        `json:"marketing_carrier_flight_number"`
}

type duffelPlacesResponse struct {
	Data []duffelPlace `json:"data"`
}

type DuffelConfig struct {
	BaseURL     string
	AccessToken string
	Version     string
	Timeout     time.Duration
}

// DuffelProvider talks to a Duffel-compatible flight search API.
type DuffelProvider struct {
	config  DuffelConfig
	client  httpDoer
	limiter *ratelimit.UpstreamLimiter
	logger  *logrus.Logger
}

func NewDuffelProvider(cfg DuffelConfig, limiter *ratelimit.UpstreamLimiter, logger *logrus.Logger) *DuffelProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Version == "" {
		cfg.Version = "v2"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &DuffelProvider{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

func (p *DuffelProvider) Name() string {
	return "duffel"
}

func (p *DuffelProvider) headers() map[string]string {
	return map[string]string{
		"Authorization":  "Bearer " + p.config.AccessToken,
		"Duffel-Version": p.config.Version,
	}
}

// Search creates an offer request and returns its offers in the order the
// upstream ranked them.
func (p *DuffelProvider) Search(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, error) {
	if err := p.limiter.Wait(ctx, ratelimit.UpstreamFlights); err != nil {
		return models.SearchResult{}, NewProviderError(p.Name(), err)
	}

	var resp duffelOfferRequestResponse
	err := doJSON(ctx, p.client, apiCall{
		provider: p.Name(),
		method:   http.MethodPost,
		url:      p.config.BaseURL + "/air/offer_requests?return_offers=true",
		headers:  p.headers(),
		body:     buildOfferRequest(criteria),
	}, &resp)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"origin":      criteria.Origin,
			"destination": criteria.Destination,
		}).Error("Flight search request failed")
		return models.SearchResult{}, err
	}

	offers := make([]models.Offer, 0, len(resp.Data.Offers))
	for _, o := range resp.Data.Offers {
		offer, err := p.normalize(o)
		if err != nil {
			p.logger.WithError(err).WithField("offer_id", o.ID).Warn("Skipping malformed offer")
			continue
		}
		offers = append(offers, offer)
	}

	return models.SearchResult{
		OfferRequestID: resp.Data.ID,
		Offers:         offers,
	}, nil
}

func (p *DuffelProvider) GetOffer(ctx context.Context, offerID string) (models.Offer, error) {
	if err := p.limiter.Wait(ctx, ratelimit.UpstreamFlights); err != nil {
		return models.Offer{}, NewProviderError(p.Name(), err)
	}

	var resp duffelOfferResponse
	err := doJSON(ctx, p.client, apiCall{
		provider: p.Name(),
		method:   http.MethodGet,
		url:      p.config.BaseURL + "/air/offers/" + url.PathEscape(offerID),
		headers:  p.headers(),
	}, &resp)
	if err != nil {
		return models.Offer{}, err
	}
	return p.normalize(resp.Data)
}

// PlaceSuggestions backs the airport autocomplete. It degrades to an empty
// list on any upstream trouble.
func (p *DuffelProvider) PlaceSuggestions(ctx context.Context, query string, types []string) []models.Place {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []models.Place{}
	}
	if err := p.limiter.Wait(ctx, ratelimit.UpstreamFlights); err != nil {
		return []models.Place{}
	}

	v := url.Values{}
	v.Set("query", query)
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			v.Add("types[]", t)
		}
	}

	var resp duffelPlacesResponse
	err := doJSON(ctx, p.client, apiCall{
		provider: p.Name(),
		method:   http.MethodGet,
		url:      p.config.BaseURL + "/places/suggestions?" + v.Encode(),
		headers:  p.headers(),
	}, &resp)
	if err != nil {
		p.logger.WithError(err).WithField("query", query).Warn("Place suggestions unavailable")
		return []models.Place{}
	}

	places := make([]models.Place, 0, len(resp.Data))
	for _, pl := range resp.Data {
		places = append(places, models.Place{
			ID:       pl.ID,
			Type:     pl.Type,
			Name:     pl.Name,
			IATACode: pl.IATACode,
			CityName: pl.CityName,
			Country:  pl.IATACountryCode,
		})
	}
	return places
}

func buildOfferRequest(c models.SearchCriteria) duffelOfferRequestBody {
	slices := []duffelSliceRequest{{
		Origin:        c.Origin,
		Destination:   c.Destination,
		DepartureDate: c.DepartureDate,
	}}
	if c.IsRoundTrip() && c.ReturnDate != nil {
		slices = append(slices, duffelSliceRequest{
			Origin:        c.Destination,
			Destination:   c.Origin,
			DepartureDate: *c.ReturnDate,
		})
	}

	passengers := make([]duffelPassenger, max(c.Passengers, 1))
	for i := range passengers {
		passengers[i] = duffelPassenger{Type: "adult"}
	}

	return duffelOfferRequestBody{
		Data: duffelOfferRequestData{
			Slices:     slices,
			Passengers: passengers,
			CabinClass: string(c.CabinClass),
		},
	}
}

func (p *DuffelProvider) normalize(o duffelOffer) (models.Offer, error) {
	amount, err := strconv.ParseFloat(o.TotalAmount, 64)
	if err != nil {
		return models.Offer{}, err
	}

	slices := make([]models.Slice, 0, len(o.Slices))
	for _, s := range o.Slices {
		segments := make([]models.Segment, 0, len(s.Segments))
		for _, seg := range s.Segments {
			dep, err := timezone.ParseTimestamp(seg.DepartingAt, seg.Origin.TimeZone)
			if err != nil {
				return models.Offer{}, err
			}
			arr, err := timezone.ParseTimestamp(seg.ArrivingAt, seg.Destination.TimeZone)
			if err != nil {
				return models.Offer{}, err
			}
			mins, _ := timezone.ParseISODuration(seg.Duration)

			segments = append(segments, models.Segment{
				Origin:       seg.Origin.IATACode,
				Destination:  seg.Destination.IATACode,
				DepartingAt:  dep,
				ArrivingAt:   arr,
				CarrierCode:  seg.MarketingCarrier.IATACode,
				FlightNumber: seg.MarketingCarrier.IATACode + seg.MarketingCarrierFlightNumber,
				DurationMins: mins,
			})
		}
		if len(segments) == 0 {
			return models.Offer{}, fmt.Errorf("%w: %s has a slice without segments", ErrMalformedOffer, o.ID)
		}
		slices = append(slices, models.Slice{
			Origin:      s.Origin.IATACode,
			Destination: s.Destination.IATACode,
			Segments:    segments,
		})
	}
	if len(slices) == 0 {
		return models.Offer{}, fmt.Errorf("%w: %s has no slices", ErrMalformedOffer, o.ID)
	}

	var expiresAt *time.Time
	if o.ExpiresAt != "" {
		if t, err := timezone.ParseTimestamp(o.ExpiresAt, ""); err == nil {
			expiresAt = &t
		}
	}

	return models.Offer{
		ID: o.ID,
		Price: models.Price{
			Amount:    amount,
			Currency:  o.TotalCurrency,
			Formatted: currency.Format(amount, o.TotalCurrency),
		},
		Owner:     o.Owner.Name,
		OwnerCode: o.Owner.IATACode,
		Slices:    slices,
		ExpiresAt: expiresAt,
	}, nil
}
