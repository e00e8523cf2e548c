package booking

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/models"
)

// MetadataSessionKey tags checkout sessions with the booking session that
// opened them.
const MetadataSessionKey = "booking_session_id"

type Searcher interface {
	Search(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, error)
}

type CheckoutCreator interface {
	CreateSession(ctx context.Context, req models.CheckoutRequest) (models.CheckoutSession, error)
}

type Dependencies struct {
	Searcher Searcher
	Checkout CheckoutCreator
	// ReturnOrigin is where the hosted payment page sends the user back to
	// when the caller does not supply one.
	ReturnOrigin string
	Logger       *logrus.Logger
	Now          func() time.Time
}

// Session is a point-in-time copy of a booking session.
type Session struct {
	ID             string
	State          State
	Criteria       *models.SearchCriteria
	OfferRequestID string
	Results        []models.Offer
	SelectedOffer  *models.Offer
	CheckoutOpen   bool
	LastError      string
	UpdatedAt      time.Time
}

// Controller owns one user's booking session. Remote calls are made without
// holding the lock, so Snapshot stays responsive while a search is in flight.
type Controller struct {
	id      string
	mu      sync.Mutex
	session Session
	deps    Dependencies
}

func NewController(id string, deps Dependencies) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	c := &Controller{id: id, deps: deps}
	c.session = Session{ID: id, State: StateIdle, UpdatedAt: deps.Now()}
	return c
}

func (c *Controller) ID() string {
	return c.id
}

// SubmitSearch validates criteria locally and, if valid, issues exactly one
// search. Starting a search drops any selection. Results are replaced
// wholesale and returned in upstream order.
func (c *Controller) SubmitSearch(ctx context.Context, criteria models.SearchCriteria) ([]models.Offer, error) {
	if err := criteria.Validate(); err != nil {
		c.mu.Lock()
		c.session.LastError = err.Error()
		c.touch()
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	if err := c.transition(StateSearching); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.session.Criteria = &criteria
	c.session.SelectedOffer = nil
	c.session.CheckoutOpen = false
	c.session.LastError = ""
	c.mu.Unlock()

	start := c.deps.Now()
	result, err := c.deps.Searcher.Search(ctx, criteria)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Reset while the search was in flight: the answer belongs to nobody.
	if c.session.State != StateSearching {
		if err != nil {
			return nil, &models.SearchError{Detail: models.UpstreamDetail(err), Err: err}
		}
		return slices.Clone(result.Offers), nil
	}

	if err != nil {
		searchErr := &models.SearchError{Detail: models.UpstreamDetail(err), Err: err}
		c.session.State = StateIdle
		c.session.LastError = searchErr.Message()
		c.touch()
		c.logger().WithError(err).Warn("Flight search failed")
		return nil, searchErr
	}

	c.session.Results = slices.Clone(result.Offers)
	if c.session.Results == nil {
		c.session.Results = []models.Offer{}
	}
	c.session.OfferRequestID = result.OfferRequestID
	c.session.State = StateResultsShown
	c.touch()

	c.logger().WithFields(logrus.Fields{
		"origin":      criteria.Origin,
		"destination": criteria.Destination,
		"offers":      len(result.Offers),
		"duration_ms": c.deps.Now().Sub(start).Milliseconds(),
	}).Info("Flight search completed")

	return slices.Clone(c.session.Results), nil
}

// SelectOffer picks one of the current results by id and opens checkout.
func (c *Controller) SelectOffer(offerID string) (models.Offer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.session.Results) == 0 {
		return models.Offer{}, models.ErrNoResults
	}
	idx := slices.IndexFunc(c.session.Results, func(o models.Offer) bool {
		return o.ID == offerID
	})
	if idx < 0 {
		return models.Offer{}, models.ErrOfferNotFound
	}
	if err := c.transition(StateOfferSelected); err != nil {
		return models.Offer{}, err
	}

	offer := c.session.Results[idx]
	c.session.SelectedOffer = &offer
	c.session.CheckoutOpen = true
	c.session.LastError = ""
	return offer, nil
}

// CloseCheckout dismisses checkout and drops the selection. Calling it with
// checkout already closed does nothing.
func (c *Controller) CloseCheckout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.CheckoutOpen && c.session.SelectedOffer == nil {
		return
	}
	c.session.CheckoutOpen = false
	c.session.SelectedOffer = nil
	if c.session.State.CanTransitionTo(StateIdle) {
		c.session.State = StateIdle
	}
	c.touch()
}

// ConfirmCheckout opens a hosted checkout session for the selected offer.
// On failure checkout stays open so the same offer can be retried.
func (c *Controller) ConfirmCheckout(ctx context.Context, returnOrigin string) (models.CheckoutSession, error) {
	c.mu.Lock()
	if c.session.SelectedOffer == nil {
		c.mu.Unlock()
		return models.CheckoutSession{}, models.ErrNoOfferSelected
	}
	if err := c.transition(StateCheckoutPending); err != nil {
		c.mu.Unlock()
		return models.CheckoutSession{}, err
	}
	if returnOrigin == "" {
		returnOrigin = c.deps.ReturnOrigin
	}
	offer := *c.session.SelectedOffer
	req := models.CheckoutRequest{
		OfferID:      offer.ID,
		Amount:       offer.Price.Amount,
		Currency:     offer.Price.Currency,
		ReturnOrigin: returnOrigin,
		Metadata:     map[string]string{MetadataSessionKey: c.id},
	}
	c.mu.Unlock()

	if err := req.Validate(); err != nil {
		c.settleCheckout(StateOfferSelected, err.Error())
		return models.CheckoutSession{}, err
	}

	checkout, err := c.deps.Checkout.CreateSession(ctx, req)
	if err != nil {
		checkoutErr := &models.CheckoutError{Detail: models.UpstreamDetail(err), Err: err}
		c.settleCheckout(StateOfferSelected, checkoutErr.Message())
		c.logger().WithError(err).WithField("offer_id", offer.ID).Warn("Checkout session creation failed")
		return models.CheckoutSession{}, checkoutErr
	}

	c.mu.Lock()
	if c.session.State == StateCheckoutPending {
		c.session.State = StateRedirected
	}
	c.session.SelectedOffer = nil
	c.session.CheckoutOpen = false
	c.session.LastError = ""
	c.touch()
	c.mu.Unlock()

	c.logger().WithFields(logrus.Fields{
		"offer_id":            offer.ID,
		"checkout_session_id": checkout.SessionID,
	}).Info("Redirecting to hosted checkout")

	return checkout, nil
}

// Reset empties the session as if the user went back to the landing page.
// The id is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = Session{ID: c.id, State: StateIdle}
	c.touch()
}

func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	s.Results = slices.Clone(c.session.Results)
	if c.session.Criteria != nil {
		criteria := *c.session.Criteria
		s.Criteria = &criteria
	}
	if c.session.SelectedOffer != nil {
		offer := *c.session.SelectedOffer
		s.SelectedOffer = &offer
	}
	return s
}

// LastActivity is when the session last changed.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.UpdatedAt
}

func (c *Controller) settleCheckout(next State, lastError string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.State == StateCheckoutPending {
		c.session.State = next
	}
	c.session.LastError = lastError
	c.touch()
}

// transition must be called with mu held.
func (c *Controller) transition(to State) error {
	from := c.session.State
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	c.session.State = to
	c.touch()
	c.logger().WithFields(logrus.Fields{
		"from": from,
		"to":   to,
	}).Debug("Booking session transition")
	return nil
}

func (c *Controller) touch() {
	c.session.UpdatedAt = c.deps.Now()
}

func (c *Controller) logger() *logrus.Entry {
	return c.deps.Logger.WithField("booking_session_id", c.id)
}
