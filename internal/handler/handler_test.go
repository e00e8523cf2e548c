package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/trotair/internal/booking"
	"github.com/dharmasatrya/trotair/internal/models"
	"github.com/dharmasatrya/trotair/internal/payment"
	"github.com/dharmasatrya/trotair/internal/providers"
	"github.com/dharmasatrya/trotair/internal/repository"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).(models.SearchResult), args.Error(1)
}

func (m *MockSearcher) SearchWithHit(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, bool, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).(models.SearchResult), args.Bool(1), args.Error(2)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetOffer(ctx context.Context, offerID string) (models.Offer, error) {
	args := m.Called(ctx, offerID)
	return args.Get(0).(models.Offer), args.Error(1)
}

func (m *MockCatalog) PlaceSuggestions(ctx context.Context, query string, types []string) []models.Place {
	args := m.Called(ctx, query, types)
	return args.Get(0).([]models.Place)
}

type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) CreateSession(ctx context.Context, req models.CheckoutRequest) (models.CheckoutSession, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.CheckoutSession), args.Error(1)
}

func (m *MockCheckout) CheckoutStatus(ctx context.Context, sessionID string) (models.CheckoutStatus, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(models.CheckoutStatus), args.Error(1)
}

type journalSpy struct {
	mu           sync.Mutex
	searches     []repository.SearchRecord
	transactions []repository.PaymentTransaction
	updates      []string
}

func (j *journalSpy) RecordSearch(_ context.Context, r *repository.SearchRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.searches = append(j.searches, *r)
	return nil
}

func (j *journalSpy) CreatePaymentTransaction(_ context.Context, tx *repository.PaymentTransaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.transactions = append(j.transactions, *tx)
	return nil
}

func (j *journalSpy) UpdatePaymentStatus(_ context.Context, id, status, paymentStatus string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.updates = append(j.updates, id+":"+status+":"+paymentStatus)
	return nil
}

func (j *journalSpy) GetPaymentTransaction(_ context.Context, id string) (*repository.PaymentTransaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, tx := range j.transactions {
		if tx.CheckoutSessionID == id {
			return &tx, nil
		}
	}
	return nil, repository.ErrTransactionNotFound
}

type testServer struct {
	echo     *echo.Echo
	store    *booking.Store
	searcher *MockSearcher
	catalog  *MockCatalog
	checkout *MockCheckout
	journal  *journalSpy
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ts := &testServer{
		echo:     echo.New(),
		searcher: new(MockSearcher),
		catalog:  new(MockCatalog),
		checkout: new(MockCheckout),
		journal:  &journalSpy{},
	}
	ts.store = booking.NewStore(booking.Dependencies{
		Searcher:     ts.searcher,
		Checkout:     ts.checkout,
		ReturnOrigin: "https://trotair.example",
		Logger:       logger,
	}, time.Hour)

	poller := payment.NewPoller(ts.checkout, payment.Config{MaxAttempts: 3, Interval: time.Second}, logger,
		payment.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))

	RegisterRoutes(ts.echo,
		NewSessionHandler(ts.store, ts.journal, logger),
		NewSearchHandler(ts.searcher, ts.catalog, ts.journal, logger),
		NewPaymentHandler(poller, ts.checkout, ts.journal, logger),
	)
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func testOffers() []models.Offer {
	return []models.Offer{
		{ID: "off_2", Price: models.Price{Amount: 310, Currency: "EUR"}, Owner: "Air France"},
		{ID: "off_1", Price: models.Price{Amount: 120.5, Currency: "EUR"}, Owner: "Royal Air Maroc"},
	}
}

const searchBody = `{"origin":"cmn","destination":"CDG","departure_date":"2026-06-10","passengers":1}`

func TestSessionFlow(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.SessionResponse](t, rec)
	assert.Equal(t, "idle", created.State)
	base := "/api/v1/sessions/" + created.SessionID

	ts.searcher.On("Search", mock.Anything, mock.Anything).
		Return(models.SearchResult{OfferRequestID: "orq_1", Offers: testOffers()}, nil).Once()

	rec = ts.do(http.MethodPost, base+"/search", searchBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	searched := decode[models.SessionResponse](t, rec)
	assert.Equal(t, "results_shown", searched.State)
	require.Len(t, searched.Results, 2)
	assert.Equal(t, "off_2", searched.Results[0].ID)
	require.Len(t, ts.journal.searches, 1)
	assert.Equal(t, "CMN", ts.journal.searches[0].Origin)
	assert.Equal(t, created.SessionID, ts.journal.searches[0].BookingSessionID)

	rec = ts.do(http.MethodPost, base+"/select", `{"offer_id":"off_1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	selected := decode[models.SessionResponse](t, rec)
	assert.True(t, selected.CheckoutOpen)
	require.NotNil(t, selected.SelectedOffer)
	assert.Equal(t, "off_1", selected.SelectedOffer.ID)

	ts.checkout.On("CreateSession", mock.Anything, mock.MatchedBy(func(r models.CheckoutRequest) bool {
		return r.OfferID == "off_1" && r.Amount == 120.5 && r.ReturnOrigin == "http://localhost:3000" &&
			r.Metadata[booking.MetadataSessionKey] == created.SessionID
	})).Return(models.CheckoutSession{SessionID: "cs_1", URL: "https://pay.example/cs_1"}, nil).Once()

	rec = ts.do(http.MethodPost, base+"/checkout", `{"origin_url":"http://localhost:3000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://pay.example/cs_1", decode[models.RedirectResponse](t, rec).URL)
	require.Len(t, ts.journal.transactions, 1)
	assert.Equal(t, "cs_1", ts.journal.transactions[0].CheckoutSessionID)
	assert.Equal(t, "off_1", ts.journal.transactions[0].OfferID)

	rec = ts.do(http.MethodGet, base, "")
	assert.Equal(t, "redirected", decode[models.SessionResponse](t, rec).State)

	ts.checkout.On("CheckoutStatus", mock.Anything, "cs_1").
		Return(models.CheckoutStatus{Status: "complete", PaymentStatus: "paid"}, nil).Once()

	rec = ts.do(http.MethodGet, "/api/v1/payments/confirm?return_url="+
		"https%3A%2F%2Ftrotair.example%2Fbooking-success%3Fsession_id%3Dcs_1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	confirmation := decode[models.PaymentConfirmationResponse](t, rec)
	assert.Equal(t, models.PaymentSuccess, confirmation.Result.Status)
	assert.Len(t, confirmation.History, 2)

	ts.searcher.AssertExpectations(t)
	ts.checkout.AssertExpectations(t)
}

func TestSessionSearch_ValidationError(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.store.Create().ID()

	rec := ts.do(http.MethodPost, "/api/v1/sessions/"+id+"/search", `{"origin":"CMN","departure_date":"2026-06-10"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Error)
	assert.Equal(t, models.ErrMissingDestination.Error(), resp.Message)
	ts.searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSessionSearch_UpstreamFailure(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.store.Create().ID()

	ts.searcher.On("Search", mock.Anything, mock.Anything).Return(models.SearchResult{},
		&providers.ProviderError{Provider: "duffel", StatusCode: 422, Detail: "Departure date is in the past"}).Once()

	rec := ts.do(http.MethodPost, "/api/v1/sessions/"+id+"/search", searchBody)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, "search_error", resp.Error)
	assert.Equal(t, "Departure date is in the past", resp.Message)
	assert.Empty(t, ts.journal.searches)
}

func TestSessionSelect_Errors(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.store.Create().ID()
	base := "/api/v1/sessions/" + id

	rec := ts.do(http.MethodPost, base+"/select", `{"offer_id":"off_1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, base+"/select", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.searcher.On("Search", mock.Anything, mock.Anything).
		Return(models.SearchResult{Offers: testOffers()}, nil).Once()
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+"/search", searchBody).Code)

	rec = ts.do(http.MethodPost, base+"/select", `{"offer_id":"off_9"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "offer_not_found", decode[models.ErrorResponse](t, rec).Error)
}

func TestSessionCheckout_FailureKeepsOfferSelected(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.store.Create().ID()
	base := "/api/v1/sessions/" + id

	ts.searcher.On("Search", mock.Anything, mock.Anything).
		Return(models.SearchResult{Offers: testOffers()}, nil).Once()
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+"/search", searchBody).Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+"/select", `{"offer_id":"off_2"}`).Code)

	ts.checkout.On("CreateSession", mock.Anything, mock.MatchedBy(func(r models.CheckoutRequest) bool {
		return r.ReturnOrigin == "https://trotair.example"
	})).Return(models.CheckoutSession{}, &providers.ProviderError{Provider: "checkout", StatusCode: 400, Detail: "Invalid currency"}).Once()

	rec := ts.do(http.MethodPost, base+"/checkout", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Invalid currency", decode[models.ErrorResponse](t, rec).Message)
	assert.Empty(t, ts.journal.transactions)

	snap := decode[models.SessionResponse](t, ts.do(http.MethodGet, base, ""))
	assert.Equal(t, "offer_selected", snap.State)
	assert.True(t, snap.CheckoutOpen)
	assert.Equal(t, "Invalid currency", snap.LastError)
}

func TestSessionCheckout_WithoutSelection(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.store.Create().ID()

	rec := ts.do(http.MethodPost, "/api/v1/sessions/"+id+"/checkout", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	ts.checkout.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestSessionCloseCheckoutAndReset(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.store.Create().ID()
	base := "/api/v1/sessions/" + id

	ts.searcher.On("Search", mock.Anything, mock.Anything).
		Return(models.SearchResult{Offers: testOffers()}, nil).Once()
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+"/search", searchBody).Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, base+"/select", `{"offer_id":"off_2"}`).Code)

	for range 2 {
		rec := ts.do(http.MethodDelete, base+"/checkout", "")
		require.Equal(t, http.StatusOK, rec.Code)
		snap := decode[models.SessionResponse](t, rec)
		assert.False(t, snap.CheckoutOpen)
		assert.Nil(t, snap.SelectedOffer)
		assert.Len(t, snap.Results, 2)
	}

	rec := ts.do(http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	snap := decode[models.SessionResponse](t, ts.do(http.MethodGet, base, ""))
	assert.Equal(t, "idle", snap.State)
	assert.Empty(t, snap.Results)
}

func TestSessionNotFound(t *testing.T) {
	ts := setupTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/sessions/missing"},
		{http.MethodDelete, "/api/v1/sessions/missing"},
		{http.MethodPost, "/api/v1/sessions/missing/select"},
	} {
		rec := ts.do(tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.Equal(t, "session_not_found", decode[models.ErrorResponse](t, rec).Error)
	}
}

func TestPaymentConfirm(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		statuses    []models.CheckoutStatus
		wantStatus  models.PaymentState
		wantOutcome string
		wantHistory int
	}{
		{
			name:        "missing session id",
			query:       "",
			wantStatus:  models.PaymentFailed,
			wantOutcome: models.OutcomeFailed,
			wantHistory: 1,
		},
		{
			name:        "expired",
			query:       "?session_id=cs_1",
			statuses:    []models.CheckoutStatus{{Status: "expired"}},
			wantStatus:  models.PaymentFailed,
			wantOutcome: models.OutcomeFailed,
			wantHistory: 2,
		},
		{
			name:        "never confirmed",
			query:       "?session_id=cs_1",
			statuses:    []models.CheckoutStatus{{Status: "open"}, {Status: "open"}, {Status: "open"}},
			wantStatus:  models.PaymentFailed,
			wantOutcome: models.OutcomeUnresolved,
			wantHistory: 4,
		},
		{
			name:        "paid after a pending answer",
			query:       "?session_id=cs_1",
			statuses:    []models.CheckoutStatus{{Status: "open"}, {Status: "complete", PaymentStatus: "paid"}},
			wantStatus:  models.PaymentSuccess,
			wantOutcome: models.OutcomePaid,
			wantHistory: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)
			for _, s := range tt.statuses {
				ts.checkout.On("CheckoutStatus", mock.Anything, "cs_1").Return(s, nil).Once()
			}

			rec := ts.do(http.MethodGet, "/api/v1/payments/confirm"+tt.query, "")

			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode[models.PaymentConfirmationResponse](t, rec)
			assert.Equal(t, tt.wantStatus, resp.Result.Status)
			assert.Equal(t, tt.wantOutcome, resp.Outcome)
			assert.Len(t, resp.History, tt.wantHistory)
			ts.checkout.AssertNumberOfCalls(t, "CheckoutStatus", len(tt.statuses))
		})
	}
}

func TestPaymentConfirmStream(t *testing.T) {
	ts := setupTestServer(t)
	ts.checkout.On("CheckoutStatus", mock.Anything, "cs_1").
		Return(models.CheckoutStatus{}, errors.New("connection reset")).Once()
	ts.checkout.On("CheckoutStatus", mock.Anything, "cs_1").
		Return(models.CheckoutStatus{Status: "complete", PaymentStatus: "paid"}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/v1/payments/confirm/stream?session_id=cs_1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "event: payment\n"))
	assert.Contains(t, body, `"status":"checking"`)
	assert.Contains(t, body, `"status":"success"`)
}

func TestFlightSearchProxy(t *testing.T) {
	ts := setupTestServer(t)
	ts.searcher.On("SearchWithHit", mock.Anything, mock.MatchedBy(func(c models.SearchCriteria) bool {
		return c.Origin == "CMN" && c.CabinClass == models.CabinEconomy
	})).Return(models.SearchResult{OfferRequestID: "orq_9", Offers: testOffers()}, true, nil).Once()

	rec := ts.do(http.MethodPost, "/api/v1/flights/search", searchBody)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[models.SearchResponse](t, rec)
	assert.True(t, resp.Metadata.CacheHit)
	assert.Equal(t, 2, resp.Metadata.TotalResults)
	assert.Equal(t, "orq_9", resp.Metadata.OfferRequestID)
	assert.Equal(t, "off_2", resp.Offers[0].ID)
	assert.Len(t, ts.journal.searches, 1)
}

func TestFlightSearchProxy_Validation(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/flights/search", `{"origin":"CMN","destination":"CMN","departure_date":"2026-06-10"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.searcher.AssertNotCalled(t, "SearchWithHit", mock.Anything, mock.Anything)
}

func TestGetOffer(t *testing.T) {
	ts := setupTestServer(t)
	ts.catalog.On("GetOffer", mock.Anything, "off_1").Return(testOffers()[1], nil).Once()
	ts.catalog.On("GetOffer", mock.Anything, "off_gone").Return(models.Offer{},
		&providers.ProviderError{Provider: "duffel", StatusCode: 404, Detail: "Offer not found"}).Once()

	rec := ts.do(http.MethodGet, "/api/v1/flights/offers/off_1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "off_1", decode[models.Offer](t, rec).ID)

	rec = ts.do(http.MethodGet, "/api/v1/flights/offers/off_gone", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Offer not found", decode[models.ErrorResponse](t, rec).Message)
}

func TestPlaceSuggestions(t *testing.T) {
	ts := setupTestServer(t)
	ts.catalog.On("PlaceSuggestions", mock.Anything, "casa", []string{"airport", "city"}).
		Return([]models.Place{{IATACode: "CMN", Name: "Mohammed V International Airport"}}).Once()
	ts.catalog.On("PlaceSuggestions", mock.Anything, "par", []string{"city"}).
		Return([]models.Place{}).Once()

	rec := ts.do(http.MethodGet, "/api/v1/places/suggestions?query=casa", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CMN", decode[models.PlacesResponse](t, rec).Data[0].IATACode)

	rec = ts.do(http.MethodGet, "/api/v1/places/suggestions?query=par&types=city", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.PlacesResponse](t, rec).Data)
	ts.catalog.AssertExpectations(t)
}

func TestCreateCheckoutSessionProxy(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/payments/checkout/session", `{"flight_offer_id":"off_1","currency":"EUR","origin_url":"http://localhost:3000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.checkout.On("CreateSession", mock.Anything, mock.Anything).
		Return(models.CheckoutSession{SessionID: "cs_7", URL: "https://pay.example/cs_7"}, nil).Once()

	rec = ts.do(http.MethodPost, "/api/v1/payments/checkout/session",
		`{"flight_offer_id":"off_1","amount":99.9,"currency":"EUR","origin_url":"http://localhost:3000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cs_7", decode[models.CheckoutSession](t, rec).SessionID)
	require.Len(t, ts.journal.transactions, 1)
	assert.Equal(t, 99.9, ts.journal.transactions[0].Amount)
}

func TestCheckoutStatusProxy(t *testing.T) {
	ts := setupTestServer(t)
	ts.journal.transactions = []repository.PaymentTransaction{{
		CheckoutSessionID: "cs_1",
		BookingSessionID:  "bs_1",
		OfferID:           "off_1",
		Status:            repository.TransactionStatusInitiated,
		PaymentStatus:     repository.PaymentStatusPending,
	}}
	paid := models.CheckoutStatus{Status: "complete", PaymentStatus: "paid", AmountTotal: 12050, Amount: 120.5, Currency: "eur"}
	ts.checkout.On("CheckoutStatus", mock.Anything, "cs_1").Return(paid, nil).Once()

	rec := ts.do(http.MethodGet, "/api/v1/payments/checkout/status/cs_1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[models.CheckoutStatusResponse](t, rec)
	assert.True(t, status.IsPaid())
	assert.Equal(t, int64(12050), status.AmountTotal)
	assert.Equal(t, 120.5, status.Amount)
	assert.Equal(t, "bs_1", status.BookingSessionID)
	assert.Equal(t, "off_1", status.OfferID)
	assert.Equal(t, []string{"cs_1:complete:paid"}, ts.journal.updates)
}

func TestCheckoutStatusProxy_UnknownCheckout(t *testing.T) {
	ts := setupTestServer(t)
	ts.checkout.On("CheckoutStatus", mock.Anything, "cs_other").
		Return(models.CheckoutStatus{Status: "open", PaymentStatus: "unpaid"}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/v1/payments/checkout/status/cs_other", "")

	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[models.CheckoutStatusResponse](t, rec)
	assert.Equal(t, "open", status.Status)
	assert.Empty(t, status.BookingSessionID)
	assert.Empty(t, ts.journal.updates)
}

func TestCheckoutStatusProxy_Unchanged(t *testing.T) {
	ts := setupTestServer(t)
	ts.journal.transactions = []repository.PaymentTransaction{{
		CheckoutSessionID: "cs_1",
		Status:            "complete",
		PaymentStatus:     "paid",
	}}
	ts.checkout.On("CheckoutStatus", mock.Anything, "cs_1").
		Return(models.CheckoutStatus{Status: "complete", PaymentStatus: "paid"}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/v1/payments/checkout/status/cs_1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ts.journal.updates)
}

func TestCheckoutStatusProxy_BlankSessionID(t *testing.T) {
	ts := setupTestServer(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewPaymentHandler(nil, ts.checkout, ts.journal, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/checkout/status/%20", nil)
	rec := httptest.NewRecorder()
	c := ts.echo.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(" ")

	require.NoError(t, h.CheckoutStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[models.ErrorResponse](t, rec).Error)
	ts.checkout.AssertNotCalled(t, "CheckoutStatus", mock.Anything, mock.Anything)
}

func TestRespondError_UnhandledUsesInjectedLogger(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, respondError(c, logger, errors.New("boom")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode[models.ErrorResponse](t, rec).Error)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Unhandled request error", hook.LastEntry().Message)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)
	rec := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
