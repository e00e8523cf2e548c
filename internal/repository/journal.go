package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const (
	TransactionStatusInitiated = "initiated"
	PaymentStatusPending       = "pending"
)

var ErrTransactionNotFound = errors.New("payment transaction not found")

// SearchRecord is one flight search as it was sent upstream.
type SearchRecord struct {
	ID               uuid.UUID `db:"id"`
	BookingSessionID string    `db:"booking_session_id"`
	Origin           string    `db:"origin"`
	Destination      string    `db:"destination"`
	DepartureDate    string    `db:"departure_date"`
	ReturnDate       *string   `db:"return_date"`
	Passengers       int       `db:"passengers"`
	CabinClass       string    `db:"cabin_class"`
	TripType         string    `db:"trip_type"`
	OfferRequestID   string    `db:"offer_request_id"`
	ResultCount      int       `db:"result_count"`
	CreatedAt        time.Time `db:"created_at"`
}

// PaymentTransaction tracks one hosted checkout session from creation until
// the poller last saw it.
type PaymentTransaction struct {
	ID                uuid.UUID `db:"id"`
	CheckoutSessionID string    `db:"checkout_session_id"`
	BookingSessionID  string    `db:"booking_session_id"`
	OfferID           string    `db:"offer_id"`
	Amount            float64   `db:"amount"`
	Currency          string    `db:"currency"`
	Status            string    `db:"status"`
	PaymentStatus     string    `db:"payment_status"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Journal records what happened during booking. Callers treat every method as
// best-effort.
type Journal interface {
	RecordSearch(ctx context.Context, record *SearchRecord) error
	CreatePaymentTransaction(ctx context.Context, tx *PaymentTransaction) error
	UpdatePaymentStatus(ctx context.Context, checkoutSessionID, status, paymentStatus string) error
	GetPaymentTransaction(ctx context.Context, checkoutSessionID string) (*PaymentTransaction, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS flight_searches (
	id UUID PRIMARY KEY,
	booking_session_id TEXT NOT NULL DEFAULT '',
	origin TEXT NOT NULL,
	destination TEXT NOT NULL,
	departure_date TEXT NOT NULL,
	return_date TEXT,
	passengers INTEGER NOT NULL,
	cabin_class TEXT NOT NULL,
	trip_type TEXT NOT NULL,
	offer_request_id TEXT NOT NULL DEFAULT '',
	result_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS payment_transactions (
	id UUID PRIMARY KEY,
	checkout_session_id TEXT NOT NULL UNIQUE,
	booking_session_id TEXT NOT NULL DEFAULT '',
	offer_id TEXT NOT NULL,
	amount NUMERIC(12, 2) NOT NULL,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);`

// PostgresJournal stores searches and payment transactions in PostgreSQL.
type PostgresJournal struct {
	db     *sqlx.DB
	logger *logrus.Logger
	now    func() time.Time
}

func NewPostgresJournal(db *sqlx.DB, logger *logrus.Logger) *PostgresJournal {
	return &PostgresJournal{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Migrate creates the tables if they do not exist yet.
func (r *PostgresJournal) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (r *PostgresJournal) RecordSearch(ctx context.Context, record *SearchRecord) error {
	if record == nil {
		return fmt.Errorf("search record cannot be nil")
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now()
	}

	query := `
		INSERT INTO flight_searches (
			id, booking_session_id, origin, destination, departure_date, return_date,
			passengers, cabin_class, trip_type, offer_request_id, result_count, created_at
		) VALUES (
			:id, :booking_session_id, :origin, :destination, :departure_date, :return_date,
			:passengers, :cabin_class, :trip_type, :offer_request_id, :result_count, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

func (r *PostgresJournal) CreatePaymentTransaction(ctx context.Context, tx *PaymentTransaction) error {
	if tx == nil {
		return fmt.Errorf("payment transaction cannot be nil")
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Status == "" {
		tx.Status = TransactionStatusInitiated
	}
	if tx.PaymentStatus == "" {
		tx.PaymentStatus = PaymentStatusPending
	}
	now := r.now()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now

	query := `
		INSERT INTO payment_transactions (
			id, checkout_session_id, booking_session_id, offer_id, amount, currency,
			status, payment_status, created_at, updated_at
		) VALUES (
			:id, :checkout_session_id, :booking_session_id, :offer_id, :amount, :currency,
			:status, :payment_status, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, tx); err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}
	return nil
}

// UpdatePaymentStatus does nothing if the checkout session was never recorded.
func (r *PostgresJournal) UpdatePaymentStatus(ctx context.Context, checkoutSessionID, status, paymentStatus string) error {
	query := `
		UPDATE payment_transactions
		SET status = $1, payment_status = $2, updated_at = $3
		WHERE checkout_session_id = $4`

	result, err := r.db.ExecContext(ctx, query, status, paymentStatus, r.now(), checkoutSessionID)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		r.logger.WithField("checkout_session_id", checkoutSessionID).Debug("No payment transaction to update")
	}
	return nil
}

func (r *PostgresJournal) GetPaymentTransaction(ctx context.Context, checkoutSessionID string) (*PaymentTransaction, error) {
	query := `
		SELECT id, checkout_session_id, booking_session_id, offer_id, amount, currency,
			status, payment_status, created_at, updated_at
		FROM payment_transactions
		WHERE checkout_session_id = $1`

	var tx PaymentTransaction
	if err := r.db.GetContext(ctx, &tx, query, checkoutSessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get payment transaction: %w", err)
	}
	return &tx, nil
}

// NoopJournal is used when no database is configured.
type NoopJournal struct{}

func (NoopJournal) RecordSearch(context.Context, *SearchRecord) error { return nil }

func (NoopJournal) CreatePaymentTransaction(context.Context, *PaymentTransaction) error { return nil }

func (NoopJournal) UpdatePaymentStatus(context.Context, string, string, string) error { return nil }

func (NoopJournal) GetPaymentTransaction(context.Context, string) (*PaymentTransaction, error) {
	return nil, ErrTransactionNotFound
}
