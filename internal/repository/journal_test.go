package repository

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func newMockJournal(t *testing.T) (*PostgresJournal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	journal := NewPostgresJournal(sqlx.NewDb(db, "postgres"), logger)
	journal.now = func() time.Time { return fixedNow }
	return journal, mock
}

func TestMigrate(t *testing.T) {
	journal, mock := newMockJournal(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS flight_searches`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, journal.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSearch(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		journal, mock := newMockJournal(t)
		ret := "2026-06-20"
		record := &SearchRecord{
			BookingSessionID: "sess-1",
			Origin:           "CMN",
			Destination:      "CDG",
			DepartureDate:    "2026-06-10",
			ReturnDate:       &ret,
			Passengers:       2,
			CabinClass:       "economy",
			TripType:         "round-trip",
			OfferRequestID:   "orq_1",
			ResultCount:      12,
		}

		mock.ExpectExec(`INSERT INTO flight_searches`).
			WithArgs(sqlmock.AnyArg(), "sess-1", "CMN", "CDG", "2026-06-10", sqlmock.AnyArg(),
				2, "economy", "round-trip", "orq_1", 12, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, journal.RecordSearch(context.Background(), record))
		assert.NotEqual(t, uuid.Nil, record.ID)
		assert.Equal(t, fixedNow, record.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		journal, mock := newMockJournal(t)

		mock.ExpectExec(`INSERT INTO flight_searches`).
			WillReturnError(fmt.Errorf("connection reset"))

		err := journal.RecordSearch(context.Background(), &SearchRecord{Origin: "CMN"})
		assert.ErrorContains(t, err, "failed to record search")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nil Record", func(t *testing.T) {
		journal, _ := newMockJournal(t)
		assert.Error(t, journal.RecordSearch(context.Background(), nil))
	})
}

func TestCreatePaymentTransaction(t *testing.T) {
	journal, mock := newMockJournal(t)
	tx := &PaymentTransaction{
		CheckoutSessionID: "cs_1",
		BookingSessionID:  "sess-1",
		OfferID:           "off_1",
		Amount:            120.5,
		Currency:          "EUR",
	}

	mock.ExpectExec(`INSERT INTO payment_transactions`).
		WithArgs(sqlmock.AnyArg(), "cs_1", "sess-1", "off_1", 120.5, "EUR",
			TransactionStatusInitiated, PaymentStatusPending, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, journal.CreatePaymentTransaction(context.Background(), tx))
	assert.Equal(t, TransactionStatusInitiated, tx.Status)
	assert.Equal(t, PaymentStatusPending, tx.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentStatus(t *testing.T) {
	t.Run("Updates Row", func(t *testing.T) {
		journal, mock := newMockJournal(t)

		mock.ExpectExec(`UPDATE payment_transactions`).
			WithArgs("complete", "paid", fixedNow, "cs_1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, journal.UpdatePaymentStatus(context.Background(), "cs_1", "complete", "paid"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Session Is Not An Error", func(t *testing.T) {
		journal, mock := newMockJournal(t)

		mock.ExpectExec(`UPDATE payment_transactions`).
			WithArgs("open", "unpaid", fixedNow, "cs_missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, journal.UpdatePaymentStatus(context.Background(), "cs_missing", "open", "unpaid"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		journal, mock := newMockJournal(t)

		mock.ExpectExec(`UPDATE payment_transactions`).
			WillReturnError(fmt.Errorf("database error"))

		err := journal.UpdatePaymentStatus(context.Background(), "cs_1", "open", "unpaid")
		assert.ErrorContains(t, err, "failed to update payment status")
	})
}

func TestGetPaymentTransaction(t *testing.T) {
	columns := []string{
		"id", "checkout_session_id", "booking_session_id", "offer_id", "amount", "currency",
		"status", "payment_status", "created_at", "updated_at",
	}

	t.Run("Success", func(t *testing.T) {
		journal, mock := newMockJournal(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM payment_transactions WHERE checkout_session_id`).
			WithArgs("cs_1").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				id.String(), "cs_1", "sess-1", "off_1", 120.5, "EUR",
				"complete", "paid", fixedNow, fixedNow,
			))

		tx, err := journal.GetPaymentTransaction(context.Background(), "cs_1")
		require.NoError(t, err)
		assert.Equal(t, id, tx.ID)
		assert.Equal(t, "paid", tx.PaymentStatus)
		assert.Equal(t, 120.5, tx.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		journal, mock := newMockJournal(t)

		mock.ExpectQuery(`SELECT (.+) FROM payment_transactions`).
			WithArgs("cs_missing").
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := journal.GetPaymentTransaction(context.Background(), "cs_missing")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestNoopJournal(t *testing.T) {
	var j Journal = NoopJournal{}
	ctx := context.Background()

	assert.NoError(t, j.RecordSearch(ctx, &SearchRecord{}))
	assert.NoError(t, j.CreatePaymentTransaction(ctx, &PaymentTransaction{}))
	assert.NoError(t, j.UpdatePaymentStatus(ctx, "cs_1", "open", "unpaid"))

	_, err := j.GetPaymentTransaction(ctx, "cs_1")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}
