package payment

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/models"
)

type StatusJournal interface {
	UpdatePaymentStatus(ctx context.Context, sessionID, status, paymentStatus string) error
}

// RecordingChecker stores every status it sees. Journal failures are logged
// and do not affect polling.
type RecordingChecker struct {
	next    StatusChecker
	journal StatusJournal
	logger  *logrus.Logger
}

func NewRecordingChecker(next StatusChecker, journal StatusJournal, logger *logrus.Logger) *RecordingChecker {
	return &RecordingChecker{
		next:    next,
		journal: journal,
		logger:  logger,
	}
}

func (r *RecordingChecker) CheckoutStatus(ctx context.Context, sessionID string) (models.CheckoutStatus, error) {
	status, err := r.next.CheckoutStatus(ctx, sessionID)
	if err != nil {
		return status, err
	}

	if jerr := r.journal.UpdatePaymentStatus(ctx, sessionID, status.Status, status.PaymentStatus); jerr != nil {
		r.logger.WithError(jerr).WithField("checkout_session_id", sessionID).Warn("Failed to record payment status")
	}
	return status, nil
}
