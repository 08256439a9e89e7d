package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingCalculation is a deferred client calculation waiting for a rate that
// is not published yet. It lives until the target date's rate is cached and
// the result was delivered, or until the user cancels it.
type PendingCalculation struct {
	ID            uuid.UUID
	UserID        int64
	TargetDate    BusinessDate
	Currency      Currency
	Amount        decimal.Decimal
	CommissionPct decimal.Decimal
	CreatedAt     time.Time
}

// Subscriber is a one-shot "notify me when the next rate publishes"
// registration. Membership is removed after a successful notification.
type Subscriber struct {
	Currency Currency
	UserID   int64
}
