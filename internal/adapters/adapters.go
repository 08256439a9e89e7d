package adapters

import (
	"context"
	"time"

	"cbrates/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateFeed fetches the official daily rates for a business date. The returned
// map holds per-unit values (the feed's nominal multiplier already divided
// out). Failures are domain.ErrFeedUnavailable or domain.ErrFeedMalformed.
type RateFeed interface {
	Fetch(ctx context.Context, date domain.BusinessDate) (map[domain.Currency]decimal.Decimal, error)
}

// RateStore is the durable (currency, business date) -> value cache.
// Get falls back to a bounded lookback window on exact miss and returns
// domain.ErrRateNotFound when the window is empty too. Has and Get degrade to
// "not found" on backend failure; Set degrades to a no-op.
type RateStore interface {
	Has(ctx context.Context, currency domain.Currency, date domain.BusinessDate) bool
	Get(ctx context.Context, currency domain.Currency, date domain.BusinessDate) (decimal.Decimal, error)
	Set(ctx context.Context, currency domain.Currency, date domain.BusinessDate, value decimal.Decimal)
}

// SubscriberRegistry keeps per-currency one-shot notification subscriptions.
// Every operation degrades to a safe empty/false result on backend failure.
type SubscriberRegistry interface {
	Subscribe(ctx context.Context, currency domain.Currency, userID int64) bool
	Unsubscribe(ctx context.Context, currency domain.Currency, userID int64) bool
	List(ctx context.Context, currency domain.Currency) []int64
	IsSubscribed(ctx context.Context, currency domain.Currency, userID int64) bool
}

// PendingStore owns deferred client calculations. Save propagates
// domain.ErrStoreUnavailable: losing a queued calculation silently would
// break a user-visible promise.
type PendingStore interface {
	Save(ctx context.Context, calc domain.PendingCalculation) (uuid.UUID, error)
	ListAll(ctx context.Context) ([]domain.PendingCalculation, error)
	Remove(ctx context.Context, id uuid.UUID) bool
}

// RateCache is the in-process read cache in front of RateStore.
type RateCache interface {
	Get(key domain.RateKey) (decimal.Decimal, bool)
	Set(key domain.RateKey, value decimal.Decimal)
}

// Notifier is the external delivery contract. Failures are transient and must
// never crash the monitor.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Calculator turns a cached rate plus the queued amount and commission into
// the delivered result text. The arithmetic lives outside the engine core.
type Calculator interface {
	Format(calc domain.PendingCalculation, rate decimal.Decimal, at time.Time) string
}
