package rate

import (
	"context"
	"time"

	"cbrates/internal/adapters"
	"cbrates/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Waker nudges the background monitor to poll immediately instead of waiting
// out its interval.
type Waker interface {
	Wake()
}

// Service is the interactive request path: cache, then durable store with
// its fallback window, then a live feed fetch that warms both.
type Service struct {
	cache    adapters.RateCache
	store    adapters.RateStore
	feed     adapters.RateFeed
	pending  adapters.PendingStore
	registry adapters.SubscriberRegistry
	waker    Waker
}

func NewService(
	cache adapters.RateCache,
	store adapters.RateStore,
	feed adapters.RateFeed,
	pending adapters.PendingStore,
	registry adapters.SubscriberRegistry,
	waker Waker,
) *Service {
	return &Service{cache: cache, store: store, feed: feed, pending: pending, registry: registry, waker: waker}
}

// GetRate resolves the requested date to a business date and returns its
// per-unit rate. domain.ErrRateNotFound means "not published yet": the caller
// is expected to offer queueing a calculation instead.
func (s *Service) GetRate(ctx context.Context, currency domain.Currency, date time.Time) (decimal.Decimal, domain.BusinessDate, error) {
	busDate := domain.ResolveBusinessDate(date)
	key := domain.RateKey{Currency: currency, Date: busDate}

	if value, ok := s.cache.Get(key); ok {
		return value, busDate, nil
	}

	if value, err := s.store.Get(ctx, currency, busDate); err == nil {
		s.cache.Set(key, value)
		return value, busDate, nil
	}

	// Cache and store miss: ask the feed directly. Both failure kinds mean
	// "not available yet" here, not a fatal condition.
	rates, err := s.feed.Fetch(ctx, busDate)
	if err != nil {
		logrus.WithError(err).Infof("Live fetch for %s on %s failed", currency, busDate)
		return decimal.Decimal{}, busDate, domain.ErrRateNotFound
	}

	// Warm the store with the whole document while we have it.
	for cur, value := range rates {
		s.store.Set(ctx, cur, busDate, value)
	}

	value, ok := rates[currency]
	if !ok {
		return decimal.Decimal{}, busDate, domain.ErrRateNotFound
	}
	s.cache.Set(key, value)
	return value, busDate, nil
}

// QueueCalculation persists a deferred calculation for a not-yet-published
// rate and wakes the monitor. Save failures propagate: the user was promised
// a result.
func (s *Service) QueueCalculation(ctx context.Context, userID int64, currency domain.Currency, date time.Time, amount, commissionPct decimal.Decimal) (uuid.UUID, domain.BusinessDate, error) {
	busDate := domain.ResolveBusinessDate(date)
	id, err := s.pending.Save(ctx, domain.PendingCalculation{
		UserID:        userID,
		TargetDate:    busDate,
		Currency:      currency,
		Amount:        amount,
		CommissionPct: commissionPct,
	})
	if err != nil {
		return uuid.Nil, busDate, err
	}
	s.waker.Wake()
	return id, busDate, nil
}

func (s *Service) CancelCalculation(ctx context.Context, id uuid.UUID) bool {
	return s.pending.Remove(ctx, id)
}

func (s *Service) Subscribe(ctx context.Context, currency domain.Currency, userID int64) bool {
	created := s.registry.Subscribe(ctx, currency, userID)
	if created {
		s.waker.Wake()
	}
	return created
}

func (s *Service) Unsubscribe(ctx context.Context, currency domain.Currency, userID int64) bool {
	return s.registry.Unsubscribe(ctx, currency, userID)
}
