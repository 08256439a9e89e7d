package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cbrates/internal/adapters"
	"cbrates/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultNotifyWorkers = 5
const perNotifyTimeout = 10 * time.Second

// Poller runs one Idle -> Polling -> Found -> Notifying -> Idle cycle per
// invocation. It is the only writer of fresh rate entries, but RateStore.Set
// is idempotent, so a concurrent interactive fetch of the same date is safe.
type Poller struct {
	feed       adapters.RateFeed
	store      adapters.RateStore
	pending    adapters.PendingStore
	registry   adapters.SubscriberRegistry
	notifier   adapters.Notifier
	calculator adapters.Calculator
	workers    int
	now        func() time.Time
}

func NewPoller(
	feed adapters.RateFeed,
	store adapters.RateStore,
	pending adapters.PendingStore,
	registry adapters.SubscriberRegistry,
	notifier adapters.Notifier,
	calculator adapters.Calculator,
	workers int,
) *Poller {
	if workers <= 0 {
		workers = defaultNotifyWorkers
	}
	return &Poller{
		feed:       feed,
		store:      store,
		pending:    pending,
		registry:   registry,
		notifier:   notifier,
		calculator: calculator,
		workers:    workers,
		now:        time.Now,
	}
}

// PollOnce polls the next business day's rates and, when they are published,
// caches them and drains pending calculations and subscribers for that date.
func (p *Poller) PollOnce(ctx context.Context, execID string) error {
	// NextBusinessDate collapses weekend targets onto Monday, keeping the
	// poll target inside the store's weekday-only key space.
	target := domain.NextBusinessDate(p.now())

	// STEP 1: find out whether anyone is waiting at all.
	pending, err := p.pending.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending calculations: %w", err)
	}
	pendingForTarget := filterByDate(pending, target)

	// Calculations queued for a date whose rate is already stored (queued
	// after publication, or left over from a failed delivery) need no feed
	// poll at all.
	settled := p.drainSettled(ctx, pending, target, execID)

	interested := p.interestedCurrencies(ctx, target, pendingForTarget)
	if len(interested) == 0 {
		if settled == 0 {
			logrus.Infof("No subscribers or pending calculations for %s, staying idle; execID: %s", target, execID)
		}
		return nil
	}

	// STEP 2 (Polling): one feed request covers every currency. Absence of
	// the rate before its publication time is expected, not an error.
	rates, err := p.feed.Fetch(ctx, target)
	if err != nil {
		if errors.Is(err, domain.ErrFeedMalformed) {
			logrus.Errorf("CBR feed malformed while polling %s, possible upstream format change; execID: %s: %v", target, execID, err)
		} else {
			logrus.Infof("Rates for %s not available yet, will retry next tick; execID: %s", target, execID)
		}
		return nil
	}

	// STEP 3 (Found): warm the cache with every returned currency, even ones
	// nobody is waiting for.
	for currency, value := range rates {
		p.store.Set(ctx, currency, target, value)
	}
	logrus.Infof("Cached %d rates for %s; execID: %s", len(rates), target, execID)

	// STEP 4 (Notifying): deliver pending results and one-shot subscriber
	// notifications with bounded fan-out. A failed delivery is logged and
	// kept for the next cycle, never silently dropped.
	deliveries := p.pendingDeliveries(pendingForTarget, rates)
	deliveries = append(deliveries, p.subscriberDeliveries(ctx, target, rates)...)
	delivered := p.dispatch(ctx, deliveries)

	logrus.Infof("Delivered %d/%d notifications for %s; execID: %s", delivered, len(deliveries), target, execID)
	return nil
}

func filterByDate(pending []domain.PendingCalculation, target domain.BusinessDate) []domain.PendingCalculation {
	var matched []domain.PendingCalculation
	for _, calc := range pending {
		if calc.TargetDate.Equal(target) {
			matched = append(matched, calc)
		}
	}
	return matched
}

// drainSettled delivers pending calculations for dates other than the poll
// target whose rate is already in the store. Has checks the exact key, so the
// following Get never serves a fallback-window substitute.
func (p *Poller) drainSettled(ctx context.Context, pending []domain.PendingCalculation, target domain.BusinessDate, execID string) int {
	var deliveries []delivery
	for _, calc := range pending {
		if calc.TargetDate.Equal(target) {
			continue
		}
		if !p.store.Has(ctx, calc.Currency, calc.TargetDate) {
			continue
		}
		rate, err := p.store.Get(ctx, calc.Currency, calc.TargetDate)
		if err != nil {
			continue
		}
		deliveries = append(deliveries, delivery{
			userID: calc.UserID,
			text:   p.calculator.Format(calc, rate, p.now()),
			confirm: func(ctx context.Context) {
				if !p.pending.Remove(ctx, calc.ID) {
					logrus.Warnf("Pending calculation %s already removed", calc.ID)
				}
			},
		})
	}
	if len(deliveries) == 0 {
		return 0
	}

	delivered := p.dispatch(ctx, deliveries)
	logrus.Infof("Delivered %d/%d calculations with already-stored rates; execID: %s", delivered, len(deliveries), execID)
	return delivered
}

// interestedCurrencies collects every currency with active subscribers or a
// pending calculation targeting the poll date.
func (p *Poller) interestedCurrencies(ctx context.Context, target domain.BusinessDate, pendingForTarget []domain.PendingCalculation) map[domain.Currency]struct{} {
	interested := make(map[domain.Currency]struct{})
	for _, calc := range pendingForTarget {
		interested[calc.Currency] = struct{}{}
	}
	for _, currency := range domain.SupportedCurrencies {
		if _, ok := interested[currency]; ok {
			continue
		}
		if len(p.registry.List(ctx, currency)) > 0 {
			interested[currency] = struct{}{}
		}
	}
	return interested
}

// delivery is one independent external notification plus the confirmation to
// run only after the send succeeded.
type delivery struct {
	userID  int64
	text    string
	confirm func(ctx context.Context)
}

func (p *Poller) pendingDeliveries(pendingForTarget []domain.PendingCalculation, rates map[domain.Currency]decimal.Decimal) []delivery {
	deliveries := make([]delivery, 0, len(pendingForTarget))
	for _, calc := range pendingForTarget {
		rate, ok := rates[calc.Currency]
		if !ok {
			logrus.Warnf("No rate for %s in feed response, keeping pending calculation %s", calc.Currency, calc.ID)
			continue
		}
		deliveries = append(deliveries, delivery{
			userID: calc.UserID,
			text:   p.calculator.Format(calc, rate, p.now()),
			confirm: func(ctx context.Context) {
				if !p.pending.Remove(ctx, calc.ID) {
					logrus.Warnf("Pending calculation %s already removed", calc.ID)
				}
			},
		})
	}
	return deliveries
}

func (p *Poller) subscriberDeliveries(ctx context.Context, target domain.BusinessDate, rates map[domain.Currency]decimal.Decimal) []delivery {
	var deliveries []delivery
	for currency, rate := range rates {
		text := fmt.Sprintf("Rate for %s on %s is published: %s", currency, target, rate.StringFixed(4))
		for _, userID := range p.registry.List(ctx, currency) {
			deliveries = append(deliveries, delivery{
				userID: userID,
				text:   text,
				confirm: func(ctx context.Context) {
					// one-shot semantics
					p.registry.Unsubscribe(ctx, currency, userID)
				},
			})
		}
	}
	return deliveries
}

// dispatch fans deliveries out over a bounded worker pool. Each send is an
// independent external call, so one failure never aborts the batch.
func (p *Poller) dispatch(ctx context.Context, deliveries []delivery) int {
	if len(deliveries) == 0 {
		return 0
	}

	workQueue := make(chan delivery, len(deliveries))
	for _, d := range deliveries {
		workQueue <- d
	}
	close(workQueue)

	var mu sync.Mutex
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-workQueue:
					if !ok {
						return
					}
					if p.deliver(ctx, d) {
						mu.Lock()
						count++
						mu.Unlock()
					}
				}
			}
		}()
	}
	wg.Wait()
	return count
}

func (p *Poller) deliver(ctx context.Context, d delivery) bool {
	sendCtx, cancel := context.WithTimeout(ctx, perNotifyTimeout)
	defer cancel()

	if err := p.notifier.Send(sendCtx, d.userID, d.text); err != nil {
		logrus.Warnf("Notification to user %d failed, will retry next cycle: %v", d.userID, err)
		return false
	}
	// Confirmation only after a successful send: an undelivered entry must
	// stay queued for the next cycle.
	d.confirm(ctx)
	return true
}
