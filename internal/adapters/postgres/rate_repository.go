package postgres

import (
	"context"
	"errors"

	"cbrates/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RateRepository is the durable rate cache. Reads degrade to "not found" and
// writes degrade to a no-op when the backend is unreachable: callers stay
// correct by re-fetching from the feed, they only lose the caching benefit.
type RateRepository struct {
	pool         *pgxpool.Pool
	lookbackDays int
}

func NewRateRepository(pool *pgxpool.Pool, lookbackDays int) *RateRepository {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	return &RateRepository{pool: pool, lookbackDays: lookbackDays}
}

func (r *RateRepository) Has(ctx context.Context, currency domain.Currency, date domain.BusinessDate) bool {
	const q = `select exists(select 1 from cbr_rates where currency = $1 and rate_date = $2);`

	var exists bool
	if err := r.pool.QueryRow(ctx, q, currency.String(), date.Time()).Scan(&exists); err != nil {
		logrus.WithError(err).Warnf("rate store degraded, has(%s, %s) reports false", currency, date)
		return false
	}
	return exists
}

// Get returns the value for the exact key, or the nearest value within the
// lookback window when the exact date is absent.
func (r *RateRepository) Get(ctx context.Context, currency domain.Currency, date domain.BusinessDate) (decimal.Decimal, error) {
	const exactQ = `select value from cbr_rates where currency = $1 and rate_date = $2;`

	var value decimal.Decimal
	err := r.pool.QueryRow(ctx, exactQ, currency.String(), date.Time()).Scan(&value)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logrus.WithError(err).Warnf("rate store degraded, get(%s, %s) reports not found", currency, date)
		return decimal.Decimal{}, domain.ErrRateNotFound
	}

	const fallbackQ = `
		select value from cbr_rates
		where currency = $1 and rate_date < $2 and rate_date >= $3
		order by rate_date desc
		limit 1;
	`

	err = r.pool.QueryRow(ctx, fallbackQ, currency.String(), date.Time(), date.AddDays(-r.lookbackDays)).Scan(&value)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			logrus.WithError(err).Warnf("rate store degraded, fallback get(%s, %s) reports not found", currency, date)
		}
		return decimal.Decimal{}, domain.ErrRateNotFound
	}
	return value, nil
}

// Set writes an entry once. A published official rate is immutable truth, so
// a conflicting value is logged as a data anomaly and never applied.
func (r *RateRepository) Set(ctx context.Context, currency domain.Currency, date domain.BusinessDate, value decimal.Decimal) {
	const q = `
		insert into cbr_rates (currency, rate_date, value)
		values ($1, $2, $3)
		on conflict (currency, rate_date) do nothing;
	`

	tag, err := r.pool.Exec(ctx, q, currency.String(), date.Time(), value)
	if err != nil {
		logrus.WithError(err).Warnf("rate store degraded, set(%s, %s) skipped", currency, date)
		return
	}
	if tag.RowsAffected() > 0 {
		return
	}

	// Idempotent overwrite with the same value is a no-op; a different value
	// for an already-written key is an upstream anomaly worth flagging.
	const existingQ = `select value from cbr_rates where currency = $1 and rate_date = $2;`

	var existing decimal.Decimal
	if err = r.pool.QueryRow(ctx, existingQ, currency.String(), date.Time()).Scan(&existing); err != nil {
		logrus.WithError(err).Warnf("rate store degraded, could not verify set(%s, %s)", currency, date)
		return
	}
	if !existing.Equal(value) {
		logrus.Errorf("rate anomaly for %s on %s: stored %s, feed now reports %s; keeping stored value",
			currency, date, existing, value)
	}
}
