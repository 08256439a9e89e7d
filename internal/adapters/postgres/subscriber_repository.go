package postgres

import (
	"context"

	"cbrates/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// SubscriberRepository keeps the per-currency one-shot notification sets.
// Subscriptions are a convenience feature, so every operation swallows
// backend errors into a safe empty/false result and logs them.
type SubscriberRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriberRepository(pool *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{pool: pool}
}

// Subscribe returns true when the membership was created, false when it
// already existed or the backend failed.
func (r *SubscriberRepository) Subscribe(ctx context.Context, currency domain.Currency, userID int64) bool {
	const q = `
		insert into cbr_subscribers (currency, user_id)
		values ($1, $2)
		on conflict (currency, user_id) do nothing;
	`

	tag, err := r.pool.Exec(ctx, q, currency.String(), userID)
	if err != nil {
		logrus.WithError(err).Warnf("subscriber registry degraded, subscribe(%s, %d) skipped", currency, userID)
		return false
	}
	return tag.RowsAffected() > 0
}

func (r *SubscriberRepository) Unsubscribe(ctx context.Context, currency domain.Currency, userID int64) bool {
	const q = `delete from cbr_subscribers where currency = $1 and user_id = $2;`

	tag, err := r.pool.Exec(ctx, q, currency.String(), userID)
	if err != nil {
		logrus.WithError(err).Warnf("subscriber registry degraded, unsubscribe(%s, %d) skipped", currency, userID)
		return false
	}
	return tag.RowsAffected() > 0
}

func (r *SubscriberRepository) List(ctx context.Context, currency domain.Currency) []int64 {
	const q = `select user_id from cbr_subscribers where currency = $1 order by user_id;`

	rows, err := r.pool.Query(ctx, q, currency.String())
	if err != nil {
		logrus.WithError(err).Warnf("subscriber registry degraded, list(%s) reports empty", currency)
		return nil
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			logrus.WithError(err).Warnf("subscriber registry degraded, list(%s) reports empty", currency)
			return nil
		}
		users = append(users, id)
	}
	if err = rows.Err(); err != nil {
		logrus.WithError(err).Warnf("subscriber registry degraded, list(%s) reports empty", currency)
		return nil
	}
	return users
}

func (r *SubscriberRepository) IsSubscribed(ctx context.Context, currency domain.Currency, userID int64) bool {
	const q = `select exists(select 1 from cbr_subscribers where currency = $1 and user_id = $2);`

	var subscribed bool
	if err := r.pool.QueryRow(ctx, q, currency.String(), userID).Scan(&subscribed); err != nil {
		logrus.WithError(err).Warnf("subscriber registry degraded, isSubscribed(%s, %d) reports false", currency, userID)
		return false
	}
	return subscribed
}
