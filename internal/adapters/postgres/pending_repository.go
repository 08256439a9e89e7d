package postgres

import (
	"context"
	"fmt"
	"time"

	"cbrates/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// PendingRepository owns deferred client calculations. Unlike the rate and
// subscriber repositories, Save propagates backend failures: silently losing
// a queued calculation would break a promise already made to the user.
type PendingRepository struct {
	pool *pgxpool.Pool
}

func NewPendingRepository(pool *pgxpool.Pool) *PendingRepository {
	return &PendingRepository{pool: pool}
}

func (r *PendingRepository) Save(ctx context.Context, calc domain.PendingCalculation) (uuid.UUID, error) {
	const q = `
		insert into pending_calculations (id, user_id, target_date, currency, amount, commission_pct)
		values ($1, $2, $3, $4, $5, $6);
	`

	id := calc.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := r.pool.Exec(ctx, q,
		id, calc.UserID, calc.TargetDate.Time(), calc.Currency.String(), calc.Amount, calc.CommissionPct)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: failed to save pending calculation for user %d: %v",
			domain.ErrStoreUnavailable, calc.UserID, err)
	}
	return id, nil
}

// ListAll returns every pending entry regardless of target date. Volumes are
// small, so the monitor filters in memory instead of a secondary index.
func (r *PendingRepository) ListAll(ctx context.Context) ([]domain.PendingCalculation, error) {
	const q = `
		select id, user_id, target_date, currency, amount, commission_pct, created_at
		from pending_calculations
		order by created_at;
	`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending calculations: %w", err)
	}
	defer rows.Close()

	pending := make([]domain.PendingCalculation, 0, 16)
	for rows.Next() {
		var (
			calc       domain.PendingCalculation
			targetDate time.Time
			currency   string
		)
		if err = rows.Scan(&calc.ID, &calc.UserID, &targetDate, &currency, &calc.Amount, &calc.CommissionPct, &calc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending calculation: %w", err)
		}
		calc.TargetDate = domain.ResolveBusinessDate(targetDate)
		calc.Currency = domain.Currency(currency)
		pending = append(pending, calc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending calculations: %w", err)
	}
	return pending, nil
}

// Remove reports true only when an entry existed and was deleted. A missing
// entry is not an error: concurrent and duplicate removals are tolerated.
func (r *PendingRepository) Remove(ctx context.Context, id uuid.UUID) bool {
	const q = `delete from pending_calculations where id = $1;`

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		logrus.WithError(err).Warnf("pending store degraded, remove(%s) skipped", id)
		return false
	}
	return tag.RowsAffected() > 0
}
