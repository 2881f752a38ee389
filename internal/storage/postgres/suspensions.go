package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

const suspensionColumns = `account_id, reason, suspension_count, suspended_until, updated_at`

func scanSuspension(row pgx.Row) (*model.Suspension, error) {
	var s model.Suspension
	if err := row.Scan(&s.AccountID, &s.Reason, &s.Count, &s.SuspendedUntil, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *suspensionRepository) Get(ctx context.Context, accountID string) (*model.Suspension, error) {
	const query = `SELECT ` + suspensionColumns + ` FROM suspensions WHERE account_id=$1`
	s, err := scanSuspension(r.storage.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *suspensionRepository) Upsert(ctx context.Context, accountID, reason string, until, at time.Time) (*model.Suspension, error) {
	const query = `INSERT INTO suspensions (account_id, reason, suspension_count, suspended_until, updated_at)
                   VALUES ($1, $2, 1, $3, $4)
                   ON CONFLICT (account_id) DO UPDATE
                   SET reason = EXCLUDED.reason,
                       suspension_count = suspensions.suspension_count + 1,
                       suspended_until = EXCLUDED.suspended_until,
                       updated_at = EXCLUDED.updated_at
                   RETURNING ` + suspensionColumns
	return scanSuspension(r.storage.pool.QueryRow(ctx, query, accountID, reason, until, at))
}

func (r *suspensionRepository) DeleteExpired(ctx context.Context, accountID string, now time.Time) (bool, error) {
	tag, err := r.storage.pool.Exec(ctx, `DELETE FROM suspensions WHERE account_id=$1 AND suspended_until <= $2`, accountID, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *suspensionRepository) Delete(ctx context.Context, accountID string) (bool, error) {
	tag, err := r.storage.pool.Exec(ctx, `DELETE FROM suspensions WHERE account_id=$1`, accountID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
