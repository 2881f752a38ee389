package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
)

const orderColumns = `id, account_id, product_id, amount, session_ref, status, card_id, created_at, paid_at, expired_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.AccountID, &o.ProductID, &o.Amount, &o.SessionRef, &o.Status, &o.CardID,
		&o.CreatedAt, &o.PaidAt, &o.ExpiredAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) Create(ctx context.Context, order model.NewOrder, at time.Time) (*model.Order, error) {
	const query = `INSERT INTO orders (id, account_id, product_id, amount, session_ref, status, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
                   RETURNING ` + orderColumns
	created, err := scanOrder(r.storage.pool.QueryRow(ctx, query,
		order.ID, order.AccountID, order.ProductID, order.Amount, order.SessionRef, model.OrderStatusPending, at))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return order, nil
}

func (r *orderRepository) GetBySessionRef(ctx context.Context, ref string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE session_ref=$1 ORDER BY created_at DESC LIMIT 1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, ref))
	if err != nil {
		return nil, notFound(err)
	}
	return order, nil
}

func (r *orderRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE account_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *orderRepository) ListPendingSince(ctx context.Context, accountID string, since time.Time) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders
                   WHERE account_id=$1 AND status=$2 AND created_at >= $3
                   ORDER BY created_at`
	rows, err := r.storage.pool.Query(ctx, query, accountID, model.OrderStatusPending, since)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *orderRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders
                   WHERE status=$1 AND created_at < $2
                   ORDER BY created_at
                   LIMIT $3`
	rows, err := r.storage.pool.Query(ctx, query, model.OrderStatusPending, before, limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *orderRepository) Transition(ctx context.Context, id string, from, to model.OrderStatus, fields model.TransitionFields) (*model.Order, error) {
	const query = `UPDATE orders SET status=$3,
                       card_id=COALESCE($4, card_id),
                       paid_at=COALESCE($5, paid_at),
                       expired_at=COALESCE($6, expired_at),
                       updated_at=$7
                   WHERE id=$1 AND status=$2
                   RETURNING ` + orderColumns
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id, from, to, fields.CardID, fields.PaidAt, fields.ExpiredAt, fields.At))
	if err == nil {
		return order, nil
	}
	// Another order already holds the card.
	if isUniqueViolation(err) {
		return nil, domainErrors.ErrConflictingState
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var current model.OrderStatus
	err = r.storage.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&current)
	if err != nil {
		return nil, notFound(err)
	}
	return nil, domainErrors.ErrConflictingState
}

func (r *orderRepository) ClearExpiredCards(ctx context.Context, at time.Time) (int64, error) {
	const query = `UPDATE orders SET card_id=NULL, updated_at=$2 WHERE status=$1 AND card_id IS NOT NULL`
	tag, err := r.storage.pool.Exec(ctx, query, model.OrderStatusExpired, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepository) RepointCard(ctx context.Context, id, cardID string, at time.Time) (bool, error) {
	const query = `UPDATE orders SET card_id=$2, updated_at=$4
                   WHERE id=$1 AND status=$3 AND card_id IS DISTINCT FROM $2`
	tag, err := r.storage.pool.Exec(ctx, query, id, cardID, model.OrderStatusDelivered, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	rows, err := r.storage.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[model.OrderStatus]int64)
	for rows.Next() {
		var (
			status model.OrderStatus
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
