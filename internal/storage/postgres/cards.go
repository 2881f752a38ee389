package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
)

const cardColumns = `id, product_id, code, used, order_id, used_at, created_at`

func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	if err := row.Scan(&c.ID, &c.ProductID, &c.Code, &c.Used, &c.OrderID, &c.UsedAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCards(rows pgx.Rows) ([]model.Card, error) {
	defer rows.Close()

	var result []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Claim picks and binds an unused card in one statement. Rows locked by a
// concurrent claim are skipped instead of waited on.
func (r *cardRepository) Claim(ctx context.Context, productID, orderID string, at time.Time) (*model.Card, error) {
	const query = `UPDATE cards SET used=TRUE, order_id=$2, used_at=$3
                   WHERE id = (
                       SELECT id FROM cards
                       WHERE product_id=$1 AND used=FALSE
                       ORDER BY created_at
                       LIMIT 1
                       FOR UPDATE SKIP LOCKED
                   ) AND used=FALSE
                   RETURNING ` + cardColumns
	card, err := scanCard(r.storage.pool.QueryRow(ctx, query, productID, orderID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOutOfStock
		}
		return nil, err
	}
	return card, nil
}

func (r *cardRepository) Release(ctx context.Context, cardID string, orderID *string) (bool, error) {
	const query = `UPDATE cards SET used=FALSE, order_id=NULL, used_at=NULL
                   WHERE id=$1 AND used=TRUE AND order_id IS NOT DISTINCT FROM $2::text`
	tag, err := r.storage.pool.Exec(ctx, query, cardID, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *cardRepository) GetByID(ctx context.Context, id string) (*model.Card, error) {
	const query = `SELECT ` + cardColumns + ` FROM cards WHERE id=$1`
	card, err := scanCard(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return card, nil
}

func (r *cardRepository) ListByOrder(ctx context.Context, orderID string) ([]model.Card, error) {
	const query = `SELECT ` + cardColumns + ` FROM cards WHERE order_id=$1 ORDER BY created_at, id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	return collectCards(rows)
}

func (r *cardRepository) CountUnused(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := r.storage.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE product_id=$1 AND used=FALSE`, productID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *cardRepository) ListOrphaned(ctx context.Context) ([]model.Card, error) {
	const query = `SELECT ` + cardColumns + ` FROM cards WHERE used=TRUE AND order_id IS NULL ORDER BY created_at`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectCards(rows)
}

func (r *cardRepository) ListBoundToExpired(ctx context.Context) ([]model.Card, error) {
	const query = `SELECT c.id, c.product_id, c.code, c.used, c.order_id, c.used_at, c.created_at
                   FROM cards c JOIN orders o ON o.id = c.order_id
                   WHERE c.used=TRUE AND o.status=$1
                   ORDER BY c.created_at`
	rows, err := r.storage.pool.Query(ctx, query, model.OrderStatusExpired)
	if err != nil {
		return nil, err
	}
	return collectCards(rows)
}

func (r *cardRepository) ListMultiplyBound(ctx context.Context) ([]model.MultiBound, error) {
	const query = `SELECT c.id, c.product_id, c.code, c.used, c.order_id, c.used_at, c.created_at, o.status
                   FROM cards c JOIN orders o ON o.id = c.order_id
                   WHERE c.used=TRUE AND c.order_id IN (
                       SELECT order_id FROM cards
                       WHERE used=TRUE AND order_id IS NOT NULL
                       GROUP BY order_id HAVING COUNT(*) > 1
                   )
                   ORDER BY c.order_id, c.created_at, c.id`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.MultiBound
	for rows.Next() {
		var (
			c      model.Card
			status model.OrderStatus
		)
		if err := rows.Scan(&c.ID, &c.ProductID, &c.Code, &c.Used, &c.OrderID, &c.UsedAt, &c.CreatedAt, &status); err != nil {
			return nil, err
		}
		if c.OrderID == nil {
			continue
		}
		if n := len(result); n == 0 || result[n-1].OrderID != *c.OrderID {
			result = append(result, model.MultiBound{OrderID: *c.OrderID, Status: status})
		}
		last := &result[len(result)-1]
		last.Cards = append(last.Cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *cardRepository) Counts(ctx context.Context) (int64, int64, error) {
	var total, used int64
	err := r.storage.pool.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE used) FROM cards`).Scan(&total, &used)
	if err != nil {
		return 0, 0, err
	}
	return total, used, nil
}
