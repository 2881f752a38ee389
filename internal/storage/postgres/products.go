package postgres

import (
	"context"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	const query = `SELECT id, name, price, active FROM products WHERE id=$1`
	var p model.Product
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Active)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}
