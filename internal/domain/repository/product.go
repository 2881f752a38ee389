package repository

import (
	"context"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// ProductRepository reads catalog entries.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
}
