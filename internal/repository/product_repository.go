package repository

import (
	"context"
	"errors"

	"rocketcart/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// IDが既にあれば上書き
	Upsert(ctx context.Context, p model.Product) error
}
