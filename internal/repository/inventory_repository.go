package repository

import (
	"context"

	"rocketcart/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫の現在値を取得
	FindStock(ctx context.Context, productID int64) (model.Stock, error)

	// 在庫の現在値を設定（行が無ければ作る）
	SetStock(ctx context.Context, productID int64, amount int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
