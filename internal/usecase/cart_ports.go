package usecase

import (
	"context"

	"rocketcart/internal/domain/model"
)

// 在庫の取得（毎回取りに行く、キャッシュしない）
type StockFetcher interface {
	FetchStock(ctx context.Context, productID int64) (model.Stock, error)
}

// カタログから商品を取得
type ProductFetcher interface {
	FetchProduct(ctx context.Context, productID int64) (model.Product, error)
}

// ユーザーに見えるエラー通知。送りっぱなし。
type Notifier interface {
	NotifyError(message string)
}
