package model

import "github.com/shopspring/decimal"

// カートの明細。JSONでは商品のフィールドと amount がフラットに並ぶ。
type CartItem struct {
	Product
	Amount int64 `json:"amount"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Amount))
}
