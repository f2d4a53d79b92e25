package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カタログの商品。カートからは中身を見ない。
type Product struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Image     string          `gorm:"type:text" json:"image"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"-"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"-"`
}
