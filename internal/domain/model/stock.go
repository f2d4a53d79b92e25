package model

import "time"

// 商品ごとの在庫数。idは商品IDと同じ。
type Stock struct {
	ProductID int64     `gorm:"primaryKey;column:id" json:"id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"-"`
}

func (Stock) TableName() string {
	return "stock"
}
