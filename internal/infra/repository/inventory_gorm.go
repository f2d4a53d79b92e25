package repository

import (
	"context"
	"errors"

	"rocketcart/internal/domain/model"
	repo "rocketcart/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫の現在値を取得
func (r *InventoryGormRepository) FindStock(ctx context.Context, productID int64) (model.Stock, error) {
	var s model.Stock
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&s).Error

	if isNotFound(err) {
		return model.Stock{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Stock{}, err
	}
	return s, nil
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, amount int64) error {
	s := model.Stock{ProductID: productID, Amount: amount}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(&s).Error
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
