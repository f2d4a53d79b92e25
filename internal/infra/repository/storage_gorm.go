package repository

import (
	"context"

	"rocketcart/internal/domain/model"
	repo "rocketcart/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// storage_entries テーブルをkey-valueストレージとして使う
type StorageGormRepository struct {
	db *gorm.DB
}

func NewStorageGormRepository(db *gorm.DB) *StorageGormRepository {
	return &StorageGormRepository{db: db}
}

func (r *StorageGormRepository) Get(ctx context.Context, key string) (string, error) {
	var entry model.StorageEntry
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&entry).Error

	if isNotFound(err) {
		return "", repo.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (r *StorageGormRepository) Set(ctx context.Context, key string, value string) error {
	entry := model.StorageEntry{Key: key, Value: value}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}
