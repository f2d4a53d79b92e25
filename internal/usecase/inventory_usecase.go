package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"rocketcart/internal/domain/model"
	repo "rocketcart/internal/repository"
)

// InventoryUsecase はカートが参照する商品と在庫を返す。管理者は在庫を変更できる。
type InventoryUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	tx            repo.TransactionManager
}

// DI
func NewInventoryUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	tx repo.TransactionManager,
) *InventoryUsecase {
	return &InventoryUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		tx:            tx,
	}
}

func (u *InventoryUsecase) ListProducts(ctx context.Context) ([]model.Product, error) {
	items, err := u.productRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if items == nil {
		items = []model.Product{}
	}
	return items, nil
}

func (u *InventoryUsecase) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *InventoryUsecase) GetStock(ctx context.Context, productID int64) (model.Stock, error) {
	if productID <= 0 {
		return model.Stock{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	s, err := u.inventoryRepo.FindStock(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Stock{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Stock{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}

// AdminUpdateStock は在庫を amount に設定し、差分を履歴に残す。
// actor はJWTのsub。
func (u *InventoryUsecase) AdminUpdateStock(ctx context.Context, actor string, productID int64, amount int64, reason string) (model.Stock, error) {
	if strings.TrimSpace(actor) == "" {
		return model.Stock{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Stock{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if amount < 0 {
		return model.Stock{}, NewHTTPError(http.StatusBadRequest, "amount must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.Stock{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//商品が無ければ404
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			return err
		}

		//変更前の在庫。行が無ければ0として扱う
		var before int64
		cur, err := r.Inventory().FindStock(ctx, productID)
		switch {
		case err == nil:
			before = cur.Amount
		case errors.Is(err, repo.ErrNotFound):
		default:
			return err
		}

		if err := r.Inventory().SetStock(ctx, productID, amount); err != nil {
			return err
		}

		//履歴を作成（差分）
		return r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID: productID,
			Actor:     strings.TrimSpace(actor),
			Delta:     amount - before,
			Reason:    reason,
			CreatedAt: time.Now(),
		})
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Stock{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Stock{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return model.Stock{ProductID: productID, Amount: amount}, nil
}

// json-server の db.json と同じ形
type SeedData struct {
	Products []model.Product `json:"products"`
	Stock    []model.Stock   `json:"stock"`
}

// Seed は商品と在庫をまとめて登録する（あれば上書き）。
func (u *InventoryUsecase) Seed(ctx context.Context, data SeedData) error {
	for _, p := range data.Products {
		if p.ID <= 0 {
			return NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
	}
	for _, s := range data.Stock {
		if s.ProductID <= 0 {
			return NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
		if s.Amount < 0 {
			return NewHTTPError(http.StatusBadRequest, "amount must be >= 0")
		}
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for _, p := range data.Products {
			if err := r.Products().Upsert(ctx, p); err != nil {
				return err
			}
		}
		for _, s := range data.Stock {
			if err := r.Inventory().SetStock(ctx, s.ProductID, s.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
