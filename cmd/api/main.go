package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"rocketcart/internal/config"
	"rocketcart/internal/domain/model"
	"rocketcart/internal/handler"
	"rocketcart/internal/infra/db"
	"rocketcart/internal/infra/logging"
	infraRepo "rocketcart/internal/infra/repository"
	"rocketcart/internal/infra/telemetry"
	"rocketcart/internal/server"
	"rocketcart/internal/usecase"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const serviceName = "inventory-api"

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		logrus.WithError(err).Fatal("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid config")
	}
	if err := cfg.ValidateInventory(); err != nil {
		logrus.WithError(err).Fatal("invalid config")
	}

	log := logging.New(serviceName, cfg.GoEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.OTLPEndpoint, !cfg.IsProd())
	if err != nil {
		log.WithError(err).Fatal("failed to init tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("failed to shutdown tracer")
		}
	}()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect db")
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Stock{},
		&model.InventoryAdjustment{},
	); err != nil {
		log.WithError(err).Fatal("failed to migrate")
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	inventoryUC := usecase.NewInventoryUsecase(productRepo, inventoryRepo, txm)

	if cfg.SeedFile != "" {
		if err := seed(ctx, inventoryUC, cfg.SeedFile); err != nil {
			log.WithError(err).Fatal("failed to seed")
		}
		log.WithField("file", cfg.SeedFile).Info("seeded inventory")
	}

	//Handler生成
	productH := handler.NewProductHandler(inventoryUC)
	stockH := handler.NewStockHandler(inventoryUC)

	e := server.New(log, productH)
	stockH.RegisterRoutes(e, cfg)

	//Server起動
	if err := server.Start(ctx, e, cfg.Addr(), log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// db.json（json-server形式）を読み込んで登録する
func seed(ctx context.Context, uc *usecase.InventoryUsecase, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read seed file %s", path)
	}

	var data usecase.SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return errors.Wrapf(err, "decode seed file %s", path)
	}
	return uc.Seed(ctx, data)
}
