package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"rocketcart/internal/config"
	"rocketcart/internal/domain/model"
	"rocketcart/internal/handler"
	"rocketcart/internal/infra/api"
	"rocketcart/internal/infra/db"
	"rocketcart/internal/infra/logging"
	infraRepo "rocketcart/internal/infra/repository"
	"rocketcart/internal/infra/storage"
	"rocketcart/internal/infra/telemetry"
	"rocketcart/internal/notify"
	repo "rocketcart/internal/repository"
	"rocketcart/internal/server"
	"rocketcart/internal/usecase"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	serviceName = "storefront"

	// /notifications でためておく件数
	feedCapacity = 50

	redisAttempts = 5
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		logrus.WithError(err).Fatal("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid config")
	}
	if err := cfg.ValidateStorefront(); err != nil {
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

	kv, closeKV, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open cart storage")
	}
	defer func() {
		if err := closeKV.Close(); err != nil {
			log.WithError(err).Warn("failed to close cart storage")
		}
	}()

	//在庫APIのクライアント（在庫と商品の両方）
	inventory := api.NewClient(cfg.InventoryURL, api.WithTimeout(cfg.InventoryTimeout))

	feed := notify.NewFeed(feedCapacity)
	notifier := notify.Multi(notify.NewLogNotifier(log), feed)

	store := usecase.NewCartStore(ctx, inventory, inventory, kv, notifier,
		usecase.WithCartLogger(log.WithField("component", "cart")),
		usecase.WithStorageKey(cfg.CartStorageKey),
	)
	defer store.Close()

	unsubscribe := store.Subscribe(func(cart model.Cart) {
		log.WithFields(logrus.Fields{
			"items": len(cart),
			"count": cart.ItemCount(),
			"total": cart.Total().StringFixed(2),
		}).Debug("cart updated")
	})
	defer unsubscribe()

	//Handler生成
	cartH := handler.NewCartHandler(store)
	notificationH := handler.NewNotificationHandler(feed)

	e := server.New(log, cartH, notificationH)

	//Server起動
	if err := server.Start(ctx, e, cfg.Addr(), log); err != nil {
		log.WithError(err).Error("server stopped")
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// CART_STORAGE に応じてkey-valueストレージを作る
func openStorage(ctx context.Context, cfg config.Config, log *logrus.Entry) (repo.KeyValueStore, io.Closer, error) {
	switch cfg.CartStorage {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nopCloser{}, nil

	case config.StorageFile:
		fs, err := storage.NewFileStore(cfg.CartStoragePath)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("path", fs.Path()).Info("using file storage")
		return fs, nopCloser{}, nil

	case config.StorageRedis:
		rs := storage.NewRedisStore(cfg.RedisAddr, log.WithField("component", "redis"))
		if err := rs.Initialize(ctx, redisAttempts); err != nil {
			_ = rs.Close()
			return nil, nil, err
		}
		return rs, rs, nil

	case config.StoragePostgres:
		gormDB, err := db.Connect(cfg)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect db")
		}
		if err := gormDB.AutoMigrate(&model.StorageEntry{}); err != nil {
			return nil, nil, errors.Wrap(err, "migrate storage")
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, errors.Wrap(err, "get sql db")
		}
		return infraRepo.NewStorageGormRepository(gormDB), sqlDB, nil
	}
	return nil, nil, errors.Errorf("unknown storage %q", cfg.CartStorage)
}
