package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// カートの保存先
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット
	SeedFile  string // json-server形式のdb.json

	InventoryURL     string        // 在庫APIのURL
	InventoryTimeout time.Duration // 在庫APIのタイムアウト

	CartStorage     string // memory/file/redis/postgres
	CartStoragePath string // fileのときの保存先
	CartStorageKey  string // 空ならデフォルトのキー
	RedisAddr       string

	OTLPEndpoint string // 空ならOTLPに送らない
}

// LoadEnvFile は .env を環境変数に読み込む。ファイルが無いのはエラーにしない。
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	timeout, err := durationOr("INVENTORY_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "app"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: getenv("JWT_SECRET", "dev_secret_change_me"),
		SeedFile:  os.Getenv("SEED_FILE"),

		InventoryURL:     getenv("INVENTORY_URL", "http://localhost:3333"),
		InventoryTimeout: timeout,

		CartStorage:     getenv("CART_STORAGE", StorageFile),
		CartStoragePath: getenv("CART_STORAGE_PATH", "./data/cart.json"),
		CartStorageKey:  os.Getenv("CART_STORAGE_KEY"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// 在庫API（cmd/api）用のチェック
func (c Config) ValidateInventory() error {
	if c.IsProd() && (c.JWTSecret == "" || c.JWTSecret == "dev_secret_change_me") {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseURL == "" && c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	return nil
}

// ストアフロント（cmd/storefront）用のチェック
func (c Config) ValidateStorefront() error {
	if c.InventoryURL == "" {
		return fmt.Errorf("INVENTORY_URL is required")
	}
	if c.InventoryTimeout <= 0 {
		return fmt.Errorf("INVENTORY_TIMEOUT must be positive")
	}

	switch c.CartStorage {
	case StorageMemory, StoragePostgres:
	case StorageFile:
		if c.CartStoragePath == "" {
			return fmt.Errorf("CART_STORAGE_PATH is required")
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	default:
		return fmt.Errorf("CART_STORAGE must be one of memory, file, redis, postgres: %q", c.CartStorage)
	}
	return nil
}

// Addr は echo に渡す ":8080" 形式
func (c Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
