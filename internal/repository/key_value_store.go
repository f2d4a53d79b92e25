package repository

import "context"

// カートを保存するkey-valueストレージ（ブラウザのlocalStorage相当）。
// キーが無いときGetはErrNotFoundを返す。
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}
