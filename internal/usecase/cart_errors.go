package usecase

import "errors"

// ユーザーに出すメッセージ
const (
	MsgStockUnavailable = "Quantidade solicitada fora de estoque"
	MsgAddFailed        = "Erro na adição do produto"
	MsgRemoveFailed     = "Erro na remoção do produto"
	MsgUpdateFailed     = "Erro na alteração de quantidade do produto"
)

var (
	// 在庫不足、または在庫の取得に失敗
	ErrStockUnavailable = errors.New("requested amount is out of stock")

	// 新規追加時のカタログ取得失敗
	ErrProductFetch = errors.New("failed to fetch product")

	// カートに無い商品を削除・変更しようとした
	ErrItemNotFound = errors.New("product is not in the cart")

	// 負の数量
	ErrInvalidAmount = errors.New("invalid amount")

	// amount=0 の更新。通知もしない
	errNoChange = errors.New("no change")
)

type cartOperation string

const (
	opAddProduct    cartOperation = "add_product"
	opRemoveProduct cartOperation = "remove_product"
	opUpdateAmount  cartOperation = "update_product_amount"
)

// 操作ごとのエラーを通知メッセージに変換する。空文字なら通知しない。
func notificationFor(op cartOperation, err error) string {
	switch {
	case err == nil, errors.Is(err, errNoChange):
		return ""
	case errors.Is(err, ErrStockUnavailable):
		return MsgStockUnavailable
	}

	switch op {
	case opAddProduct:
		return MsgAddFailed
	case opRemoveProduct:
		return MsgRemoveFailed
	case opUpdateAmount:
		return MsgUpdateFailed
	}
	return ""
}
