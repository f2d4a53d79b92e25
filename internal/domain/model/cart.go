package model

import "github.com/shopspring/decimal"

// Cart は追加順の明細。同じ商品IDは1つだけ。
// 変更系のメソッドは必ず新しいスライスを返し、元のCartは書き換えない。
type Cart []CartItem

func (c Cart) Find(productID int64) (CartItem, bool) {
	for _, it := range c {
		if it.ID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

func (c Cart) Contains(productID int64) bool {
	_, ok := c.Find(productID)
	return ok
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// 末尾に追加
func (c Cart) Append(item CartItem) Cart {
	out := make(Cart, 0, len(c)+1)
	out = append(out, c...)
	return append(out, item)
}

// 指定商品を除いたCart
func (c Cart) Without(productID int64) Cart {
	out := make(Cart, 0, len(c))
	for _, it := range c {
		if it.ID != productID {
			out = append(out, it)
		}
	}
	return out
}

// 指定商品の数量だけ差し替えたCart
func (c Cart) WithAmount(productID int64, amount int64) Cart {
	out := c.Clone()
	for i := range out {
		if out[i].ID == productID {
			out[i].Amount = amount
		}
	}
	return out
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(it.Subtotal())
	}
	return total
}

// 数量の合計
func (c Cart) ItemCount() int64 {
	var n int64
	for _, it := range c {
		n += it.Amount
	}
	return n
}
