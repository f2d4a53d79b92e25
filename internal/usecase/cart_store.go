package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"rocketcart/internal/domain/model"
	repo "rocketcart/internal/repository"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// カートを保存するキー
const CartStorageKey = "@RocketShoes:cart"

var cartTracer = otel.Tracer("rocketcart/usecase/cart")

type UpdateProductAmountInput struct {
	ProductID int64
	Amount    int64
}

type CartStoreOption func(*CartStore)

func WithCartLogger(log *logrus.Entry) CartStoreOption {
	return func(s *CartStore) { s.log = log }
}

func WithStorageKey(key string) CartStoreOption {
	return func(s *CartStore) {
		if key != "" {
			s.key = key
		}
	}
}

type mutation func(ctx context.Context, cart model.Cart) (model.Cart, error)

// 1件の変更要求。replyには結果のCartを返す。
type cartCommand struct {
	ctx       context.Context
	op        cartOperation
	productID int64
	mutate    mutation
	reply     chan model.Cart
}

// CartStore はカートの状態を持ち、在庫を確認しながら追加・削除・数量変更を行う。
// 変更はすべて1つのgoroutineで順番に処理するので、同時に呼ばれても更新が消えない。
// 失敗は呼び出し元には返さず Notifier に通知する。
type CartStore struct {
	stock    StockFetcher
	products ProductFetcher
	storage  repo.KeyValueStore
	notifier Notifier
	log      *logrus.Entry
	key      string

	mu   sync.RWMutex
	cart model.Cart

	subMu   sync.Mutex
	subs    map[int]func(model.Cart)
	nextSub int

	commands  chan cartCommand
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewCartStore は保存済みのカートを読み込んでから処理用goroutineを起動する。
// 保存済みのカートが無い・読めない・壊れている場合は空のカートで始める。
func NewCartStore(
	ctx context.Context,
	stock StockFetcher,
	products ProductFetcher,
	storage repo.KeyValueStore,
	notifier Notifier,
	opts ...CartStoreOption,
) *CartStore {
	s := &CartStore{
		stock:    stock,
		products: products,
		storage:  storage,
		notifier: notifier,
		log:      logrus.NewEntry(logrus.StandardLogger()),
		key:      CartStorageKey,
		subs:     make(map[int]func(model.Cart)),
		commands: make(chan cartCommand),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cart = s.load(ctx)
	go s.loop()
	return s
}

// Cart は現在のカートのコピー
func (s *CartStore) Cart() model.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// AddProduct はカートに1つ追加する（既にあれば数量+1）。
func (s *CartStore) AddProduct(ctx context.Context, productID int64) model.Cart {
	return s.dispatch(ctx, opAddProduct, productID, func(ctx context.Context, cart model.Cart) (model.Cart, error) {
		return s.addProduct(ctx, cart, productID)
	})
}

// RemoveProduct はカートから商品を取り除く。
func (s *CartStore) RemoveProduct(ctx context.Context, productID int64) model.Cart {
	return s.dispatch(ctx, opRemoveProduct, productID, func(ctx context.Context, cart model.Cart) (model.Cart, error) {
		return removeProduct(cart, productID)
	})
}

// UpdateProductAmount は数量を指定値にする。amount=0 は何もしない。
func (s *CartStore) UpdateProductAmount(ctx context.Context, in UpdateProductAmountInput) model.Cart {
	return s.dispatch(ctx, opUpdateAmount, in.ProductID, func(ctx context.Context, cart model.Cart) (model.Cart, error) {
		return s.updateProductAmount(ctx, cart, in)
	})
}

// Subscribe は変更が成功するたびに新しいCartを受け取る関数を登録する。
// fnは処理用goroutineから呼ばれるので、中からCartStoreの変更系を呼ばないこと。
func (s *CartStore) Subscribe(fn func(model.Cart)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// Close は処理用goroutineを止める。以降の変更は現在のCartを返すだけ。
func (s *CartStore) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

func (s *CartStore) dispatch(ctx context.Context, op cartOperation, productID int64, fn mutation) model.Cart {
	cmd := cartCommand{
		ctx:       ctx,
		op:        op,
		productID: productID,
		mutate:    fn,
		reply:     make(chan model.Cart, 1),
	}

	select {
	case s.commands <- cmd:
	case <-s.quit:
		return s.Cart()
	case <-ctx.Done():
		return s.Cart()
	}

	select {
	case cart := <-cmd.reply:
		return cart
	case <-ctx.Done():
		return s.Cart()
	}
}

// loop だけがカートを書き換える
func (s *CartStore) loop() {
	defer close(s.done)
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- s.apply(cmd)
		case <-s.quit:
			return
		}
	}
}

func (s *CartStore) apply(cmd cartCommand) model.Cart {
	ctx, span := cartTracer.Start(cmd.ctx, "CartStore."+string(cmd.op),
		trace.WithAttributes(attribute.Int64("cart.product_id", cmd.productID)),
	)
	defer span.End()

	current := s.Cart()
	next, err := cmd.mutate(ctx, current)
	if err != nil {
		if msg := notificationFor(cmd.op, err); msg != "" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.WithFields(logrus.Fields{
				"op":         cmd.op,
				"product_id": cmd.productID,
			}).WithError(err).Info("cart mutation rejected")
			s.notifier.NotifyError(msg)
		}
		return current
	}

	s.commit(ctx, next)
	return next.Clone()
}

// 保存してからメモリ上のCartを差し替え、購読者に配る。
// 保存の失敗はログに残すだけで成功と区別しない。
func (s *CartStore) commit(ctx context.Context, next model.Cart) {
	ctx = context.WithoutCancel(ctx)

	if data, err := json.Marshal(next); err != nil {
		s.log.WithError(err).Error("failed to encode cart")
	} else if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		s.log.WithError(err).Warn("failed to persist cart")
	}

	s.mu.Lock()
	s.cart = next
	s.mu.Unlock()

	s.publish(next)
}

func (s *CartStore) publish(cart model.Cart) {
	s.subMu.Lock()
	subs := make([]func(model.Cart), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(cart.Clone())
	}
}

func (s *CartStore) load(ctx context.Context) model.Cart {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.log.WithError(err).Warn("failed to read stored cart, starting empty")
		}
		return model.Cart{}
	}

	var cart model.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		s.log.WithError(err).Warn("stored cart is malformed, starting empty")
		return model.Cart{}
	}
	if cart == nil {
		return model.Cart{}
	}
	return cart
}

func (s *CartStore) addProduct(ctx context.Context, cart model.Cart, productID int64) (model.Cart, error) {
	//在庫の取得に失敗したら在庫切れと同じ扱い
	stock, err := s.stock.FetchStock(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStockUnavailable, err)
	}

	existing, found := cart.Find(productID)
	if !found {
		p, err := s.products.FetchProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProductFetch, err)
		}
		if p.ID != productID {
			return nil, fmt.Errorf("%w: catalog returned product %d for %d", ErrProductFetch, p.ID, productID)
		}
		if stock.Amount < 1 {
			return nil, ErrStockUnavailable
		}
		return cart.Append(model.CartItem{Product: p, Amount: 1}), nil
	}

	newAmount := existing.Amount + 1
	if stock.Amount < newAmount {
		return nil, ErrStockUnavailable
	}
	return cart.WithAmount(productID, newAmount), nil
}

func removeProduct(cart model.Cart, productID int64) (model.Cart, error) {
	if !cart.Contains(productID) {
		return nil, ErrItemNotFound
	}
	return cart.Without(productID), nil
}

func (s *CartStore) updateProductAmount(ctx context.Context, cart model.Cart, in UpdateProductAmountInput) (model.Cart, error) {
	if in.Amount == 0 {
		return nil, errNoChange
	}
	if !cart.Contains(in.ProductID) {
		return nil, ErrItemNotFound
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, in.Amount)
	}

	if err := s.validateStock(ctx, in.ProductID, in.Amount); err != nil {
		return nil, err
	}
	return cart.WithAmount(in.ProductID, in.Amount), nil
}

// 要求数量が在庫以内か確認する。取得失敗も在庫切れ扱い。
func (s *CartStore) validateStock(ctx context.Context, productID int64, amount int64) error {
	stock, err := s.stock.FetchStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStockUnavailable, err)
	}
	if amount > stock.Amount {
		return ErrStockUnavailable
	}
	return nil
}
