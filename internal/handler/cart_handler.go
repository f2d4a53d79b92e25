package handler

import (
	"context"
	"net/http"

	"rocketcart/internal/domain/model"
	"rocketcart/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// CartService は *usecase.CartStore が満たす
type CartService interface {
	Cart() model.Cart
	AddProduct(ctx context.Context, productID int64) model.Cart
	RemoveProduct(ctx context.Context, productID int64) model.Cart
	UpdateProductAmount(ctx context.Context, in usecase.UpdateProductAmountInput) model.Cart
}

// /cartのHTTP。失敗は通知に出るので、ここでは常に結果のカートを返す。
type CartHandler struct {
	cart CartService
}

// DI
func NewCartHandler(cart CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
}

type UpdateCartItemRequest struct {
	Amount *int64 `json:"amount"`
}

type CartItemResponse struct {
	model.CartItem
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
	Count int64              `json:"count"`
}

func NewCartResponse(cart model.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart))
	for _, it := range cart {
		items = append(items, CartItemResponse{CartItem: it, Subtotal: it.Subtotal()})
	}
	return CartResponse{
		Items: items,
		Total: cart.Total(),
		Count: cart.ItemCount(),
	}
}

// /cart, /cart/:product_id を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/cart")

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PATCH("/:product_id", h.patchItem)
	g.DELETE("/:product_id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	return c.JSON(http.StatusOK, NewCartResponse(h.cart.Cart()))
}

func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.ProductID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	cart := h.cart.AddProduct(c.Request().Context(), req.ProductID)
	return c.JSON(http.StatusOK, NewCartResponse(cart))
}

func (h *CartHandler) patchItem(c echo.Context) error {
	id, ok := parseIDParam(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Amount == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount required"})
	}

	cart := h.cart.UpdateProductAmount(c.Request().Context(), usecase.UpdateProductAmountInput{
		ProductID: id,
		Amount:    *req.Amount,
	})
	return c.JSON(http.StatusOK, NewCartResponse(cart))
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	id, ok := parseIDParam(c, "product_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	cart := h.cart.RemoveProduct(c.Request().Context(), id)
	return c.JSON(http.StatusOK, NewCartResponse(cart))
}
