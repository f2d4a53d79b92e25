package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rocketcart/internal/domain/model"
	"rocketcart/internal/handler"
	"rocketcart/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks
// =====================

type CartServiceMock struct{ mock.Mock }

func (m *CartServiceMock) Cart() model.Cart {
	args := m.Called()
	c, _ := args.Get(0).(model.Cart)
	return c
}

func (m *CartServiceMock) AddProduct(ctx context.Context, productID int64) model.Cart {
	args := m.Called(ctx, productID)
	c, _ := args.Get(0).(model.Cart)
	return c
}

func (m *CartServiceMock) RemoveProduct(ctx context.Context, productID int64) model.Cart {
	args := m.Called(ctx, productID)
	c, _ := args.Get(0).(model.Cart)
	return c
}

func (m *CartServiceMock) UpdateProductAmount(ctx context.Context, in usecase.UpdateProductAmountInput) model.Cart {
	args := m.Called(ctx, in)
	c, _ := args.Get(0).(model.Cart)
	return c
}

var _ handler.CartService = (*usecase.CartStore)(nil)

// =====================
// helper
// =====================

type cartItemDTO struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Amount   int64  `json:"amount"`
	Subtotal string `json:"subtotal"`
}

type cartDTO struct {
	Items []cartItemDTO `json:"items"`
	Total string        `json:"total"`
	Count int64         `json:"count"`
}

func sampleCart() model.Cart {
	return model.Cart{
		{Product: model.Product{ID: 1, Title: "A", Price: decimal.RequireFromString("179.9")}, Amount: 2},
		{Product: model.Product{ID: 2, Title: "B", Price: decimal.RequireFromString("10")}, Amount: 1},
	}
}

func newCartServer(svc handler.CartService) *echo.Echo {
	e := echo.New()
	handler.NewCartHandler(svc).RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method string, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartDTO {
	t.Helper()
	var out cartDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// =====================
// /cart
// =====================

func TestCartHandler_GetCart(t *testing.T) {
	svc := new(CartServiceMock)
	svc.On("Cart").Return(sampleCart())

	rec := doJSON(newCartServer(svc), http.MethodGet, "/cart", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	out := decodeCart(t, rec)
	require.Len(t, out.Items, 2)
	assert.Equal(t, int64(1), out.Items[0].ID)
	assert.Equal(t, "359.8", out.Items[0].Subtotal)
	assert.Equal(t, "369.8", out.Total)
	assert.Equal(t, int64(3), out.Count)
}

func TestCartHandler_GetCart_EmptyItemsIsArray(t *testing.T) {
	svc := new(CartServiceMock)
	svc.On("Cart").Return(model.Cart{})

	rec := doJSON(newCartServer(svc), http.MethodGet, "/cart", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestCartHandler_AddToCart(t *testing.T) {
	svc := new(CartServiceMock)
	svc.On("AddProduct", mock.Anything, int64(1)).Return(sampleCart()[:1])

	rec := doJSON(newCartServer(svc), http.MethodPost, "/cart", `{"product_id":1}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeCart(t, rec).Items, 1)
	svc.AssertExpectations(t)
}

func TestCartHandler_AddToCart_BadInput(t *testing.T) {
	svc := new(CartServiceMock)
	e := newCartServer(svc)

	rec := doJSON(e, http.MethodPost, "/cart", `{"product_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/cart", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid product_id")

	svc.AssertNotCalled(t, "AddProduct", mock.Anything, mock.Anything)
}

func TestCartHandler_PatchItem(t *testing.T) {
	svc := new(CartServiceMock)
	svc.On("UpdateProductAmount", mock.Anything, usecase.UpdateProductAmountInput{ProductID: 2, Amount: 0}).Return(sampleCart())

	rec := doJSON(newCartServer(svc), http.MethodPatch, "/cart/2", `{"amount":0}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestCartHandler_PatchItem_BadInput(t *testing.T) {
	svc := new(CartServiceMock)
	e := newCartServer(svc)

	rec := doJSON(e, http.MethodPatch, "/cart/abc", `{"amount":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/cart/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "amount required")

	svc.AssertNotCalled(t, "UpdateProductAmount", mock.Anything, mock.Anything)
}

func TestCartHandler_DeleteItem(t *testing.T) {
	svc := new(CartServiceMock)
	svc.On("RemoveProduct", mock.Anything, int64(1)).Return(sampleCart()[1:])

	rec := doJSON(newCartServer(svc), http.MethodDelete, "/cart/1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	out := decodeCart(t, rec)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(2), out.Items[0].ID)
}
