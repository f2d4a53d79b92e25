package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rocketcart/internal/config"
	"rocketcart/internal/domain/model"
	"rocketcart/internal/handler"
	repo "rocketcart/internal/repository"
	"rocketcart/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks（衝突回避の命名）
// =====================

type HProductRepoMock struct{ mock.Mock }

func (m *HProductRepoMock) List(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *HProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *HProductRepoMock) Upsert(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type HInventoryRepoMock struct{ mock.Mock }

func (m *HInventoryRepoMock) FindStock(ctx context.Context, productID int64) (model.Stock, error) {
	args := m.Called(ctx, productID)
	s, _ := args.Get(0).(model.Stock)
	return s, args.Error(1)
}

func (m *HInventoryRepoMock) SetStock(ctx context.Context, productID int64, amount int64) error {
	args := m.Called(ctx, productID, amount)
	return args.Error(0)
}

func (m *HInventoryRepoMock) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

type hTxRepos struct {
	products  *HProductRepoMock
	inventory *HInventoryRepoMock
}

func (r *hTxRepos) Products() repo.ProductRepository    { return r.products }
func (r *hTxRepos) Inventory() repo.InventoryRepository { return r.inventory }

type hTxManager struct{ repos *hTxRepos }

func (m *hTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

// =====================
// helper
// =====================

const testSecret = "test-secret"

func newInventoryServer() (*echo.Echo, *HProductRepoMock, *HInventoryRepoMock) {
	pRepo := new(HProductRepoMock)
	iRepo := new(HInventoryRepoMock)
	uc := usecase.NewInventoryUsecase(pRepo, iRepo, &hTxManager{repos: &hTxRepos{products: pRepo, inventory: iRepo}})

	e := echo.New()
	handler.NewProductHandler(uc).RegisterRoutes(e)
	handler.NewStockHandler(uc).RegisterRoutes(e, config.Config{JWTSecret: testSecret})
	return e, pRepo, iRepo
}

func mustMakeJWT(t *testing.T, sub string, role string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func doAuthJSON(e *echo.Echo, method string, path string, token string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// =====================
// 公開API
// =====================

func TestProductHandler_List(t *testing.T) {
	e, pRepo, _ := newInventoryServer()
	pRepo.On("List", mock.Anything).Return([]model.Product{{ID: 1, Title: "A"}}, nil)

	rec := doJSON(e, http.MethodGet, "/products", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"A"`)
}

func TestProductHandler_Detail(t *testing.T) {
	e, pRepo, _ := newInventoryServer()
	pRepo.On("FindByID", mock.Anything, int64(2)).Return(model.Product{}, repo.ErrNotFound)

	rec := doJSON(e, http.MethodGet, "/products/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/products/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStockHandler_Get(t *testing.T) {
	e, _, iRepo := newInventoryServer()
	iRepo.On("FindStock", mock.Anything, int64(1)).Return(model.Stock{ProductID: 1, Amount: 3}, nil)

	rec := doJSON(e, http.MethodGet, "/stock/1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"amount":3}`, rec.Body.String())
}

// =====================
// 管理API
// =====================

func TestStockHandler_Update_RequiresToken(t *testing.T) {
	e, _, iRepo := newInventoryServer()

	rec := doAuthJSON(e, http.MethodPut, "/admin/stock/1", "", `{"amount":3,"reason":"restock"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	iRepo.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestStockHandler_Update_RequiresAdmin(t *testing.T) {
	e, _, iRepo := newInventoryServer()

	rec := doAuthJSON(e, http.MethodPut, "/admin/stock/1", mustMakeJWT(t, "user@example.com", "USER"), `{"amount":3,"reason":"restock"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"admin only"}`, rec.Body.String())
	iRepo.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestStockHandler_Update_Success(t *testing.T) {
	e, pRepo, iRepo := newInventoryServer()

	pRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1}, nil)
	iRepo.On("FindStock", mock.Anything, int64(1)).Return(model.Stock{ProductID: 1, Amount: 1}, nil)
	iRepo.On("SetStock", mock.Anything, int64(1), int64(3)).Return(nil)
	iRepo.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(adj model.InventoryAdjustment) bool {
		return adj.Actor == "admin@example.com" && adj.Delta == 2
	})).Return(nil)

	rec := doAuthJSON(e, http.MethodPut, "/admin/stock/1", mustMakeJWT(t, "admin@example.com", "ADMIN"), `{"amount":3,"reason":"restock"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"amount":3}`, rec.Body.String())
	iRepo.AssertExpectations(t)
}

func TestStockHandler_Update_BadInput(t *testing.T) {
	e, _, _ := newInventoryServer()
	token := mustMakeJWT(t, "admin@example.com", "ADMIN")

	rec := doAuthJSON(e, http.MethodPut, "/admin/stock/1", token, `{"reason":"restock"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"amount required"}`, rec.Body.String())

	rec = doAuthJSON(e, http.MethodPut, "/admin/stock/1", token, `{"amount":-1,"reason":"restock"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doAuthJSON(e, http.MethodPut, "/admin/stock/0", token, `{"amount":1,"reason":"restock"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
