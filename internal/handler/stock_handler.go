package handler

import (
	"net/http"

	"rocketcart/internal/config"
	"rocketcart/internal/middleware"
	"rocketcart/internal/usecase"

	"github.com/labstack/echo/v4"
)

// StockUpdateRequest は在庫更新の入力です。
type StockUpdateRequest struct {
	Amount *int64 `json:"amount"`
	Reason string `json:"reason"`
}

// /stock と /admin/stock をまとめる
type StockHandler struct {
	uc *usecase.InventoryUsecase
}

// DI
func NewStockHandler(uc *usecase.InventoryUsecase) *StockHandler {
	return &StockHandler{uc: uc}
}

func (h *StockHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.GET("/stock/:id", h.get)

	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.PUT("/stock/:id", h.update)
}

func (h *StockHandler) get(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	s, err := h.uc.GetStock(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *StockHandler) update(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Amount == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount required"})
	}

	actor, _ := c.Get(middleware.CtxSubjectKey).(string)
	if actor == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	s, err := h.uc.AdminUpdateStock(c.Request().Context(), actor, id, *req.Amount, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
