package handler

import (
	"net/http"

	"rocketcart/internal/notify"

	"github.com/labstack/echo/v4"
)

// NotificationSource は *notify.Feed が満たす
type NotificationSource interface {
	Drain() []notify.Notification
}

// /notifications はたまっているトーストを返して空にする
type NotificationHandler struct {
	feed NotificationSource
}

func NewNotificationHandler(feed NotificationSource) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

func (h *NotificationHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/notifications", h.drain)
}

func (h *NotificationHandler) drain(c echo.Context) error {
	return c.JSON(http.StatusOK, h.feed.Drain())
}
