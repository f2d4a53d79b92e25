package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rocketcart/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Router はechoにルートを登録できるもの（各Handler）
type Router interface {
	RegisterRoutes(e *echo.Echo)
}

// New は共通ミドルウェアと /healthz を付けたechoを返す。
func New(log *logrus.Entry, routers ...Router) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	for _, r := range routers {
		r.RegisterRoutes(e)
	}
	return e
}

// Start はctxが終わるまでサーバーを動かし、終わったらgracefulに止める。
func Start(ctx context.Context, e *echo.Echo, addr string, log *logrus.Entry) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("server started")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
