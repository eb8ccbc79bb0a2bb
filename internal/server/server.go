package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/config"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/handler"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/validator"
)

// ルーティングに必要なhandler一式
type Handlers struct {
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	Payment    *handler.PaymentHandler
	Webhook    *handler.WebhookHandler
}

func New(cfg *config.Config, h Handlers, userRepo repository.UserRepository) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.NewRequestValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
			} else {
				slog.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			}
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Idempotency-Key"},
		AllowCredentials: true,
	}))

	RegisterRoutes(e, cfg, h, userRepo)
	return e
}

// Start はサーバを起動し、SIGINT/SIGTERMで猶予付きで止める
func Start(e *echo.Echo, cfg *config.Config) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(":" + cfg.Port)
	}()
	slog.Info("server started", "port", cfg.Port, "env", cfg.GoEnv)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(ctx)
	}
}
