package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/config"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
)

func RegisterRoutes(e *echo.Echo, cfg *config.Config, h Handlers, userRepo repository.UserRepository) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)
	h.Payment.RegisterRoutes(e, cfg, userRepo)
	h.Webhook.RegisterRoutes(e)
}
