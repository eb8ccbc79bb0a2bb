package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/usecase"
)

// ゲートウェイからのpush通知。認証なしの公開エンドポイント
type WebhookHandler struct {
	uc *usecase.WebhookUsecase
}

// DI
func NewWebhookHandler(uc *usecase.WebhookUsecase) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/payments/webhook", h.handle)
}

func (h *WebhookHandler) handle(c echo.Context) error {
	//署名はボディの生バイト列に対して計算されるので、Bindせずそのまま読む
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot read body", Code: string(usecase.CodeValidationError)})
	}

	signature := c.Request().Header.Get("X-Webhook-Signature")
	eventID := c.Request().Header.Get("X-Webhook-Event-Id")

	if err := h.uc.HandleEvent(c.Request().Context(), rawBody, signature, eventID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}
