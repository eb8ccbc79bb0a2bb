package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/config"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/middleware"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/usecase"
)

// /payments 配下。ゲートウェイ決済とCODの両方を受け持つ
type PaymentHandler struct {
	payments *usecase.PaymentUsecase
	cod      *usecase.CODUsecase
}

// DI
func NewPaymentHandler(payments *usecase.PaymentUsecase, cod *usecase.CODUsecase) *PaymentHandler {
	return &PaymentHandler{payments: payments, cod: cod}
}

type GatewayOrderCreateRequest struct {
	OrderID  int64  `json:"order_id" validate:"required,gt=0"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency"`
}

type GatewayVerifyRequest struct {
	OrderID          int64  `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

type CODConfirmRequest struct {
	OrderID              int64  `json:"order_id" validate:"required,gt=0"`
	DeliveryInstructions string `json:"delivery_instructions"`
}

type CODDeliveryConfirmRequest struct {
	OrderID             int64  `json:"order_id" validate:"required,gt=0"`
	PaymentCollected    bool   `json:"payment_collected"`
	CollectionAmount    int64  `json:"collection_amount"`
	DeliveryPersonName  string `json:"delivery_person_name" validate:"required"`
	DeliveryPersonPhone string `json:"delivery_person_phone"`
	DeliveryNotes       string `json:"delivery_notes"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg *config.Config, userRepo repository.UserRepository) {
	g := e.Group("/payments")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("/gateway/create", h.createGatewayOrder)
	g.POST("/gateway/verify", h.verifyGatewayPayment)
	g.POST("/cod", h.confirmCOD)
	g.GET("/status/:order_id", h.paymentStatus)

	//配達結果の反映は管理者だけ
	g.POST("/cod/delivery-confirm", h.codDeliveryConfirm, middleware.AdminRoleGuard())
}

func (h *PaymentHandler) createGatewayOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	var req GatewayOrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: string(usecase.CodeValidationError)})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(usecase.CodeValidationError)})
	}

	out, err := h.payments.CreateGatewayOrder(c.Request().Context(), userID, usecase.CreateGatewayOrderInput{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) verifyGatewayPayment(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	var req GatewayVerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: string(usecase.CodeValidationError)})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(usecase.CodeValidationError)})
	}

	out, err := h.payments.VerifyGatewayPayment(c.Request().Context(), userID, usecase.VerifyGatewayPaymentInput{
		OrderID:          req.OrderID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) confirmCOD(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	var req CODConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: string(usecase.CodeValidationError)})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(usecase.CodeValidationError)})
	}

	out, err := h.cod.ConfirmCOD(c.Request().Context(), userID, usecase.ConfirmCODInput{
		OrderID:              req.OrderID,
		DeliveryInstructions: req.DeliveryInstructions,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) codDeliveryConfirm(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	var req CODDeliveryConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: string(usecase.CodeValidationError)})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(usecase.CodeValidationError)})
	}

	out, err := h.cod.DeliveryConfirm(c.Request().Context(), adminID, usecase.DeliveryConfirmInput{
		OrderID:             req.OrderID,
		PaymentCollected:    req.PaymentCollected,
		CollectionAmount:    req.CollectionAmount,
		DeliveryPersonName:  req.DeliveryPersonName,
		DeliveryPersonPhone: req.DeliveryPersonPhone,
		DeliveryNotes:       req.DeliveryNotes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) paymentStatus(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order_id", Code: string(usecase.CodeValidationError)})
	}

	out, err := h.payments.PaymentStatus(c.Request().Context(), userID, isAdminFromContext(c), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func isAdminFromContext(c echo.Context) bool {
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	return model.Role(role) == model.RoleAdmin
}
