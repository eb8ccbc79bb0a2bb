package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/config"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/middleware"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/usecase"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: string(he.Code)})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: string(usecase.CodeInternal)})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type OrderCreateRequest struct {
	Items             []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddressID int64              `json:"shipping_address_id" validate:"required,gt=0"`
	PaymentMethod     string             `json:"payment_method" validate:"required,oneof=gateway cod"`
	CouponCode        string             `json:"coupon_code"`
	Notes             string             `json:"notes"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg *config.Config, userRepo repository.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: string(usecase.CodeValidationError)})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(usecase.CodeValidationError)})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get("X-Idempotency-Key")

	items := make([]usecase.PlaceOrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.PlaceOrderItemInput{
			ProductID: it.ProductID,
			Quantity:  int64(it.Quantity),
		})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		Items:          items,
		AddressID:      req.ShippingAddressID,
		PaymentMethod:  req.PaymentMethod,
		CouponCode:     req.CouponCode,
		Notes:          req.Notes,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	page := 0
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page", Code: string(usecase.CodeValidationError)})
		}
		page = p
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Code: string(usecase.CodeValidationError)})
		}
		limit = l
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id", Code: string(usecase.CodeValidationError)})
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
