package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/config"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/middleware"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/usecase"
)

type SuccessResponse struct {
	Message string `json:"message"`
}

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

// DI
func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes"`
}

type BulkStatusUpdateRequest struct {
	OrderIDs []int64 `json:"order_ids" validate:"required,min=1,dive,gt=0"`
	Status   string  `json:"status" validate:"required"`
	Notes    string  `json:"notes"`
}

type BulkStatusUpdateResponse struct {
	Results []usecase.BulkStatusResult `json:"results"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg *config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders", h.list)
	admin.PUT("/orders/:id/status", h.updateStatus)
	admin.PUT("/orders/bulk-status", h.bulkUpdateStatus)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page", Code: string(usecase.CodeValidationError)})
		}
		page = p
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Code: string(usecase.CodeValidationError)})
		}
		limit = l
	}

	var userID *int64
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id", Code: string(usecase.CodeValidationError)})
		}
		userID = &id
	}

	var fromPtr *time.Time
	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from", Code: string(usecase.CodeValidationError)})
		}
		fromPtr = &tm
	}

	var toPtr *time.Time
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to", Code: string(usecase.CodeValidationError)})
		}
		toPtr = &tm
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:          page,
		Limit:         limit,
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
		UserID:        userID,
		From:          fromPtr,
		To:            toPtr,
		Sort:          c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id", Code: string(usecase.CodeValidationError)})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: string(usecase.CodeValidationError)})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(usecase.CodeValidationError)})
	}

	//履歴に残す操作者ID
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	out, err := h.uc.UpdateStatus(
		c.Request().Context(),
		adminID,
		orderID,
		usecase.AdminUpdateOrderStatusInput{Status: req.Status, Notes: req.Notes},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) bulkUpdateStatus(c echo.Context) error {
	var req BulkStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: string(usecase.CodeValidationError)})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(usecase.CodeValidationError)})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.CodeUnauthorized)})
	}

	results, err := h.uc.BulkUpdateStatus(
		c.Request().Context(),
		adminID,
		usecase.AdminBulkUpdateStatusInput{OrderIDs: req.OrderIDs, Status: req.Status, Notes: req.Notes},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, BulkStatusUpdateResponse{Results: results})
}
