package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/event"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/notification"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"

	"github.com/google/uuid"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	users     repo.UserRepository
	pricing   PricingConfig
	events    event.Publisher
	notifier  notification.Notifier
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	addresses repo.AddressRepository,
	users repo.UserRepository,
	pricing PricingConfig,
	events event.Publisher,
	notifier notification.Notifier,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		addresses: addresses,
		users:     users,
		pricing:   pricing,
		events:    events,
		notifier:  notifier,
	}
}

type PlaceOrderItemInput struct {
	ProductID int64
	Quantity  int64
}

type PlaceOrderInput struct {
	Items          []PlaceOrderItemInput
	AddressID      int64
	PaymentMethod  string
	CouponCode     string
	Notes          string
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unit_price"`
	Quantity   int64  `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
}

type OrderOutput struct {
	ID             int64             `json:"id"`
	OrderNumber    string            `json:"order_number"`
	UserID         int64             `json:"user_id"`
	Status         string            `json:"status"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentStatus  string            `json:"payment_status"`
	Subtotal       int64             `json:"subtotal"`
	DiscountAmount int64             `json:"discount_amount"`
	ShippingAmount int64             `json:"shipping_amount"`
	TaxAmount      int64             `json:"tax_amount"`
	TotalAmount    int64             `json:"total_amount"`
	CouponCode     string            `json:"coupon_code,omitempty"`
	AddressID      int64             `json:"address_id"`
	Notes          string            `json:"notes,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Items          []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// 同じ冪等キーの注文が別トランザクションで先にコミットされた印。
// このtxは巻き戻して、勝った方の結果を読み直す。
var errIdemRace = errors.New("idempotency race")

func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "items must not be empty")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid product_id or quantity")
		}
	}
	if in.AddressID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid shipping_address_id")
	}
	method, ok := model.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "payment_method must be gateway or cod")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid idempotency key")
	}

	//address_idの存在確認＋所有チェック。他人の住所は「存在しない」扱い
	addr, err := u.addresses.FindByID(ctx, in.AddressID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, CodeAddressNotFound, "address not found")
	}
	if err != nil {
		return OrderOutput{}, errInternal()
	}
	if addr.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, CodeAddressNotFound, "address not found")
	}

	var out OrderOutput
	var placed model.Order
	created := false

	//注文確定は1トランザクション。在庫減算・クーポン加算・注文行・
	//明細・決済行・履歴が全部入るか、全部入らないか
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//同じキーなら同じ結果
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return errInternal()
			}
			if found {
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return errInternal()
				}
				out = toOrderOutput(existing, items)
				return nil
			}
		}

		now := time.Now()

		//在庫は確定時に再チェックしつつ1文のUPDATEで減らす。
		//単価と商品名はこの時点でスナップショット
		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var subtotal int64
		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, CodeProductUnavailable, fmt.Sprintf("product %d is unavailable", it.ProductID))
			}
			if err != nil {
				return errInternal()
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, CodeProductUnavailable, fmt.Sprintf("product %q is unavailable", p.Name))
			}

			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return errInternal()
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, CodeInsufficientStock, fmt.Sprintf("insufficient stock for %q", p.Name))
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            it.Quantity,
				TotalPrice:          p.Price * it.Quantity,
				CreatedAt:           now,
			})
			subtotal += p.Price * it.Quantity
		}

		//クーポン。判定はモデル側、used_countの+1はこのtx内で1回だけ。
		//注文ごと失敗した時に加算が残らないのはロールバックが保証する
		var discount int64
		var couponCode *string
		if code := strings.TrimSpace(in.CouponCode); code != "" {
			c, found, err := r.Coupons().FindByCode(ctx, code)
			if err != nil {
				return errInternal()
			}
			if !found {
				return NewHTTPError(http.StatusBadRequest, CodeInvalidCoupon, "coupon not found")
			}
			if err := c.CanApply(subtotal, now); err != nil {
				return couponError(err)
			}
			ok, err := r.Coupons().IncrementUsageIfAvailable(ctx, c.ID)
			if err != nil {
				return errInternal()
			}
			if !ok {
				//最後の1枚を別の注文が先に使った
				return NewHTTPError(http.StatusBadRequest, CodeCouponLimitExceeded, "coupon usage limit reached")
			}
			discount = c.Discount(subtotal)
			couponCode = &c.Code
		}

		shipping := u.pricing.Shipping(subtotal)
		tax := u.pricing.Tax(subtotal - discount + shipping)
		total := subtotal - discount + shipping + tax

		order := model.Order{
			OrderNumber:    newOrderNumber(now),
			UserID:         userID,
			AddressID:      in.AddressID,
			Status:         model.OrderStatusPlaced,
			PaymentMethod:  method,
			PaymentStatus:  model.OrderPaymentPending,
			DiscountAmount: discount,
			ShippingAmount: shipping,
			TaxAmount:      tax,
			TotalAmount:    total,
			CouponCode:     couponCode,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if key != "" {
			order.IdempotencyKey = &key
		}
		if n := strings.TrimSpace(in.Notes); n != "" {
			order.Notes = noteLine(now, n)
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			//同時に同じキーが入った。巻き戻して勝った方を読み直す
			if key != "" && errors.Is(err, repo.ErrDuplicate) {
				return errIdemRace
			}
			return errInternal()
		}
		order.ID = orderID

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return errInternal()
		}

		//在庫台帳に減算の行を残す
		for _, it := range orderItems {
			adj := model.InventoryAdjustment{
				ProductID:   it.ProductID,
				ActorUserID: userID,
				Delta:       -it.Quantity,
				Reason:      "order " + order.OrderNumber,
				CreatedAt:   now,
			}
			if err := r.Inventory().CreateAdjustment(ctx, adj); err != nil {
				return errInternal()
			}
		}

		//決済行はpendingで先に作る。ゲートウェイ検証かCOD回収が進める
		if _, err := r.Payments().Create(ctx, model.Payment{
			OrderID:   orderID,
			Method:    method,
			Status:    model.PaymentStatusPending,
			Amount:    total,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return errInternal()
		}

		if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
			OrderID:     orderID,
			NewStatus:   model.OrderStatusPlaced,
			ActorUserID: userID,
			Notes:       "order placed",
			CreatedAt:   now,
		}); err != nil {
			return errInternal()
		}

		placed = order
		created = true
		out = toOrderOutput(order, orderItems)
		return nil
	})

	if errors.Is(err, errIdemRace) {
		err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			ex, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return errInternal()
			}
			if !found {
				return NewHTTPError(http.StatusBadRequest, CodeIdempotencyConflict, "conflicting order creation in flight")
			}
			items, err := r.OrderItems().ListByOrderID(ctx, ex.ID)
			if err != nil {
				return errInternal()
			}
			out = toOrderOutput(ex, items)
			return nil
		})
	}
	if err != nil {
		return OrderOutput{}, err
	}

	//コミット後のベストエフォート。失敗しても注文は成立済み
	if created {
		u.events.Publish(event.TopicOrderPlaced, placed.OrderNumber, event.OrderPlaced{
			OrderID:       placed.ID,
			OrderNumber:   placed.OrderNumber,
			UserID:        placed.UserID,
			TotalAmount:   placed.TotalAmount,
			PaymentMethod: string(placed.PaymentMethod),
			PlacedAt:      placed.CreatedAt,
		})
		if user, err := u.users.FindByID(ctx, userID); err == nil && user != nil {
			u.notifier.OrderConfirmation(user.Email, placed)
		}
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return errInternal()
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return errInternal()
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		out = OrderListOutput{Orders: outs, Total: total, Page: page, Limit: limit}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return errInternal()
		}
		if o.UserID != userID {
			//他人の注文は「存在しない」扱い
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errInternal()
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 注文番号: RC-YYYYMMDD-乱数6桁。一意性はDBのunique制約が守る
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return "RC-" + now.Format("20060102") + "-" + suffix
}

// 追記メモの1行フォーマット
func noteLine(now time.Time, text string) string {
	return "[" + now.Format(time.RFC3339) + "] " + text + "\n"
}

func couponError(err error) error {
	switch {
	case errors.Is(err, model.ErrCouponLimitUsedUp):
		return NewHTTPError(http.StatusBadRequest, CodeCouponLimitExceeded, "coupon usage limit reached")
	case errors.Is(err, model.ErrCouponMinAmount):
		return NewHTTPError(http.StatusBadRequest, CodeMinimumAmountNotMet, "order amount below coupon minimum")
	default:
		return NewHTTPError(http.StatusBadRequest, CodeInvalidCoupon, err.Error())
	}
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:  it.ProductID,
			Name:       it.ProductNameSnapshot,
			UnitPrice:  it.UnitPriceSnapshot,
			Quantity:   it.Quantity,
			TotalPrice: it.TotalPrice,
		})
	}

	coupon := ""
	if o.CouponCode != nil {
		coupon = *o.CouponCode
	}

	return OrderOutput{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		Status:         string(o.Status),
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  string(o.PaymentStatus),
		Subtotal:       model.Subtotal(items),
		DiscountAmount: o.DiscountAmount,
		ShippingAmount: o.ShippingAmount,
		TaxAmount:      o.TaxAmount,
		TotalAmount:    o.TotalAmount,
		CouponCode:     coupon,
		AddressID:      o.AddressID,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
		Items:          outItems,
	}
}
