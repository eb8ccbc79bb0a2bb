package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/event"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/notification"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
)

type CODUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	users     repo.UserRepository
	events    event.Publisher
	notifier  notification.Notifier

	//受け付ける上限金額と対象地域（州名、大文字小文字は無視）
	maxAmount int64
	regions   []string
}

func NewCODUsecase(
	tx repo.TransactionManager,
	addresses repo.AddressRepository,
	users repo.UserRepository,
	events event.Publisher,
	notifier notification.Notifier,
	maxAmount int64,
	regions []string,
) *CODUsecase {
	return &CODUsecase{
		tx:        tx,
		addresses: addresses,
		users:     users,
		events:    events,
		notifier:  notifier,
		maxAmount: maxAmount,
		regions:   regions,
	}
}

type ConfirmCODInput struct {
	OrderID              int64
	DeliveryInstructions string
}

type ConfirmCODOutput struct {
	OrderID              int64  `json:"order_id"`
	OrderNumber          string `json:"order_number"`
	OrderStatus          string `json:"order_status"`
	CODAmount            int64  `json:"cod_amount"`
	CODStatus            string `json:"cod_status"`
	DeliveryInstructions string `json:"delivery_instructions,omitempty"`
}

func (u *CODUsecase) regionServiceable(state string) bool {
	for _, r := range u.regions {
		if strings.EqualFold(strings.TrimSpace(r), strings.TrimSpace(state)) {
			return true
		}
	}
	return false
}

// ConfirmCOD は代引き注文を確定する。上限金額と対象地域のゲートを通った注文だけ
// processingへ進め、回収トラッキング行を作る。落ちた注文はplacedのまま残る
func (u *CODUsecase) ConfirmCOD(ctx context.Context, userID int64, in ConfirmCODInput) (ConfirmCODOutput, error) {
	if userID <= 0 {
		return ConfirmCODOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.OrderID <= 0 {
		return ConfirmCODOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid order_id")
	}

	var out ConfirmCODOutput
	var confirmed model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return errInternal()
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if o.PaymentMethod != model.PaymentMethodCOD {
			return NewHTTPError(http.StatusBadRequest, CodeValidationError, "not a cash on delivery order")
		}

		if _, found, err := r.CODTracking().FindByOrderID(ctx, o.ID); err != nil {
			return errInternal()
		} else if found {
			return NewHTTPError(http.StatusBadRequest, CodeValidationError, "cash on delivery already confirmed")
		}
		if o.Status != model.OrderStatusPlaced {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidStatusTransition,
				fmt.Sprintf("cannot confirm cash on delivery for %s order", o.Status))
		}

		//適格性ゲート。落ちても注文自体は残る（placedのまま）
		if o.TotalAmount > u.maxAmount {
			return NewHTTPError(http.StatusBadRequest, CodeCODNotEligible,
				fmt.Sprintf("order total %d exceeds cash on delivery limit %d", o.TotalAmount, u.maxAmount))
		}
		addr, err := u.addresses.FindByID(ctx, o.AddressID)
		if err != nil {
			return errInternal()
		}
		if !u.regionServiceable(addr.State) {
			return NewHTTPError(http.StatusBadRequest, CodeCODNotEligible, "cash on delivery is not available in this region")
		}

		ok, err := r.Orders().UpdateStatusIf(ctx, o.ID, model.OrderStatusPlaced, model.OrderStatusProcessing)
		if err != nil {
			return errInternal()
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidStatusTransition, "order status changed concurrently")
		}

		if _, err := r.CODTracking().Create(ctx, model.CODTracking{
			OrderID:              o.ID,
			CODAmount:            o.TotalAmount,
			DeliveryInstructions: in.DeliveryInstructions,
			Status:               model.CODStatusConfirmed,
			ConfirmedByUserID:    userID,
		}); err != nil {
			return errInternal()
		}

		if err := r.Orders().AppendNote(ctx, o.ID, "cash on delivery confirmed"); err != nil {
			return errInternal()
		}
		if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
			OrderID:        o.ID,
			PreviousStatus: model.OrderStatusPlaced,
			NewStatus:      model.OrderStatusProcessing,
			ActorUserID:    userID,
			Notes:          "cash on delivery confirmed",
			CreatedAt:      time.Now(),
		}); err != nil {
			return errInternal()
		}

		o.Status = model.OrderStatusProcessing
		confirmed = o
		out = ConfirmCODOutput{
			OrderID:              o.ID,
			OrderNumber:          o.OrderNumber,
			OrderStatus:          string(o.Status),
			CODAmount:            o.TotalAmount,
			CODStatus:            string(model.CODStatusConfirmed),
			DeliveryInstructions: in.DeliveryInstructions,
		}
		return nil
	})
	if err != nil {
		return ConfirmCODOutput{}, err
	}

	u.events.Publish(event.TopicOrderStatusChanged, confirmed.OrderNumber, event.OrderStatusChanged{
		OrderID:     confirmed.ID,
		OrderNumber: confirmed.OrderNumber,
		From:        string(model.OrderStatusPlaced),
		To:          string(model.OrderStatusProcessing),
		ActorUserID: userID,
		ChangedAt:   time.Now(),
	})
	if user, err := u.users.FindByID(ctx, userID); err == nil && user != nil {
		u.notifier.OrderStatusUpdate(user.Email, confirmed, model.OrderStatusProcessing)
	}
	return out, nil
}

type DeliveryConfirmInput struct {
	OrderID             int64
	PaymentCollected    bool
	CollectionAmount    int64
	DeliveryPersonName  string
	DeliveryPersonPhone string
	DeliveryNotes       string
}

type DeliveryConfirmOutput struct {
	OrderID              int64  `json:"order_id"`
	OrderNumber          string `json:"order_number"`
	OrderStatus          string `json:"order_status"`
	PaymentStatus        string `json:"payment_status"`
	CODStatus            string `json:"cod_status"`
	DeliveryAttemptCount int64  `json:"delivery_attempt_count"`
	CollectionAmount     *int64 `json:"collection_amount,omitempty"`
}

//回収金額は端数で揉めないよう±1ルピーまで許容
const codCollectionTolerance = 1

// DeliveryConfirm は配達員の持ち帰った結果を反映する（管理者専用）。
// 回収できたら注文をdeliveredへ、できなければ試行回数だけ積む
func (u *CODUsecase) DeliveryConfirm(ctx context.Context, adminUserID int64, in DeliveryConfirmInput) (DeliveryConfirmOutput, error) {
	if adminUserID <= 0 {
		return DeliveryConfirmOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.OrderID <= 0 {
		return DeliveryConfirmOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid order_id")
	}
	if strings.TrimSpace(in.DeliveryPersonName) == "" {
		return DeliveryConfirmOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "delivery_person_name is required")
	}
	if in.PaymentCollected && in.CollectionAmount <= 0 {
		return DeliveryConfirmOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid collection_amount")
	}

	var out DeliveryConfirmOutput
	var res transitionResult

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return errInternal()
		}
		if o.PaymentMethod != model.PaymentMethodCOD {
			return NewHTTPError(http.StatusBadRequest, CodeValidationError, "not a cash on delivery order")
		}
		if o.Status != model.OrderStatusShipped && o.Status != model.OrderStatusOutForDelivery {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidStatusTransition,
				fmt.Sprintf("order is %s, delivery can be confirmed only for shipped or out_for_delivery", o.Status))
		}

		t, found, err := r.CODTracking().FindByOrderID(ctx, o.ID)
		if err != nil {
			return errInternal()
		}
		if !found {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "cod tracking not found")
		}

		now := time.Now()
		t.DeliveryPersonName = in.DeliveryPersonName
		t.DeliveryPersonPhone = in.DeliveryPersonPhone

		if !in.PaymentCollected {
			//持ち帰り。注文はそのまま、試行だけ記録する
			t.DeliveryAttemptCount++
			t.LastDeliveryAttempt = &now
			t.Status = model.CODStatusDeliveryAttempted
			if err := r.CODTracking().Update(ctx, t); err != nil {
				return errInternal()
			}

			note := fmt.Sprintf("cod delivery attempt %d by %s", t.DeliveryAttemptCount, in.DeliveryPersonName)
			if in.DeliveryNotes != "" {
				note += ": " + in.DeliveryNotes
			}
			if err := r.Orders().AppendNote(ctx, o.ID, note); err != nil {
				return errInternal()
			}

			out = DeliveryConfirmOutput{
				OrderID:              o.ID,
				OrderNumber:          o.OrderNumber,
				OrderStatus:          string(o.Status),
				PaymentStatus:        string(o.PaymentStatus),
				CODStatus:            string(t.Status),
				DeliveryAttemptCount: t.DeliveryAttemptCount,
			}
			return nil
		}

		diff := in.CollectionAmount - t.CODAmount
		if diff < -codCollectionTolerance || diff > codCollectionTolerance {
			return NewHTTPError(http.StatusBadRequest, CodeCollectionAmountMismatch,
				fmt.Sprintf("collected %d does not match cod amount %d", in.CollectionAmount, t.CODAmount))
		}

		prev := o.Status
		ok, err := r.Orders().UpdateStatusIf(ctx, o.ID, prev, model.OrderStatusDelivered)
		if err != nil {
			return errInternal()
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidStatusTransition, "order status changed concurrently")
		}
		if _, err := r.Orders().UpdatePaymentStatusIf(ctx, o.ID, model.OrderPaymentPending, model.OrderPaymentPaid); err != nil {
			return errInternal()
		}

		p, err := r.Payments().FindByOrderID(ctx, o.ID)
		if err != nil && err != repo.ErrNotFound {
			return errInternal()
		}
		if err == nil {
			if _, err := r.Payments().CompleteIfPending(ctx, p.ID, "", "", "COD-"+o.OrderNumber); err != nil {
				return errInternal()
			}
		}

		amount := in.CollectionAmount
		t.Status = model.CODStatusCollected
		t.CollectionAmount = &amount
		if err := r.CODTracking().Update(ctx, t); err != nil {
			return errInternal()
		}

		note := fmt.Sprintf("cod collected %d by %s", amount, in.DeliveryPersonName)
		if in.DeliveryNotes != "" {
			note += ": " + in.DeliveryNotes
		}
		if err := r.Orders().AppendNote(ctx, o.ID, note); err != nil {
			return errInternal()
		}
		if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
			OrderID:        o.ID,
			PreviousStatus: prev,
			NewStatus:      model.OrderStatusDelivered,
			ActorUserID:    adminUserID,
			Notes:          note,
			CreatedAt:      now,
		}); err != nil {
			return errInternal()
		}

		o.Status = model.OrderStatusDelivered
		o.PaymentStatus = model.OrderPaymentPaid
		res = transitionResult{order: o, prev: prev, codSettled: true}
		out = DeliveryConfirmOutput{
			OrderID:              o.ID,
			OrderNumber:          o.OrderNumber,
			OrderStatus:          string(o.Status),
			PaymentStatus:        string(o.PaymentStatus),
			CODStatus:            string(t.Status),
			DeliveryAttemptCount: t.DeliveryAttemptCount,
			CollectionAmount:     &amount,
		}
		return nil
	})
	if err != nil {
		return DeliveryConfirmOutput{}, err
	}

	if res.codSettled {
		u.events.Publish(event.TopicOrderStatusChanged, res.order.OrderNumber, event.OrderStatusChanged{
			OrderID:     res.order.ID,
			OrderNumber: res.order.OrderNumber,
			From:        string(res.prev),
			To:          string(res.order.Status),
			ActorUserID: adminUserID,
			ChangedAt:   time.Now(),
		})
		u.events.Publish(event.TopicPaymentSettled, res.order.OrderNumber, event.PaymentSettled{
			OrderID:       res.order.ID,
			OrderNumber:   res.order.OrderNumber,
			Amount:        res.order.TotalAmount,
			Method:        string(res.order.PaymentMethod),
			TransactionID: "COD-" + res.order.OrderNumber,
			SettledAt:     time.Now(),
		})
		if owner, err := u.users.FindByID(ctx, res.order.UserID); err == nil && owner != nil {
			u.notifier.PaymentReceipt(owner.Email, res.order, "COD-"+res.order.OrderNumber)
		}
	}
	return out, nil
}
