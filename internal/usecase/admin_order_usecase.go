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

type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	users    repo.UserRepository
	events   event.Publisher
	notifier notification.Notifier
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	events event.Publisher,
	notifier notification.Notifier,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, users: users, events: events, notifier: notifier}
}

type AdminUpdateOrderStatusInput struct {
	Status string
	Notes  string
}

type AdminBulkUpdateStatusInput struct {
	OrderIDs []int64
	Status   string
	Notes    string
}

type OrderStatsOutput struct {
	TotalOrders   int64            `json:"total_orders"`
	TotalRevenue  int64            `json:"total_revenue"`
	CountByStatus map[string]int64 `json:"count_by_status"`
}

type AdminOrderListOutput struct {
	Orders []OrderOutput    `json:"orders"`
	Total  int64            `json:"total"`
	Page   int              `json:"page"`
	Limit  int              `json:"limit"`
	Stats  OrderStatsOutput `json:"stats"`
}

// 一括更新の注文ごとの結果。1件の失敗で全体を止めない
type BulkStatusResult struct {
	OrderID int64     `json:"order_id"`
	OK      bool      `json:"ok"`
	Code    ErrorCode `json:"code,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// 注文一覧＋集計
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid limit")
	}
	if f.Status != "" {
		if _, ok := model.ParseOrderStatus(f.Status); !ok {
			return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid status filter")
		}
	}

	var out AdminOrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return errInternal()
		}

		stats, err := r.Orders().Stats(ctx, f)
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

		byStatus := make(map[string]int64, len(stats.CountByStatus))
		for st, n := range stats.CountByStatus {
			byStatus[string(st)] = n
		}

		out = AdminOrderListOutput{
			Orders: outs,
			Total:  total,
			Page:   f.Page,
			Limit:  f.Limit,
			Stats: OrderStatsOutput{
				TotalOrders:   stats.TotalOrders,
				TotalRevenue:  stats.TotalRevenue,
				CountByStatus: byStatus,
			},
		}
		return nil
	})

	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

// 遷移1件の適用結果。コミット後の通知とイベントに使う
type transitionResult struct {
	order      model.Order
	prev       model.OrderStatus
	codSettled bool
}

// ステータス遷移の本体。単発・一括の両方から呼ばれる。
// 先に条件付きUPDATEで遷移を確定し、副作用（在庫戻し・返金マーク等）を
// 後に置く。業務的な失敗は副作用の前で出切るので、一括時に
// 「失敗した注文の副作用だけ残る」ことがない
func (u *AdminOrderUsecase) applyTransition(ctx context.Context, r repo.TxRepos, orderID int64, target model.OrderStatus, actorID int64, notes string) (transitionResult, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return transitionResult{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
	}
	if err != nil {
		return transitionResult{}, errInternal()
	}

	//遷移表にないペアは全部不正。同じ値への「遷移」も不正
	if target == o.Status || !o.Status.CanTransitionTo(target) {
		return transitionResult{}, NewHTTPError(
			http.StatusBadRequest,
			CodeInvalidStatusTransition,
			fmt.Sprintf("cannot transition from %s to %s (allowed: %s)", o.Status, target, joinStatuses(model.NextStatuses(o.Status))),
		)
	}

	//現在値が変わっていたら負け（他の管理者かwebhookが先に動かした）
	ok, err := r.Orders().UpdateStatusIf(ctx, orderID, o.Status, target)
	if err != nil {
		return transitionResult{}, errInternal()
	}
	if !ok {
		return transitionResult{}, NewHTTPError(http.StatusBadRequest, CodeInvalidStatusTransition, "order status changed concurrently")
	}

	res := transitionResult{order: o, prev: o.Status}
	res.order.Status = target
	now := time.Now()

	//キャンセル: 在庫を戻し、未入金の決済は返金マークで締める
	if target == model.OrderStatusCancelled {
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return transitionResult{}, errInternal()
		}
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return transitionResult{}, errInternal()
			}
			adj := model.InventoryAdjustment{
				ProductID:   it.ProductID,
				ActorUserID: actorID,
				Delta:       it.Quantity,
				Reason:      "cancel order " + o.OrderNumber,
				CreatedAt:   now,
			}
			if err := r.Inventory().CreateAdjustment(ctx, adj); err != nil {
				return transitionResult{}, errInternal()
			}
		}

		if _, err := r.Orders().MarkPaymentRefundedUnlessPaid(ctx, orderID); err != nil {
			return transitionResult{}, errInternal()
		}
		if _, err := r.Payments().RefundIfNotCompleted(ctx, orderID); err != nil {
			return transitionResult{}, errInternal()
		}
		if o.PaymentStatus == model.OrderPaymentPending || o.PaymentStatus == model.OrderPaymentFailed {
			res.order.PaymentStatus = model.OrderPaymentRefunded
		}
	}

	//配達完了したCODは回収済み扱いで入金を立てる
	if target == model.OrderStatusDelivered && o.PaymentMethod == model.PaymentMethodCOD {
		settled, err := r.Orders().UpdatePaymentStatusIf(ctx, orderID, model.OrderPaymentPending, model.OrderPaymentPaid)
		if err != nil {
			return transitionResult{}, errInternal()
		}
		if settled {
			p, err := r.Payments().FindByOrderID(ctx, orderID)
			if err != nil && err != repo.ErrNotFound {
				return transitionResult{}, errInternal()
			}
			if err == nil {
				if _, err := r.Payments().CompleteIfPending(ctx, p.ID, "", "", "COD-"+o.OrderNumber); err != nil {
					return transitionResult{}, errInternal()
				}
			}
			res.order.PaymentStatus = model.OrderPaymentPaid
			res.codSettled = true
		}
	}

	note := fmt.Sprintf("status %s -> %s by user %d", o.Status, target, actorID)
	if n := strings.TrimSpace(notes); n != "" {
		note += ": " + n
	}
	if err := r.Orders().AppendNote(ctx, orderID, note); err != nil {
		return transitionResult{}, errInternal()
	}

	if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
		OrderID:        orderID,
		PreviousStatus: o.Status,
		NewStatus:      target,
		ActorUserID:    actorID,
		Notes:          strings.TrimSpace(notes),
		CreatedAt:      now,
	}); err != nil {
		return transitionResult{}, errInternal()
	}

	return res, nil
}

// ステータス更新（1件）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid id")
	}
	target, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid status")
	}

	var res transitionResult
	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		res, err = u.applyTransition(ctx, r, orderID, target, actorID, in.Notes)
		if err != nil {
			return err
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errInternal()
		}
		out = toOrderOutput(res.order, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.publishTransition(ctx, res, actorID)
	return out, nil
}

// ステータス一括更新。1つの周回トランザクションの中で1件ずつ適用し、
// 結果は注文ごとに返す。DB障害だけは全体を巻き戻す
func (u *AdminOrderUsecase) BulkUpdateStatus(ctx context.Context, actorID int64, in AdminBulkUpdateStatusInput) ([]BulkStatusResult, error) {
	if actorID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if len(in.OrderIDs) == 0 {
		return nil, NewHTTPError(http.StatusBadRequest, CodeValidationError, "order_ids must not be empty")
	}
	if len(in.OrderIDs) > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, CodeValidationError, "too many order_ids")
	}
	target, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return nil, NewHTTPError(http.StatusBadRequest, CodeValidationError, "invalid status")
	}

	results := make([]BulkStatusResult, 0, len(in.OrderIDs))
	applied := make([]transitionResult, 0, len(in.OrderIDs))

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for _, id := range in.OrderIDs {
			res, err := u.applyTransition(ctx, r, id, target, actorID, in.Notes)
			if err != nil {
				he, ok := AsHTTPError(err)
				if !ok || he.Status == http.StatusInternalServerError {
					//DB障害。この一括更新は全部なかったことにする
					return err
				}
				results = append(results, BulkStatusResult{OrderID: id, OK: false, Code: he.Code, Error: he.Message})
				continue
			}
			applied = append(applied, res)
			results = append(results, BulkStatusResult{OrderID: id, OK: true})
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	for _, res := range applied {
		u.publishTransition(ctx, res, actorID)
	}
	return results, nil
}

// コミット後のイベント発行とメール通知
func (u *AdminOrderUsecase) publishTransition(ctx context.Context, res transitionResult, actorID int64) {
	u.events.Publish(event.TopicOrderStatusChanged, res.order.OrderNumber, event.OrderStatusChanged{
		OrderID:     res.order.ID,
		OrderNumber: res.order.OrderNumber,
		From:        string(res.prev),
		To:          string(res.order.Status),
		ActorUserID: actorID,
		ChangedAt:   time.Now(),
	})
	if res.codSettled {
		u.events.Publish(event.TopicPaymentSettled, res.order.OrderNumber, event.PaymentSettled{
			OrderID:       res.order.ID,
			OrderNumber:   res.order.OrderNumber,
			Amount:        res.order.TotalAmount,
			Method:        string(res.order.PaymentMethod),
			TransactionID: "COD-" + res.order.OrderNumber,
			SettledAt:     time.Now(),
		})
	}

	if user, err := u.users.FindByID(ctx, res.order.UserID); err == nil && user != nil {
		u.notifier.OrderStatusUpdate(user.Email, res.order, res.order.Status)
	}
}

func joinStatuses(statuses []model.OrderStatus) string {
	if len(statuses) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}
