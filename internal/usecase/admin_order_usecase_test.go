package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/event"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
)

func newAdminOrderUsecaseForTest(m *usecaseMocks) *AdminOrderUsecase {
	return NewAdminOrderUsecase(m.tx, m.users, m.events, m.notifier)
}

// キャンセルで在庫が戻り、未入金の決済は返金マークになる
func TestAdminOrderUsecase_UpdateStatus_CancelRestoresStock(t *testing.T) {
	m := newUsecaseMocks()
	uc := newAdminOrderUsecaseForTest(m)

	order := model.Order{
		ID: 42, OrderNumber: "RC-20260825-AB12CD", UserID: 7,
		Status:        model.OrderStatusProcessing,
		PaymentMethod: model.PaymentMethodGateway,
		PaymentStatus: model.OrderPaymentPending,
		TotalAmount:   1416,
	}
	items := []model.OrderItem{
		{ProductID: 1, ProductNameSnapshot: "Silk Saree", UnitPriceSnapshot: 600, Quantity: 2, TotalPrice: 1200},
	}

	m.orders.On("FindByID", mock.Anything, int64(42)).Return(order, nil)
	m.orders.On("UpdateStatusIf", mock.Anything, int64(42), model.OrderStatusProcessing, model.OrderStatusCancelled).Return(true, nil)
	m.orderItems.On("ListByOrderID", mock.Anything, int64(42)).Return(items, nil)
	m.inventory.On("IncreaseStock", mock.Anything, int64(1), int64(2)).Return(nil)
	m.inventory.On("CreateAdjustment", mock.Anything, mock.MatchedBy(func(a model.InventoryAdjustment) bool {
		return a.ProductID == 1 && a.Delta == 2
	})).Return(nil)
	m.orders.On("MarkPaymentRefundedUnlessPaid", mock.Anything, int64(42)).Return(true, nil)
	m.payments.On("RefundIfNotCompleted", mock.Anything, int64(42)).Return(true, nil)
	m.orders.On("AppendNote", mock.Anything, int64(42), mock.Anything).Return(nil)
	m.statusHistory.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, Email: "asha@example.com"}, nil)

	out, err := uc.UpdateStatus(context.Background(), 1, 42, AdminUpdateOrderStatusInput{Status: "cancelled"})

	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusCancelled), out.Status)
	assert.Equal(t, string(model.OrderPaymentRefunded), out.PaymentStatus)
	m.inventory.AssertExpectations(t)
	m.payments.AssertExpectations(t)
	assert.Equal(t, []string{event.TopicOrderStatusChanged}, m.events.topics)
	assert.Equal(t, 1, m.notifier.statusUpdates)
	assert.Equal(t, model.OrderStatusCancelled, m.notifier.lastTransition)
}

// 遷移表にないペアは拒否。UPDATEも走らない
func TestAdminOrderUsecase_UpdateStatus_IllegalTransition(t *testing.T) {
	m := newUsecaseMocks()
	uc := newAdminOrderUsecaseForTest(m)

	m.orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusDelivered,
	}, nil)

	_, err := uc.UpdateStatus(context.Background(), 1, 42, AdminUpdateOrderStatusInput{Status: "processing"})

	assertCode(t, err, CodeInvalidStatusTransition)
	he, _ := AsHTTPError(err)
	assert.Contains(t, he.Message, "allowed: none")
	m.orders.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, m.events.topics)
}

// 同じ値への「遷移」も不正
func TestAdminOrderUsecase_UpdateStatus_SameStatusRejected(t *testing.T) {
	m := newUsecaseMocks()
	uc := newAdminOrderUsecaseForTest(m)

	m.orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusPlaced,
	}, nil)

	_, err := uc.UpdateStatus(context.Background(), 1, 42, AdminUpdateOrderStatusInput{Status: "placed"})

	assertCode(t, err, CodeInvalidStatusTransition)
	m.orders.AssertNotCalled(t, "UpdateStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// CODの配達完了は決済もCOD-注文番号のトランザクションIDで締める
func TestAdminOrderUsecase_UpdateStatus_DeliveredCODSettles(t *testing.T) {
	m := newUsecaseMocks()
	uc := newAdminOrderUsecaseForTest(m)

	order := model.Order{
		ID: 42, OrderNumber: "RC-20260825-AB12CD", UserID: 7,
		Status:        model.OrderStatusShipped,
		PaymentMethod: model.PaymentMethodCOD,
		PaymentStatus: model.OrderPaymentPending,
		TotalAmount:   295,
	}

	m.orders.On("FindByID", mock.Anything, int64(42)).Return(order, nil)
	m.orders.On("UpdateStatusIf", mock.Anything, int64(42), model.OrderStatusShipped, model.OrderStatusDelivered).Return(true, nil)
	m.orders.On("UpdatePaymentStatusIf", mock.Anything, int64(42), model.OrderPaymentPending, model.OrderPaymentPaid).Return(true, nil)
	m.payments.On("FindByOrderID", mock.Anything, int64(42)).Return(model.Payment{ID: 9, OrderID: 42}, nil)
	m.payments.On("CompleteIfPending", mock.Anything, int64(9), "", "", "COD-RC-20260825-AB12CD").Return(true, nil)
	m.orders.On("AppendNote", mock.Anything, int64(42), mock.Anything).Return(nil)
	m.statusHistory.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.orderItems.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{}, nil)
	m.users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, Email: "asha@example.com"}, nil)

	out, err := uc.UpdateStatus(context.Background(), 1, 42, AdminUpdateOrderStatusInput{Status: "delivered"})

	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusDelivered), out.Status)
	assert.Equal(t, string(model.OrderPaymentPaid), out.PaymentStatus)
	m.payments.AssertExpectations(t)
	assert.Equal(t, []string{event.TopicOrderStatusChanged, event.TopicPaymentSettled}, m.events.topics)
}

// 条件付きUPDATEが負けたら（他が先に動かした）遷移エラー
func TestAdminOrderUsecase_UpdateStatus_ConcurrentChange(t *testing.T) {
	m := newUsecaseMocks()
	uc := newAdminOrderUsecaseForTest(m)

	m.orders.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID: 42, Status: model.OrderStatusPlaced,
	}, nil)
	m.orders.On("UpdateStatusIf", mock.Anything, int64(42), model.OrderStatusPlaced, model.OrderStatusProcessing).Return(false, nil)

	_, err := uc.UpdateStatus(context.Background(), 1, 42, AdminUpdateOrderStatusInput{Status: "processing"})

	assertCode(t, err, CodeInvalidStatusTransition)
	assert.Empty(t, m.events.topics)
}

// 一括更新は注文ごとの成否を返す。1件の業務エラーで全体は止まらない
func TestAdminOrderUsecase_BulkUpdateStatus_PartialResults(t *testing.T) {
	m := newUsecaseMocks()
	uc := newAdminOrderUsecaseForTest(m)

	m.orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
		ID: 1, OrderNumber: "RC-20260825-A00001", UserID: 7, Status: model.OrderStatusPlaced,
	}, nil)
	m.orders.On("UpdateStatusIf", mock.Anything, int64(1), model.OrderStatusPlaced, model.OrderStatusProcessing).Return(true, nil)
	m.orders.On("AppendNote", mock.Anything, int64(1), mock.Anything).Return(nil)
	m.statusHistory.On("Create", mock.Anything, mock.Anything).Return(nil)

	//2件目は配達済みなので遷移不可
	m.orders.On("FindByID", mock.Anything, int64(2)).Return(model.Order{
		ID: 2, OrderNumber: "RC-20260825-A00002", UserID: 8, Status: model.OrderStatusDelivered,
	}, nil)

	m.users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, Email: "asha@example.com"}, nil)

	results, err := uc.BulkUpdateStatus(context.Background(), 1, AdminBulkUpdateStatusInput{
		OrderIDs: []int64{1, 2},
		Status:   "processing",
	})

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, CodeInvalidStatusTransition, results[1].Code)
	//イベントは成功した1件分だけ
	assert.Equal(t, []string{event.TopicOrderStatusChanged}, m.events.topics)
}

func TestAdminOrderUsecase_BulkUpdateStatus_TooManyIDs(t *testing.T) {
	m := newUsecaseMocks()
	uc := newAdminOrderUsecaseForTest(m)

	ids := make([]int64, 101)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	_, err := uc.BulkUpdateStatus(context.Background(), 1, AdminBulkUpdateStatusInput{
		OrderIDs: ids,
		Status:   "processing",
	})

	assertCode(t, err, CodeValidationError)
}

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	m := newUsecaseMocks()
	uc := newAdminOrderUsecaseForTest(m)

	_, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 0, Limit: 50})

	assertCode(t, err, CodeValidationError)
	m.orders.AssertNotCalled(t, "ListAdmin", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_List_ReturnsStats(t *testing.T) {
	m := newUsecaseMocks()
	uc := newAdminOrderUsecaseForTest(m)

	f := repo.AdminOrderListFilter{Page: 1, Limit: 50}
	m.orders.On("ListAdmin", mock.Anything, f).Return([]model.Order{
		{ID: 1, OrderNumber: "RC-20260825-A00001", Status: model.OrderStatusPlaced, TotalAmount: 1416},
	}, int64(1), nil)
	m.orders.On("Stats", mock.Anything, f).Return(repo.OrderStats{
		TotalOrders:  1,
		TotalRevenue: 1416,
		CountByStatus: map[model.OrderStatus]int64{
			model.OrderStatusPlaced: 1,
		},
	}, nil)
	m.orderItems.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)

	out, err := uc.List(context.Background(), f)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, int64(1416), out.Stats.TotalRevenue)
	assert.Equal(t, int64(1), out.Stats.CountByStatus["placed"])
}
