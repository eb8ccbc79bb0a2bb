package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/gateway"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// txManagerMock は固定のreposに対してfnをそのまま実行する。
// ロールバックの再現はしない（振る舞いの検証はmock側の期待で行う）
type txManagerMock struct {
	repos repo.TxRepos
}

func (m *txManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

type txReposMock struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	payments      repo.PaymentRepository
	coupons       repo.CouponRepository
	products      repo.ProductRepository
	inventory     repo.InventoryRepository
	codTracking   repo.CODTrackingRepository
	statusHistory repo.OrderStatusHistoryRepository
}

func (r *txReposMock) Orders() repo.OrderRepository                     { return r.orders }
func (r *txReposMock) OrderItems() repo.OrderItemRepository             { return r.orderItems }
func (r *txReposMock) Payments() repo.PaymentRepository                 { return r.payments }
func (r *txReposMock) Coupons() repo.CouponRepository                   { return r.coupons }
func (r *txReposMock) Products() repo.ProductRepository                 { return r.products }
func (r *txReposMock) Inventory() repo.InventoryRepository              { return r.inventory }
func (r *txReposMock) CODTracking() repo.CODTrackingRepository          { return r.codTracking }
func (r *txReposMock) StatusHistory() repo.OrderStatusHistoryRepository { return r.statusHistory }

// =====================
// Repository mocks
// =====================

type orderRepoMock struct{ mock.Mock }

func (m *orderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, bool, error) {
	panic("not used in usecase tests")
}

func (m *orderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *orderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *orderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *orderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *orderRepoMock) Stats(ctx context.Context, f repo.AdminOrderListFilter) (repo.OrderStats, error) {
	args := m.Called(ctx, f)
	s, _ := args.Get(0).(repo.OrderStats)
	return s, args.Error(1)
}

func (m *orderRepoMock) UpdateStatusIf(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *orderRepoMock) UpdatePaymentStatusIf(ctx context.Context, orderID int64, from, to model.OrderPaymentStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *orderRepoMock) MarkPaymentRefundedUnlessPaid(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *orderRepoMock) AppendNote(ctx context.Context, orderID int64, note string) error {
	args := m.Called(ctx, orderID, note)
	return args.Error(0)
}

type orderItemRepoMock struct{ mock.Mock }

func (m *orderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *orderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type paymentRepoMock struct{ mock.Mock }

func (m *paymentRepoMock) Create(ctx context.Context, p model.Payment) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *paymentRepoMock) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	args := m.Called(ctx, orderID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *paymentRepoMock) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Payment, bool, error) {
	args := m.Called(ctx, gatewayOrderID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Bool(1), args.Error(2)
}

func (m *paymentRepoMock) FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (model.Payment, bool, error) {
	args := m.Called(ctx, gatewayPaymentID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Bool(1), args.Error(2)
}

func (m *paymentRepoMock) SetGatewayOrderID(ctx context.Context, paymentID int64, gatewayOrderID string) error {
	args := m.Called(ctx, paymentID, gatewayOrderID)
	return args.Error(0)
}

func (m *paymentRepoMock) SetGatewayPaymentID(ctx context.Context, paymentID int64, gatewayPaymentID string) error {
	args := m.Called(ctx, paymentID, gatewayPaymentID)
	return args.Error(0)
}

func (m *paymentRepoMock) CompleteIfPending(ctx context.Context, paymentID int64, gatewayPaymentID, signature, transactionID string) (bool, error) {
	args := m.Called(ctx, paymentID, gatewayPaymentID, signature, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *paymentRepoMock) FailIfPending(ctx context.Context, paymentID int64, gatewayPaymentID string) (bool, error) {
	args := m.Called(ctx, paymentID, gatewayPaymentID)
	return args.Bool(0), args.Error(1)
}

func (m *paymentRepoMock) RefundIfNotCompleted(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

type couponRepoMock struct{ mock.Mock }

func (m *couponRepoMock) FindByCode(ctx context.Context, code string) (model.Coupon, bool, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(model.Coupon)
	return c, args.Bool(1), args.Error(2)
}

func (m *couponRepoMock) IncrementUsageIfAvailable(ctx context.Context, couponID int64) (bool, error) {
	args := m.Called(ctx, couponID)
	return args.Bool(0), args.Error(1)
}

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type inventoryRepoMock struct{ mock.Mock }

func (m *inventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *inventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *inventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type codTrackingRepoMock struct{ mock.Mock }

func (m *codTrackingRepoMock) Create(ctx context.Context, t model.CODTracking) (int64, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(int64), args.Error(1)
}

func (m *codTrackingRepoMock) FindByOrderID(ctx context.Context, orderID int64) (model.CODTracking, bool, error) {
	args := m.Called(ctx, orderID)
	t, _ := args.Get(0).(model.CODTracking)
	return t, args.Bool(1), args.Error(2)
}

func (m *codTrackingRepoMock) Update(ctx context.Context, t model.CODTracking) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

type statusHistoryRepoMock struct{ mock.Mock }

func (m *statusHistoryRepoMock) Create(ctx context.Context, h model.OrderStatusHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *statusHistoryRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error) {
	panic("not used in usecase tests")
}

type addressRepoMock struct{ mock.Mock }

func (m *addressRepoMock) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

type userRepoMock struct{ mock.Mock }

func (m *userRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

// =====================
// Gateway / event / notification stubs
// =====================

type gatewayClientMock struct{ mock.Mock }

func (m *gatewayClientMock) CreateOrder(ctx context.Context, p gateway.CreateOrderParams) (gateway.GatewayOrder, error) {
	args := m.Called(ctx, p)
	o, _ := args.Get(0).(gateway.GatewayOrder)
	return o, args.Error(1)
}

func (m *gatewayClientMock) FetchPayment(ctx context.Context, paymentID string) (gateway.GatewayPayment, error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(gateway.GatewayPayment)
	return p, args.Error(1)
}

// publisherRecorder は発行されたtopicを記録するだけ
type publisherRecorder struct {
	topics []string
}

func (p *publisherRecorder) Publish(topic string, key string, payload interface{}) {
	p.topics = append(p.topics, topic)
}
func (p *publisherRecorder) Close() error { return nil }

// notifierRecorder は通知が飛んだ回数だけ数える
type notifierRecorder struct {
	confirmations  int
	statusUpdates  int
	receipts       int
	lastRecipient  string
	lastTransition model.OrderStatus
}

func (n *notifierRecorder) OrderConfirmation(to string, order model.Order) {
	n.confirmations++
	n.lastRecipient = to
}

func (n *notifierRecorder) OrderStatusUpdate(to string, order model.Order, newStatus model.OrderStatus) {
	n.statusUpdates++
	n.lastRecipient = to
	n.lastTransition = newStatus
}

func (n *notifierRecorder) PaymentReceipt(to string, order model.Order, transactionID string) {
	n.receipts++
	n.lastRecipient = to
}

// =====================
// Helpers
// =====================

func assertCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	he, ok := AsHTTPError(err)
	if assert.True(t, ok, "want HTTPError, got %v", err) {
		assert.Equal(t, code, he.Code)
	}
}

// テストで毎回組み立てる束をまとめる
type usecaseMocks struct {
	orders        *orderRepoMock
	orderItems    *orderItemRepoMock
	payments      *paymentRepoMock
	coupons       *couponRepoMock
	products      *productRepoMock
	inventory     *inventoryRepoMock
	codTracking   *codTrackingRepoMock
	statusHistory *statusHistoryRepoMock
	addresses     *addressRepoMock
	users         *userRepoMock
	events        *publisherRecorder
	notifier      *notifierRecorder
	tx            *txManagerMock
}

func newUsecaseMocks() *usecaseMocks {
	m := &usecaseMocks{
		orders:        new(orderRepoMock),
		orderItems:    new(orderItemRepoMock),
		payments:      new(paymentRepoMock),
		coupons:       new(couponRepoMock),
		products:      new(productRepoMock),
		inventory:     new(inventoryRepoMock),
		codTracking:   new(codTrackingRepoMock),
		statusHistory: new(statusHistoryRepoMock),
		addresses:     new(addressRepoMock),
		users:         new(userRepoMock),
		events:        &publisherRecorder{},
		notifier:      &notifierRecorder{},
	}
	m.tx = &txManagerMock{repos: &txReposMock{
		orders:        m.orders,
		orderItems:    m.orderItems,
		payments:      m.payments,
		coupons:       m.coupons,
		products:      m.products,
		inventory:     m.inventory,
		codTracking:   m.codTracking,
		statusHistory: m.statusHistory,
	}}
	return m
}
