package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/event"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/gateway"
)

const (
	testGatewayKeyID  = "key_test"
	testGatewaySecret = "verify_secret"
)

func newPaymentUsecaseForTest(m *usecaseMocks, gw *gatewayClientMock) *PaymentUsecase {
	return NewPaymentUsecase(m.tx, gw, m.users, m.events, m.notifier, testGatewayKeyID, testGatewaySecret)
}

func gatewayOrderFixture() model.Order {
	return model.Order{
		ID: 42, OrderNumber: "RC-20260825-AB12CD", UserID: 7,
		Status:        model.OrderStatusPlaced,
		PaymentMethod: model.PaymentMethodGateway,
		PaymentStatus: model.OrderPaymentPending,
		TotalAmount:   1416,
	}
}

// 申告額が注文合計とズレていたらゲートウェイには触らない
func TestPaymentUsecase_CreateGatewayOrder_AmountMismatch(t *testing.T) {
	m := newUsecaseMocks()
	gw := new(gatewayClientMock)
	uc := newPaymentUsecaseForTest(m, gw)

	m.orders.On("FindByID", mock.Anything, int64(42)).Return(gatewayOrderFixture(), nil)

	_, err := uc.CreateGatewayOrder(context.Background(), 7, CreateGatewayOrderInput{
		OrderID: 42, Amount: 1400,
	})

	assertCode(t, err, CodeAmountMismatch)
	gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	m.payments.AssertNotCalled(t, "SetGatewayOrderID", mock.Anything, mock.Anything, mock.Anything)
}

// intent作成。金額はルピー→パイサ（×100）でゲートウェイに渡る
func TestPaymentUsecase_CreateGatewayOrder_Success(t *testing.T) {
	m := newUsecaseMocks()
	gw := new(gatewayClientMock)
	uc := newPaymentUsecaseForTest(m, gw)

	m.orders.On("FindByID", mock.Anything, int64(42)).Return(gatewayOrderFixture(), nil)
	m.payments.On("FindByOrderID", mock.Anything, int64(42)).Return(model.Payment{ID: 9, OrderID: 42}, nil)
	gw.On("CreateOrder", mock.Anything, mock.MatchedBy(func(p gateway.CreateOrderParams) bool {
		return p.AmountPaise == 141600 && p.Currency == "INR" && p.Receipt == "RC-20260825-AB12CD"
	})).Return(gateway.GatewayOrder{
		ID: "order_G123", AmountPaise: 141600, Currency: "INR", Status: "created",
	}, nil)
	m.payments.On("SetGatewayOrderID", mock.Anything, int64(9), "order_G123").Return(nil)

	out, err := uc.CreateGatewayOrder(context.Background(), 7, CreateGatewayOrderInput{
		OrderID: 42, Amount: 1416,
	})

	assert.NoError(t, err)
	assert.Equal(t, "order_G123", out.GatewayOrderID)
	assert.Equal(t, int64(141600), out.AmountPaise)
	assert.Equal(t, testGatewayKeyID, out.GatewayKeyID)
	gw.AssertExpectations(t)
	m.payments.AssertExpectations(t)
}

// CODの注文にはintentを作らせない
func TestPaymentUsecase_CreateGatewayOrder_CODOrderRejected(t *testing.T) {
	m := newUsecaseMocks()
	gw := new(gatewayClientMock)
	uc := newPaymentUsecaseForTest(m, gw)

	o := gatewayOrderFixture()
	o.PaymentMethod = model.PaymentMethodCOD
	m.orders.On("FindByID", mock.Anything, int64(42)).Return(o, nil)

	_, err := uc.CreateGatewayOrder(context.Background(), 7, CreateGatewayOrderInput{
		OrderID: 42, Amount: 1416,
	})

	assertCode(t, err, CodeValidationError)
	gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

// 署名不一致は決済をfailedに倒して拒否
func TestPaymentUsecase_VerifyGatewayPayment_BadSignature(t *testing.T) {
	m := newUsecaseMocks()
	gw := new(gatewayClientMock)
	uc := newPaymentUsecaseForTest(m, gw)

	m.payments.On("FindByGatewayOrderID", mock.Anything, "order_G123").Return(model.Payment{ID: 9, OrderID: 42}, true, nil)
	m.orders.On("FindByID", mock.Anything, int64(42)).Return(gatewayOrderFixture(), nil)
	m.payments.On("FailIfPending", mock.Anything, int64(9), "pay_P456").Return(true, nil)
	m.orders.On("UpdatePaymentStatusIf", mock.Anything, int64(42), model.OrderPaymentPending, model.OrderPaymentFailed).Return(true, nil)
	m.orders.On("AppendNote", mock.Anything, int64(42), mock.Anything).Return(nil)

	_, err := uc.VerifyGatewayPayment(context.Background(), 7, VerifyGatewayPaymentInput{
		GatewayOrderID:   "order_G123",
		GatewayPaymentID: "pay_P456",
		Signature:        "deadbeef",
	})

	assertCode(t, err, CodeSignatureVerificationFailed)
	m.payments.AssertNotCalled(t, "CompleteIfPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, m.events.topics)
	assert.Equal(t, 0, m.notifier.receipts)
}

// 正しい署名なら決済を確定し、注文もplaced→processingへ進む
func TestPaymentUsecase_VerifyGatewayPayment_Settles(t *testing.T) {
	m := newUsecaseMocks()
	gw := new(gatewayClientMock)
	uc := newPaymentUsecaseForTest(m, gw)

	sig := gateway.ComputeSignature(testGatewaySecret, "order_G123", "pay_P456")

	m.payments.On("FindByGatewayOrderID", mock.Anything, "order_G123").Return(model.Payment{ID: 9, OrderID: 42}, true, nil)
	m.orders.On("FindByID", mock.Anything, int64(42)).Return(gatewayOrderFixture(), nil)
	m.payments.On("CompleteIfPending", mock.Anything, int64(9), "pay_P456", sig, "pay_P456").Return(true, nil)
	m.orders.On("UpdatePaymentStatusIf", mock.Anything, int64(42), model.OrderPaymentPending, model.OrderPaymentPaid).Return(true, nil)
	m.orders.On("UpdateStatusIf", mock.Anything, int64(42), model.OrderStatusPlaced, model.OrderStatusProcessing).Return(true, nil)
	m.orders.On("AppendNote", mock.Anything, int64(42), mock.Anything).Return(nil)
	m.statusHistory.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.orderItems.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{}, nil)
	gw.On("FetchPayment", mock.Anything, "pay_P456").Return(gateway.GatewayPayment{
		ID: "pay_P456", Status: "captured", Method: "upi", AmountPaise: 141600,
	}, nil)
	m.users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, Email: "asha@example.com"}, nil)

	out, err := uc.VerifyGatewayPayment(context.Background(), 7, VerifyGatewayPaymentInput{
		GatewayOrderID:   "order_G123",
		GatewayPaymentID: "pay_P456",
		Signature:        sig,
	})

	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusProcessing), out.Order.Status)
	assert.Equal(t, string(model.OrderPaymentPaid), out.Order.PaymentStatus)
	if assert.NotNil(t, out.Gateway) {
		assert.Equal(t, "captured", out.Gateway.Status)
	}
	assert.Equal(t, []string{event.TopicPaymentSettled}, m.events.topics)
	assert.Equal(t, 1, m.notifier.receipts)
}

// webhookが先に確定していたら（CAS負け）静かに現在値を返す
func TestPaymentUsecase_VerifyGatewayPayment_AlreadySettledNoOp(t *testing.T) {
	m := newUsecaseMocks()
	gw := new(gatewayClientMock)
	uc := newPaymentUsecaseForTest(m, gw)

	sig := gateway.ComputeSignature(testGatewaySecret, "order_G123", "pay_P456")

	settled := gatewayOrderFixture()
	settled.Status = model.OrderStatusProcessing
	settled.PaymentStatus = model.OrderPaymentPaid

	m.payments.On("FindByGatewayOrderID", mock.Anything, "order_G123").Return(model.Payment{ID: 9, OrderID: 42}, true, nil)
	//1回目は検証用、2回目はCAS負け後の読み直し
	m.orders.On("FindByID", mock.Anything, int64(42)).Return(gatewayOrderFixture(), nil).Once()
	m.orders.On("FindByID", mock.Anything, int64(42)).Return(settled, nil).Once()
	m.payments.On("CompleteIfPending", mock.Anything, int64(9), "pay_P456", sig, "pay_P456").Return(false, nil)
	m.orderItems.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{}, nil)

	out, err := uc.VerifyGatewayPayment(context.Background(), 7, VerifyGatewayPaymentInput{
		GatewayOrderID:   "order_G123",
		GatewayPaymentID: "pay_P456",
		Signature:        sig,
	})

	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusProcessing), out.Order.Status)
	assert.Nil(t, out.Gateway)
	m.orders.AssertNotCalled(t, "UpdatePaymentStatusIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.statusHistory.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "FetchPayment", mock.Anything, mock.Anything)
	assert.Empty(t, m.events.topics)
	assert.Equal(t, 0, m.notifier.receipts)
}

// 他人の注文の決済状況は見えない
func TestPaymentUsecase_PaymentStatus_NotOwned(t *testing.T) {
	m := newUsecaseMocks()
	gw := new(gatewayClientMock)
	uc := newPaymentUsecaseForTest(m, gw)

	m.orders.On("FindByID", mock.Anything, int64(42)).Return(gatewayOrderFixture(), nil)

	_, err := uc.PaymentStatus(context.Background(), 99, false, 42)

	assertCode(t, err, CodeNotFound)
}

// 管理者はどの注文でも見られる。CODなら回収トラッキングも付く
func TestPaymentUsecase_PaymentStatus_AdminSeesCOD(t *testing.T) {
	m := newUsecaseMocks()
	gw := new(gatewayClientMock)
	uc := newPaymentUsecaseForTest(m, gw)

	o := gatewayOrderFixture()
	o.PaymentMethod = model.PaymentMethodCOD
	m.orders.On("FindByID", mock.Anything, int64(42)).Return(o, nil)
	m.payments.On("FindByOrderID", mock.Anything, int64(42)).Return(model.Payment{ID: 9, OrderID: 42}, nil)
	m.codTracking.On("FindByOrderID", mock.Anything, int64(42)).Return(model.CODTracking{
		OrderID: 42, Status: model.CODStatusConfirmed, CODAmount: 1416, DeliveryAttemptCount: 1,
	}, true, nil)

	out, err := uc.PaymentStatus(context.Background(), 1, true, 42)

	assert.NoError(t, err)
	assert.Equal(t, "RC-20260825-AB12CD", out.OrderNumber)
	if assert.NotNil(t, out.COD) {
		assert.Equal(t, string(model.CODStatusConfirmed), out.COD.Status)
		assert.Equal(t, int64(1416), out.COD.CODAmount)
		assert.Equal(t, int64(1), out.COD.DeliveryAttemptCount)
	}
}
