package model

import "time"

type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodGateway PaymentMethod = "gateway"
	PaymentMethodCOD     PaymentMethod = "cod"
)

// 注文側のpayment_status（Payment行のステータスとは別に注文にも持つ）
type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "pending"
	OrderPaymentPaid     OrderPaymentStatus = "paid"
	OrderPaymentFailed   OrderPaymentStatus = "failed"
	OrderPaymentRefunded OrderPaymentStatus = "refunded"
)

// 注文ステータスの遷移表。ここに無いペアは全部不正。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPlaced:         {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusOutForDelivery, OrderStatusDelivered},
	OrderStatusOutForDelivery: {OrderStatusDelivered},

	//delivered / cancelled は終端
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// 文字列をOrderStatusへ（未知の値はfalse）
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := orderTransitions[st]
	return st, ok
}

// 現在ステータスから遷移できる一覧
func NextStatuses(s OrderStatus) []OrderStatus {
	next, ok := orderTransitions[s]
	if !ok {
		return []OrderStatus{}
	}
	return next
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == target {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentMethodGateway:
		return PaymentMethodGateway, true
	case PaymentMethodCOD:
		return PaymentMethodCOD, true
	default:
		return "", false
	}
}

// 金額は全部ルピー整数（int64）。ゲートウェイへ渡す時だけpaisaに変換する。
// subtotalはOrderItemから導出するので列には持たない。
type Order struct {
	ID             int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber    string             `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	UserID         int64              `gorm:"not null;index;uniqueIndex:idx_orders_user_idem" json:"user_id"`
	AddressID      int64              `gorm:"not null" json:"address_id"`
	Status         OrderStatus        `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod  PaymentMethod      `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus  OrderPaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	DiscountAmount int64              `gorm:"not null;default:0" json:"discount_amount"`
	ShippingAmount int64              `gorm:"not null;default:0" json:"shipping_amount"`
	TaxAmount      int64              `gorm:"not null;default:0" json:"tax_amount"`
	TotalAmount    int64              `gorm:"not null" json:"total_amount"`
	CouponCode     *string            `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`

	//追記専用の監査メモ（遷移ごとに1行ずつ足す。上書きしない）
	Notes string `gorm:"type:text;not null;default:''" json:"notes"`

	//クライアント再送対策。未指定ならNULL（NULL同士は衝突しない）
	IdempotencyKey *string   `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idem" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
