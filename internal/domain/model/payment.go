package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// 注文と1:1の決済レコード。注文作成時にpendingで作り、
// ゲートウェイ検証・Webhook・COD回収のどれかが終端へ進める。
type Payment struct {
	ID      int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64         `gorm:"not null;uniqueIndex" json:"order_id"`
	Method  PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Status  PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Amount  int64         `gorm:"not null" json:"amount"`

	//ゲートウェイ側の相関ID
	GatewayOrderID   string `gorm:"type:varchar(100);index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string `gorm:"type:varchar(100);index" json:"gateway_payment_id,omitempty"`
	GatewaySignature string `gorm:"type:varchar(255)" json:"-"`
	TransactionID    string `gorm:"type:varchar(100)" json:"transaction_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
