// Package event はコミット後のドメインイベント発行。
// 発行は投げっぱなしで、失敗しても元の取引には影響させない。
package event

import "time"

// トピック一覧
const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
	TopicPaymentSettled     = "payment.settled"
)

// OrderPlaced は注文確定イベント。
type OrderPlaced struct {
	OrderID       int64     `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	UserID        int64     `json:"user_id"`
	TotalAmount   int64     `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	PlacedAt      time.Time `json:"placed_at"`
}

// OrderStatusChanged はステータス遷移イベント。
type OrderStatusChanged struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ActorUserID int64     `json:"actor_user_id"`
	ChangedAt   time.Time `json:"changed_at"`
}

// PaymentSettled は決済確定イベント（ゲートウェイ/COD共通）。
type PaymentSettled struct {
	OrderID       int64     `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	Amount        int64     `json:"amount"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id"`
	SettledAt     time.Time `json:"settled_at"`
}

// Publisher はイベント送信の約束。キーは注文番号で、
// 同じ注文のイベントが同じパーティションに並ぶようにする。
type Publisher interface {
	Publish(topic string, key string, payload interface{})
	Close() error
}

// NopPublisher はブローカー未設定時のダミー。
type NopPublisher struct{}

func (NopPublisher) Publish(topic string, key string, payload interface{}) {}
func (NopPublisher) Close() error                                          { return nil }
