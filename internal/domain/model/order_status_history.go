package model

import "time"

// 注文ステータス遷移の履歴（追記専用）。
// 「誰が」「どの注文を」「どこからどこへ」動かしたかを残す。
// 現在ステータスの導出には使わない。監査用。
type OrderStatusHistory struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	//作成直後の初回行だけ空文字
	PreviousStatus OrderStatus `gorm:"type:varchar(20);not null;default:''" json:"previous_status"`
	NewStatus      OrderStatus `gorm:"type:varchar(20);not null" json:"new_status"`

	//操作したユーザー（本人・管理者・webhook経由ならシステム=0）
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
