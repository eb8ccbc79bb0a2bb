package model

import "time"

// 在庫台帳の増減履歴。注文確定で−、キャンセル戻しで＋の行を残す。

type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	ActorUserID int64     `gorm:"not null;index" json:"actor_user_id"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
