package model

import "time"

type CODStatus string

const (
	CODStatusConfirmed         CODStatus = "confirmed"
	CODStatusDeliveryAttempted CODStatus = "delivery_attempted"
	CODStatusCollected         CODStatus = "collected"
)

// 代引き（COD）注文の回収トラッキング。注文と1:1。
type CODTracking struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;uniqueIndex" json:"order_id"`

	//確認時点の注文合計のコピー
	CODAmount int64 `gorm:"not null" json:"cod_amount"`

	DeliveryInstructions string    `gorm:"type:text" json:"delivery_instructions,omitempty"`
	Status               CODStatus `gorm:"type:varchar(30);not null" json:"status"`

	DeliveryAttemptCount int64      `gorm:"not null;default:0" json:"delivery_attempt_count"`
	LastDeliveryAttempt  *time.Time `gorm:"" json:"last_delivery_attempt,omitempty"`

	//回収できた時だけ入る。cod_amountと±1ルピーまで一致すること
	CollectionAmount *int64 `gorm:"" json:"collection_amount,omitempty"`

	DeliveryPersonName  string `gorm:"type:varchar(100)" json:"delivery_person_name,omitempty"`
	DeliveryPersonPhone string `gorm:"type:varchar(30)" json:"delivery_person_phone,omitempty"`

	//確認操作をしたユーザー
	ConfirmedByUserID int64 `gorm:"not null" json:"confirmed_by_user_id"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
