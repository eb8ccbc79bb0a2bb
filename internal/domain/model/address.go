package model

import "time"

// 配送先住所。住所管理APIが持ち主で、ここでは注文作成時に
// 所有チェックとCOD対象地域の判定に読むだけ。
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//郵便番号（PIN）
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`

	//州。COD地域判定はこの値で行う
	State string `gorm:"type:varchar(100);not null" json:"state"`

	City  string `gorm:"type:varchar(255);not null" json:"city"`
	Line1 string `gorm:"type:varchar(255);not null" json:"line1"`
	Line2 string `gorm:"type:varchar(255)" json:"line2"`

	//宛名
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	Phone string `gorm:"type:varchar(30)" json:"phone"`

	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
