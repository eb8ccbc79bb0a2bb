package model

import (
	"time"

	"gorm.io/gorm"
)

// 商品マスタはカタログ側が持ち主。この系では読み取り専用で、
// 唯一更新するのはstock（在庫台帳経由）だけ。
type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	Stock       int64          `gorm:"not null" json:"stock"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
