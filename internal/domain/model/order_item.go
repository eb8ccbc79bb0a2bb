package model

import "time"

// 注文明細。単価・合計は注文時点でスナップショットして以後不変。
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	TotalPrice          int64     `gorm:"not null" json:"total_price"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// Subtotal は明細合計（= Σ total_price）を返す
func Subtotal(items []OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.TotalPrice
	}
	return sum
}
