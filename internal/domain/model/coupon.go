package model

import (
	"errors"
	"time"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// クーポン検証の失敗理由。usecase側でエラー種別に変換する。
var (
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponNotYetValid = errors.New("coupon is not valid yet")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponLimitUsedUp = errors.New("coupon usage limit reached")
	ErrCouponMinAmount   = errors.New("order amount below coupon minimum")
)

type Coupon struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Code         string       `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountType DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`

	//percentageなら割引率（%）、fixedなら割引額（ルピー）
	DiscountValue int64 `gorm:"not null" json:"discount_value"`

	//適用できる最低注文額（subtotal基準）
	MinimumAmount int64 `gorm:"not null;default:0" json:"minimum_amount"`

	//percentage割引の上限額。nilなら上限なし
	MaximumDiscount *int64 `gorm:"" json:"maximum_discount,omitempty"`

	//使用回数上限。nilなら無制限
	UsageLimit *int64 `gorm:"" json:"usage_limit,omitempty"`
	UsedCount  int64  `gorm:"not null;default:0" json:"used_count"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	//有効期間。nilは制限なし扱い
	ValidFrom  *time.Time `gorm:"" json:"valid_from,omitempty"`
	ValidUntil *time.Time `gorm:"" json:"valid_until,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// CanApply は適用可否だけを判定する。used_countの加算は
// 注文トランザクション側の仕事（失敗した注文で二重カウントしないため）。
func (c Coupon) CanApply(subtotal int64, now time.Time) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return ErrCouponNotYetValid
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrCouponLimitUsedUp
	}
	if subtotal < c.MinimumAmount {
		return ErrCouponMinAmount
	}
	return nil
}

// Discount は割引額を計算する。割引がsubtotalを超えることはない。
func (c Coupon) Discount(subtotal int64) int64 {
	var d int64
	switch c.DiscountType {
	case DiscountTypePercentage:
		d = subtotal * c.DiscountValue / 100
		if c.MaximumDiscount != nil && d > *c.MaximumDiscount {
			d = *c.MaximumDiscount
		}
	case DiscountTypeFixed:
		d = c.DiscountValue
	}
	if d > subtotal {
		d = subtotal
	}
	if d < 0 {
		d = 0
	}
	return d
}
