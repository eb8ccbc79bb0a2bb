package usecase

// PricingConfig は金額計算の設定。全部整数ルピー。
type PricingConfig struct {
	ShippingFee      int64
	FreeShippingOver int64
	TaxRatePercent   int64
}

// Shipping は送料。しきい値以上のsubtotalは送料無料
func (p PricingConfig) Shipping(subtotal int64) int64 {
	if subtotal >= p.FreeShippingOver {
		return 0
	}
	return p.ShippingFee
}

// Tax は税額。課税対象は subtotal - discount + shipping
func (p PricingConfig) Tax(taxable int64) int64 {
	if taxable < 0 {
		return 0
	}
	return taxable * p.TaxRatePercent / 100
}
