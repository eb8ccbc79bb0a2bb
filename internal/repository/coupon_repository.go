package repository

import (
	"context"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (model.Coupon, bool, error)

	//上限に達していない時だけused_countを+1する。
	//falseなら他の注文が先に最後の1枚を使った
	IncrementUsageIfAvailable(ctx context.Context, couponID int64) (bool, error)
}
