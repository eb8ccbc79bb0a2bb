package repository

import (
	"context"
	"errors"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"

	"gorm.io/gorm"
)

type couponGormRepository struct {
	db *gorm.DB
}

// DI
func NewCouponGormRepository(db *gorm.DB) repo.CouponRepository {
	return &couponGormRepository{db: db}
}

// コードでクーポンを1件取得。存在しないのはエラーではない
func (r *couponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, bool, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Coupon{}, false, nil
	}
	if err != nil {
		return model.Coupon{}, false, err
	}
	return c, true, nil
}

// 上限に達していない時だけ使用回数を+1する。
// 読んでから書くと最後の1枚を2注文が取り合えるので、1文のUPDATEで済ませる
func (r *couponGormRepository) IncrementUsageIfAvailable(ctx context.Context, couponID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		Update("used_count", gorm.Expr("used_count + ?", 1))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
