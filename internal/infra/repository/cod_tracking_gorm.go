package repository

import (
	"context"
	"errors"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"

	"gorm.io/gorm"
)

type codTrackingGormRepository struct {
	db *gorm.DB
}

// DI
func NewCODTrackingGormRepository(db *gorm.DB) repo.CODTrackingRepository {
	return &codTrackingGormRepository{db: db}
}

func (r *codTrackingGormRepository) Create(ctx context.Context, t model.CODTracking) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return 0, err
	}
	return t.ID, nil
}

func (r *codTrackingGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.CODTracking, bool, error) {
	var t model.CODTracking
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CODTracking{}, false, nil
	}
	if err != nil {
		return model.CODTracking{}, false, err
	}
	return t, true, nil
}

// 配達試行・回収の結果を行ごと保存
func (r *codTrackingGormRepository) Update(ctx context.Context, t model.CODTracking) error {
	res := r.db.WithContext(ctx).
		Model(&model.CODTracking{}).
		Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"status":                 t.Status,
			"delivery_attempt_count": t.DeliveryAttemptCount,
			"last_delivery_attempt":  t.LastDeliveryAttempt,
			"collection_amount":      t.CollectionAmount,
			"delivery_person_name":   t.DeliveryPersonName,
			"delivery_person_phone":  t.DeliveryPersonPhone,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
