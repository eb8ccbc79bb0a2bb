package repository

import (
	"context"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"

	"gorm.io/gorm"
)

type orderStatusHistoryGormRepository struct {
	db *gorm.DB
}

func NewOrderStatusHistoryGormRepository(db *gorm.DB) repo.OrderStatusHistoryRepository {
	return &orderStatusHistoryGormRepository{db: db}
}

func (r *orderStatusHistoryGormRepository) Create(ctx context.Context, h model.OrderStatusHistory) error {
	if err := r.db.WithContext(ctx).Create(&h).Error; err != nil {
		return err
	}
	return nil
}

// 古い順（遷移の流れをそのまま読めるように）
func (r *orderStatusHistoryGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error) {
	var list []model.OrderStatusHistory
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
