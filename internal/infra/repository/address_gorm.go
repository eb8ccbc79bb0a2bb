package repository

import (
	"context"
	"errors"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"

	"gorm.io/gorm"
)

type addressGormRepository struct {
	db *gorm.DB
}

// DI
func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

// 住所IDで1件取得
func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).First(&a, addressID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Address{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Address{}, err
	}
	return a, nil
}
