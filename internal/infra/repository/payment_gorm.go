package repository

import (
	"context"
	"errors"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"

	"gorm.io/gorm"
)

type paymentGormRepository struct {
	db *gorm.DB
}

// DI
func NewPaymentGormRepository(db *gorm.DB) repo.PaymentRepository {
	return &paymentGormRepository{db: db}
}

func (r *paymentGormRepository) Create(ctx context.Context, p model.Payment) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (r *paymentGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

func (r *paymentGormRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Payment, bool, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, false, nil
	}
	if err != nil {
		return model.Payment{}, false, err
	}
	return p, true, nil
}

func (r *paymentGormRepository) FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (model.Payment, bool, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("gateway_payment_id = ?", gatewayPaymentID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, false, nil
	}
	if err != nil {
		return model.Payment{}, false, err
	}
	return p, true, nil
}

// ゲートウェイ注文IDの紐付け
func (r *paymentGormRepository) SetGatewayOrderID(ctx context.Context, paymentID int64, gatewayOrderID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Update("gateway_order_id", gatewayOrderID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *paymentGormRepository) SetGatewayPaymentID(ctx context.Context, paymentID int64, gatewayPaymentID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Update("gateway_payment_id", gatewayPaymentID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// pendingの時だけcompletedへ。検証とwebhookのどちらが先でも二重適用しない
func (r *paymentGormRepository) CompleteIfPending(ctx context.Context, paymentID int64, gatewayPaymentID, signature, transactionID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":             model.PaymentStatusCompleted,
			"gateway_payment_id": gatewayPaymentID,
			"gateway_signature":  signature,
			"transaction_id":     transactionID,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// pendingの時だけfailedへ
func (r *paymentGormRepository) FailIfPending(ctx context.Context, paymentID int64, gatewayPaymentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":             model.PaymentStatusFailed,
			"gateway_payment_id": gatewayPaymentID,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// キャンセル時の決済締め。completed（入金済み）は触らない
func (r *paymentGormRepository) RefundIfNotCompleted(ctx context.Context, orderID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("order_id = ? AND status <> ?", orderID, model.PaymentStatusCompleted).
		Update("status", model.PaymentStatusRefunded)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
