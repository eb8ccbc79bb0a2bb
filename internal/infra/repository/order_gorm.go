package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQLのunique_violation
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		//冪等キーの同時挿入は片方がここに落ちる
		if isUniqueViolation(err) {
			return 0, repo.ErrDuplicate
		}
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) adminQuery(ctx context.Context, f repo.AdminOrderListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//payment_status 絞り込み
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	return q
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.adminQuery(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	order := "id desc"
	switch f.Sort {
	case "created_at_asc":
		order = "id asc"
	case "total_desc":
		order = "total_amount desc, id desc"
	case "total_asc":
		order = "total_amount asc, id desc"
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order(order).Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Stats(ctx context.Context, f repo.AdminOrderListFilter) (repo.OrderStats, error) {
	stats := repo.OrderStats{
		CountByStatus: map[model.OrderStatus]int64{},
	}

	if err := r.adminQuery(ctx, f).Count(&stats.TotalOrders).Error; err != nil {
		return repo.OrderStats{}, err
	}

	//売上はpaidの注文だけ数える
	if err := r.adminQuery(ctx, f).
		Where("payment_status = ?", model.OrderPaymentPaid).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return repo.OrderStats{}, err
	}

	rows := []struct {
		Status model.OrderStatus
		Count  int64
	}{}
	if err := r.adminQuery(ctx, f).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return repo.OrderStats{}, err
	}
	for _, row := range rows {
		stats.CountByStatus[row.Status] = row.Count
	}

	return stats, nil
}

// 現在statusがfromの行だけを更新する。RowsAffected==0は「負け」または対象なし。
func (r *OrderGormRepository) UpdateStatusIf(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) UpdatePaymentStatusIf(ctx context.Context, orderID int64, from, to model.OrderPaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, from).
		Update("payment_status", to)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) MarkPaymentRefundedUnlessPaid(ctx context.Context, orderID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status NOT IN ?", orderID,
			[]model.OrderPaymentStatus{model.OrderPaymentPaid, model.OrderPaymentRefunded}).
		Update("payment_status", model.OrderPaymentRefunded)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// notesへ1行追記。既存本文は書き換えない。
func (r *OrderGormRepository) AppendNote(ctx context.Context, orderID int64, note string) error {
	line := "[" + time.Now().Format(time.RFC3339) + "] " + note + "\n"
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("notes", gorm.Expr("notes || ?", line))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
