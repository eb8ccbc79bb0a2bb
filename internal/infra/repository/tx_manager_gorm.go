package repository

import (
	"context"

	repo "github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	payments      repo.PaymentRepository
	coupons       repo.CouponRepository
	products      repo.ProductRepository
	inventory     repo.InventoryRepository
	codTracking   repo.CODTrackingRepository
	statusHistory repo.OrderStatusHistoryRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                     { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository             { return r.orderItems }
func (r *txReposGorm) Payments() repo.PaymentRepository                 { return r.payments }
func (r *txReposGorm) Coupons() repo.CouponRepository                   { return r.coupons }
func (r *txReposGorm) Products() repo.ProductRepository                 { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository              { return r.inventory }
func (r *txReposGorm) CODTracking() repo.CODTrackingRepository          { return r.codTracking }
func (r *txReposGorm) StatusHistory() repo.OrderStatusHistoryRepository { return r.statusHistory }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:        NewOrderGormRepository(tx),
			orderItems:    NewOrderItemGormRepository(tx),
			payments:      NewPaymentGormRepository(tx),
			coupons:       NewCouponGormRepository(tx),
			products:      NewProductGormRepository(tx),
			inventory:     NewInventoryGormRepository(tx),
			codTracking:   NewCODTrackingGormRepository(tx),
			statusHistory: NewOrderStatusHistoryGormRepository(tx),
		}
		return fn(r)
	})
}
