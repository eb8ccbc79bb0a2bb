package repository

import "context"

// トランザクション内で使う約束。
// 注文確定・遷移・決済確定の複数行更新は必ずこの束で行う。
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Payments() PaymentRepository
	Coupons() CouponRepository
	Products() ProductRepository
	Inventory() InventoryRepository
	CODTracking() CODTrackingRepository
	StatusHistory() OrderStatusHistoryRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがerrorを返したら全部ロールバック。部分適用は観測できない。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
