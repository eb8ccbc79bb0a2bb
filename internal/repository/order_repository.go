package repository

import (
	"context"
	"time"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

// 管理者一覧の絞り込み・並び替え条件
type AdminOrderListFilter struct {
	Page          int
	Limit         int
	Status        string
	PaymentStatus string
	UserID        *int64
	From          *time.Time
	To            *time.Time

	//created_at_desc（default）/ created_at_asc / total_desc / total_asc
	Sort string
}

// 管理者一覧に添える集計
type OrderStats struct {
	TotalOrders int64
	//payment_status=paid の合計金額
	TotalRevenue  int64
	CountByStatus map[model.OrderStatus]int64
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, bool, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)

	//管理者用の注文一覧と集計
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	Stats(ctx context.Context, f AdminOrderListFilter) (OrderStats, error)

	//現在値が from の時だけ遷移させる（検証とwebhookの競合対策）。
	//falseは「期待した状態の行が無かった」= 相手が先に進めた、のどちらも含む
	UpdateStatusIf(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error)
	UpdatePaymentStatusIf(ctx context.Context, orderID int64, from, to model.OrderPaymentStatus) (bool, error)

	//キャンセル時の返金マーク。すでにpaid/refundedなら何もしない
	MarkPaymentRefundedUnlessPaid(ctx context.Context, orderID int64) (bool, error)

	//監査メモの追記（上書きしない）
	AppendNote(ctx context.Context, orderID int64, note string) error
}
