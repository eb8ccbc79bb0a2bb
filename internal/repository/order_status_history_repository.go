package repository

import (
	"context"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

// 遷移履歴の保存・取得の約束。
type OrderStatusHistoryRepository interface {
	//履歴を1件追記
	Create(ctx context.Context, h model.OrderStatusHistory) error

	//注文の履歴を古い順で取得
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error)
}
