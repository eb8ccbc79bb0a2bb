package repository

import (
	"context"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算（1文のUPDATEで行う。読んでから書くのは禁止）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 台帳履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
