package repository

import (
	"context"
	"errors"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一意制約に当たった時。冪等キーの同時挿入の判定に使う
var ErrDuplicate = errors.New("duplicate")

// 商品はカタログ側の持ち物。ここでは取得だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}
