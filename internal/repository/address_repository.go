package repository

import (
	"context"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

// 住所(Address)は住所管理APIの持ち物。ここでは取得だけ。
type AddressRepository interface {
	//住所IDから住所を1件取得
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
}
