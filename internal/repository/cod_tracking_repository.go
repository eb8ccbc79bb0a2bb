package repository

import (
	"context"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

type CODTrackingRepository interface {
	Create(ctx context.Context, t model.CODTracking) (int64, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.CODTracking, bool, error)

	//配達試行・回収結果の反映（行全体を保存）
	Update(ctx context.Context, t model.CODTracking) error
}
