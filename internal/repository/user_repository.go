package repository

import (
	"context"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
)

// ユーザーは認証側の持ち物。token_versionガードと通知先の取得にだけ使う。
type UserRepository interface {
	// IDからユーザーを1件取得する。見つからなければnil
	FindByID(ctx context.Context, userID int64) (*model.User, error)
}
