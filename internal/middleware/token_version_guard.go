package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/repository"
)

// JWTのtvとDBのtoken_versionが一致するか確認。
// パスワード変更などでtoken_versionが上がった古いトークンを締め出す
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたuser_idを取得する
			rawUserID := c.Get(CtxUserIDKey)
			userID, ok := rawUserID.(int64)
			if !ok || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//AuthJWTが入れたtoken_version(tv)を取得する
			rawTV := c.Get(CtxTokenVersionKey)
			tv, ok := rawTV.(int)
			if !ok || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//DBから最新のuserを取得する
			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//無効化済みアカウントは弾く
			if !user.IsActive {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//token_versionが一致しなければ強制ログアウト扱い（401）
			if user.TokenVersion != tv {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			return next(c)
		}
	}
}
