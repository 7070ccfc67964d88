package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ActivityToucher interface {
	Touch(ctx context.Context, userID int64, ip string, userAgent string) (bool, error)
}

// ログイン中ユーザーの最終アクセスを更新する（失敗してもレスポンスは変えない）
func TrackActivity(t ActivityToucher, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			if userID, ok := c.Get(CtxUserIDKey).(int64); ok && userID > 0 {
				if _, terr := t.Touch(c.Request().Context(), userID, c.RealIP(), c.Request().UserAgent()); terr != nil {
					log.Warn("activity touch failed", zap.Int64("user_id", userID), zap.Error(terr))
				}
			}
			return err
		}
	}
}
