package validator

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"storefront/internal/repository"
	"storefront/internal/usecase"
)

// 簡易メール形式
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

func invalidInput(msg string) error {
	return usecase.NewHTTPError(http.StatusBadRequest, msg)
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return invalidInput("email and password required")
	}
	if !emailRe.MatchString(email) || len(email) > 255 {
		return invalidInput("invalid email")
	}
	// パスワード最低文字数（8）
	if len(password) < 8 {
		return invalidInput("password must be at least 8 characters")
	}
	// bcryptは72バイトまで
	if len(password) > 72 {
		return invalidInput("password too long")
	}

	// email重複チェック（最終的にはunique制約）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return usecase.NewHTTPError(http.StatusConflict, "email already used")
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return invalidInput("email and password required")
	}
	if !emailRe.MatchString(email) {
		return invalidInput("invalid email")
	}
	return nil
}

// refresh 入力を検証
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return nil
}

// パスワード変更の入力を検証
func (v *authValidator) ValidatePasswordChange(ctx context.Context, currentPassword string, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return invalidInput("current and new password required")
	}
	if len(newPassword) < 8 {
		return invalidInput("password must be at least 8 characters")
	}
	if len(newPassword) > 72 {
		return invalidInput("password too long")
	}
	if newPassword == currentPassword {
		return invalidInput("new password must differ from current")
	}
	return nil
}

// 強制ログアウトの入力を検証
func (v *authValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	if targetUserID <= 0 {
		return invalidInput("invalid user id")
	}
	return nil
}
