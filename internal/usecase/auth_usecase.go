package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// refreshtokenの有効期限
const RefreshTokenTTL = 30 * 24 * time.Hour

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error
	ValidateForceLogout(ctx context.Context, targetUserID int64) error
	ValidatePasswordChange(ctx context.Context, currentPassword string, newPassword string) error
}

// ログイン時にゲストカートを引き継ぐ
type GuestCartMerger interface {
	MergeGuestCart(ctx context.Context, sessionToken string, userID int64) error
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

// ログインの付帯情報
type LoginMeta struct {
	UserAgent    string
	IP           string
	SessionToken string
}

type LoginResult struct {
	Body              AuthLoginResponse
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type RefreshResult struct {
	Body              JwtAccessTokenDTO
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	rtRepo    repository.RefreshTokenRepository
	activity  repository.UserActivityRepository
	access    repository.UserAccessLogRepository
	carts     GuestCartMerger
	validator AuthValidator
	now       func() time.Time
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	activity repository.UserActivityRepository,
	access repository.UserAccessLogRepository,
	carts GuestCartMerger,
	validator AuthValidator,
) *AuthUsecase {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		rtRepo:    rtRepo,
		activity:  activity,
		access:    access,
		carts:     carts,
		validator: validator,
		now:       time.Now,
	}
}

func errUnauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

func errSecurityIncident() error {
	return NewHTTPError(http.StatusUnauthorized, "security incident")
}

func errInactive() error {
	return NewHTTPError(http.StatusForbidden, "user inactive")
}

func errInternal() error {
	return NewHTTPError(http.StatusInternalServerError, "internal error")
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errInternal()
	}

	user := &model.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		TokenVersion: 0,
		IsActive:     true,
	}

	//email重複はunique制約で弾く
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, NewHTTPError(http.StatusConflict, "email already used")
		}
		return nil, errInternal()
	}

	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest, meta LoginMeta) (*LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return nil, errUnauthorized()
	}
	if !user.IsActive {
		return nil, errInactive()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errUnauthorized()
	}

	now := u.now()
	u.recordLogin(ctx, user, meta, now)

	//ゲストカートを会員カートへ
	if u.carts != nil && meta.SessionToken != "" {
		if err := u.carts.MergeGuestCart(ctx, meta.SessionToken, user.ID); err != nil {
			return nil, err
		}
	}

	sess, err := u.startSession(ctx, user, meta.UserAgent, now)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Body:              AuthLoginResponse{User: toUserDTO(user), Token: sess.access},
		RefreshTokenPlain: sess.refresh,
		CsrfTokenPlain:    sess.csrf,
	}, nil
}

// last_login、オンライン状態、ログイン履歴。失敗してもログインは通す
func (u *AuthUsecase) recordLogin(ctx context.Context, user *model.User, meta LoginMeta, now time.Time) {
	user.LastLoginAt = &now
	_ = u.users.Update(ctx, user)
	if u.activity != nil {
		_ = u.activity.MarkLogin(ctx, user.ID, meta.IP, meta.UserAgent, now)
	}
	if u.access != nil {
		_ = u.access.Create(ctx, model.NewUserAccessLog(user.ID, meta.IP, meta.UserAgent, now))
	}
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, errUnauthorized()
	}
	if !user.IsActive {
		return nil, errInactive()
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// refresh tokenは1回使い切り。使用済みが再提示されたら全セッションを失効
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*RefreshResult, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain, userAgent); err != nil {
		return nil, err
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil || rt == nil {
		return nil, errUnauthorized()
	}

	now := u.now()
	if err := u.checkRefreshToken(ctx, rt, userAgent, now); err != nil {
		return nil, err
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return nil, errUnauthorized()
	}
	if !user.IsActive {
		return nil, errInactive()
	}

	//同時に2回使われたら片方はここで失敗する
	if err := u.rtRepo.MarkUsed(ctx, rt.ID, now); err != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, errSecurityIncident()
	}

	sess, err := u.startSession(ctx, user, userAgent, now)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Body: sess.access, RefreshTokenPlain: sess.refresh, CsrfTokenPlain: sess.csrf}, nil
}

func (u *AuthUsecase) checkRefreshToken(ctx context.Context, rt *model.RefreshToken, userAgent string, now time.Time) error {
	switch {
	case rt.ExpiresAt.Before(now):
		_ = u.rtRepo.DeleteByID(ctx, rt.ID)
		return errUnauthorized()
	case rt.RevokedAt != nil:
		return errUnauthorized()
	case rt.UsedAt != nil:
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return errSecurityIncident()
	case userAgent != "" && rt.UserAgent != "" && userAgent != rt.UserAgent:
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return errSecurityIncident()
	}
	return nil
}

func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) (*SuccessResponse, error) {
	if refreshTokenPlain == "" {
		return nil, errUnauthorized()
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil || rt == nil {
		return nil, errUnauthorized()
	}

	//refreshを削除（失効）
	if err := u.rtRepo.DeleteByID(ctx, rt.ID); err != nil {
		return nil, errInternal()
	}

	//オフラインにする（失敗してもログアウトは通す）
	if u.activity != nil {
		_ = u.activity.MarkLogout(ctx, rt.UserID, u.now())
	}

	return &SuccessResponse{Message: "logout success"}, nil
}

// 他の端末のセッションは全て失効させ、呼び出し元には新しいセッションを返す
func (u *AuthUsecase) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest, userAgent string) (*LoginResult, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}
	if err := u.validator.ValidatePasswordChange(ctx, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, err
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, errUnauthorized()
	}
	if !user.IsActive {
		return nil, errInactive()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "current password is incorrect")
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, errInternal()
	}
	user.PasswordHash = string(pwHash)
	if err := u.users.Update(ctx, user); err != nil {
		return nil, repoError(err)
	}

	//発行済みのaccess/refreshを無効化
	if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
		return nil, repoError(err)
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, userID); err != nil {
		return nil, errInternal()
	}

	user, err = u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, errInternal()
	}
	sess, err := u.startSession(ctx, user, userAgent, u.now())
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Body:              AuthLoginResponse{User: toUserDTO(user), Token: sess.access},
		RefreshTokenPlain: sess.refresh,
		CsrfTokenPlain:    sess.csrf,
	}, nil
}

// token_versionを上げて発行済みのaccess tokenを無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, targetUserID int64) (*ForceLogoutResponse, error) {
	if err := u.validator.ValidateForceLogout(ctx, targetUserID); err != nil {
		return nil, err
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return nil, repoError(err)
	}
	if err := u.rtRepo.DeleteAllByUserID(ctx, targetUserID); err != nil {
		return nil, errInternal()
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil || user == nil {
		return nil, errInternal()
	}

	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

type session struct {
	access  JwtAccessTokenDTO
	refresh string
	csrf    string
}

// access token、refresh token（DBにはhashのみ）、CSRF tokenをまとめて発行
func (u *AuthUsecase) startSession(ctx context.Context, user *model.User, userAgent string, now time.Time) (session, error) {
	access, err := u.signAccessToken(user, now)
	if err != nil {
		return session{}, errInternal()
	}

	refreshPlain, refreshHash, err := newRandomTokenAndHash()
	if err != nil {
		return session{}, errInternal()
	}
	if err := u.rtRepo.Create(ctx, &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(RefreshTokenTTL),
	}); err != nil {
		return session{}, errInternal()
	}

	csrfPlain, _, err := newRandomTokenAndHash()
	if err != nil {
		return session{}, errInternal()
	}
	return session{access: access, refresh: refreshPlain, csrf: csrfPlain}, nil
}

// HS256。tvはTokenVersionGuardが照合する
func (u *AuthUsecase) signAccessToken(user *model.User, now time.Time) (JwtAccessTokenDTO, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(u.cfg.AccessTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return JwtAccessTokenDTO{}, err
	}
	return JwtAccessTokenDTO{
		AccessToken:  signed,
		ExpiresIn:    int(u.cfg.AccessTTL.Seconds()),
		TokenVersion: user.TokenVersion,
	}, nil
}

// refresh token生成（平文 + DB保存hash）
func newRandomTokenAndHash() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}

	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
