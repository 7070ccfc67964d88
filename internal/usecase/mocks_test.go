package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, page int, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, page, limit)
	users, _ := args.Get(0).([]model.User)
	return users, args.Get(1).(int64), args.Error(2)
}

// =====================
// Mock: RefreshTokenRepository
// =====================

type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	rt, _ := args.Get(0).(*model.RefreshToken)
	return rt, args.Error(1)
}

func (m *MockRefreshTokenRepository) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	args := m.Called(ctx, tokenID, usedAt)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// Mock: AuthValidator
// =====================

type MockAuthValidator struct {
	mock.Mock
}

func (m *MockAuthValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	args := m.Called(ctx, refreshToken, userAgent)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	args := m.Called(ctx, targetUserID)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidatePasswordChange(ctx context.Context, currentPassword string, newPassword string) error {
	args := m.Called(ctx, currentPassword, newPassword)
	return args.Error(0)
}

// =====================
// Mock: UserActivityRepository
// =====================

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Touch(ctx context.Context, userID int64, ip string, userAgent string, at time.Time) error {
	args := m.Called(ctx, userID, ip, userAgent, at)
	return args.Error(0)
}

func (m *MockActivityRepository) MarkLogin(ctx context.Context, userID int64, ip string, userAgent string, at time.Time) error {
	args := m.Called(ctx, userID, ip, userAgent, at)
	return args.Error(0)
}

func (m *MockActivityRepository) MarkLogout(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockActivityRepository) FindByUserID(ctx context.Context, userID int64) (model.UserActivity, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.UserActivity), args.Error(1)
}

func (m *MockActivityRepository) MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// Mock: UserAccessLogRepository
// =====================

type MockAccessLogRepository struct {
	mock.Mock
}

func (m *MockAccessLogRepository) Create(ctx context.Context, log model.UserAccessLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAccessLogRepository) List(ctx context.Context, f repo.AccessLogFilter) ([]model.UserAccessLog, int64, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.UserAccessLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

// =====================
// Mock: GuestCartMerger
// =====================

type MockCartMerger struct {
	mock.Mock
}

func (m *MockCartMerger) MergeGuestCart(ctx context.Context, sessionToken string, userID int64) error {
	args := m.Called(ctx, sessionToken, userID)
	return args.Error(0)
}

// =====================
// Mock: UserPermissionRepository
// =====================

type MockGrantRepository struct {
	mock.Mock
}

func (m *MockGrantRepository) FindActiveGrant(ctx context.Context, userID int64, menuURL string) (model.UserPermission, error) {
	args := m.Called(ctx, userID, menuURL)
	return args.Get(0).(model.UserPermission), args.Error(1)
}

func (m *MockGrantRepository) ListByUser(ctx context.Context, userID int64) ([]repo.PermissionGrant, error) {
	args := m.Called(ctx, userID)
	g, _ := args.Get(0).([]repo.PermissionGrant)
	return g, args.Error(1)
}

func (m *MockGrantRepository) Upsert(ctx context.Context, p model.UserPermission) (model.UserPermission, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.UserPermission), args.Error(1)
}

func (m *MockGrantRepository) Revoke(ctx context.Context, userID int64, menuID int64) error {
	args := m.Called(ctx, userID, menuID)
	return args.Error(0)
}
