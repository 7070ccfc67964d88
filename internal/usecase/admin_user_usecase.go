package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type UserListOutput struct {
	Items []UserDTO `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type AccessLogListOutput struct {
	Items []model.UserAccessLog `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// 管理者によるユーザー操作
type AdminUserUsecase struct {
	users    repo.UserRepository
	activity repo.UserActivityRepository
	access   repo.UserAccessLogRepository
	audit    repo.AuditLogRepository
}

func NewAdminUserUsecase(users repo.UserRepository, activity repo.UserActivityRepository, access repo.UserAccessLogRepository, audit repo.AuditLogRepository) *AdminUserUsecase {
	return &AdminUserUsecase{users: users, activity: activity, access: access, audit: audit}
}

func (u *AdminUserUsecase) List(ctx context.Context, page int, limit int) (UserListOutput, error) {
	if page < 1 || limit < 1 || limit > 100 {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}
	users, total, err := u.users.List(ctx, page, limit)
	if err != nil {
		return UserListOutput{}, repoError(err)
	}

	items := make([]UserDTO, 0, len(users))
	for i := range users {
		items = append(items, toUserDTO(&users[i]))
	}
	return UserListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (u *AdminUserUsecase) Activity(ctx context.Context, userID int64) (model.UserActivity, error) {
	a, err := u.activity.FindByUserID(ctx, userID)
	if err != nil {
		return model.UserActivity{}, repoError(err)
	}
	return a, nil
}

// ログイン履歴（新しい順）
func (u *AdminUserUsecase) AccessLogs(ctx context.Context, f repo.AccessLogFilter) (AccessLogListOutput, error) {
	if f.Page < 1 || f.Limit < 1 || f.Limit > 100 {
		return AccessLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AccessLogListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	items, total, err := u.access.List(ctx, f)
	if err != nil {
		return AccessLogListOutput{}, repoError(err)
	}
	return AccessLogListOutput{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// 停止したらtoken_versionも上げて即ログアウト
func (u *AdminUserUsecase) SetActive(ctx context.Context, actorUserID int64, userID int64, active bool) (UserDTO, error) {
	if actorUserID == userID && !active {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "cannot deactivate yourself")
	}
	return u.update(ctx, actorUserID, userID, func(user *model.User) {
		user.IsActive = active
		if !active {
			user.TokenVersion++
		}
	})
}

// ロールが変わったら古いJWTは使えなくする
func (u *AdminUserUsecase) SetRole(ctx context.Context, actorUserID int64, userID int64, role model.Role) (UserDTO, error) {
	if !role.Valid() {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	if actorUserID == userID && role != model.RoleAdmin {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "cannot change your own role")
	}
	return u.update(ctx, actorUserID, userID, func(user *model.User) {
		if user.Role != role {
			user.Role = role
			user.TokenVersion++
		}
	})
}

func (u *AdminUserUsecase) update(ctx context.Context, actorUserID int64, userID int64, fn func(*model.User)) (UserDTO, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, repoError(err)
	}
	before := toUserDTO(user)

	fn(user)
	if err := u.users.Update(ctx, user); err != nil {
		return UserDTO{}, repoError(err)
	}
	after := toUserDTO(user)

	//監査ログ（ユーザー更新）
	entry := model.NewAuditLog(actorUserID, model.AuditActionUpdateUser, model.AuditResourceUser, userID, before, after)
	if err := u.audit.Create(ctx, entry); err != nil {
		return UserDTO{}, repoError(err)
	}
	return after, nil
}

// ActivityTracker はログイン中ユーザーの最終アクセスを記録する。
// 同じユーザーは interval に1回だけDBへ書く。
type ActivityTracker struct {
	activity repo.UserActivityRepository
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[int64]time.Time
}

func NewActivityTracker(activity repo.UserActivityRepository, interval time.Duration) *ActivityTracker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ActivityTracker{
		activity: activity,
		interval: interval,
		now:      time.Now,
		last:     map[int64]time.Time{},
	}
}

// 書いたらtrue
func (t *ActivityTracker) Touch(ctx context.Context, userID int64, ip string, userAgent string) (bool, error) {
	if userID <= 0 {
		return false, errors.New("invalid user id")
	}
	now := t.now()

	t.mu.Lock()
	prev, ok := t.last[userID]
	if ok && now.Sub(prev) < t.interval {
		t.mu.Unlock()
		return false, nil
	}
	t.last[userID] = now
	t.mu.Unlock()

	if err := t.activity.Touch(ctx, userID, ip, truncate(userAgent, 255), now); err != nil {
		//次のリクエストで再試行させる
		t.mu.Lock()
		delete(t.last, userID)
		t.mu.Unlock()
		return false, err
	}
	return true, nil
}
