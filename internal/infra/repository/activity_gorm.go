package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserActivityGormRepository struct {
	db *gorm.DB
}

func NewUserActivityGormRepository(db *gorm.DB) repo.UserActivityRepository {
	return &UserActivityGormRepository{db: db}
}

// user_idで1行。あれば最終アクセスだけ更新
func (r *UserActivityGormRepository) Touch(ctx context.Context, userID int64, ip string, userAgent string, at time.Time) error {
	row := model.UserActivity{
		UserID:       userID,
		LastActivity: at,
		CurrentIP:    ip,
		UserAgent:    userAgent,
		IsOnline:     true,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_activity", "current_ip", "user_agent", "is_online", "updated_at"}),
	}).Create(&row).Error
}

func (r *UserActivityGormRepository) MarkLogin(ctx context.Context, userID int64, ip string, userAgent string, at time.Time) error {
	row := model.UserActivity{
		UserID:       userID,
		LastActivity: at,
		CurrentIP:    ip,
		UserAgent:    userAgent,
		IsOnline:     true,
		LastLoginAt:  &at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_activity", "current_ip", "user_agent", "is_online", "last_login_at", "updated_at"}),
	}).Create(&row).Error
}

// 行が無ければ何もしない
func (r *UserActivityGormRepository) MarkLogout(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.UserActivity{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"is_online": false, "last_logout_at": at}).Error
}

func (r *UserActivityGormRepository) FindByUserID(ctx context.Context, userID int64) (model.UserActivity, error) {
	var a model.UserActivity
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error; err != nil {
		return model.UserActivity{}, mapErr(err)
	}
	return a, nil
}

// 一定時間アクセスの無いユーザーをオフラインに
func (r *UserActivityGormRepository) MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.UserActivity{}).
		Where("is_online = ? AND last_activity < ?", true, cutoff).
		Update("is_online", false)
	return res.RowsAffected, res.Error
}
