package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type UserAccessLogGormRepository struct {
	db *gorm.DB
}

func NewUserAccessLogGormRepository(db *gorm.DB) repo.UserAccessLogRepository {
	return &UserAccessLogGormRepository{db: db}
}

func (r *UserAccessLogGormRepository) Create(ctx context.Context, log model.UserAccessLog) error {
	if log.LoginAt.IsZero() {
		log.LoginAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(&log).Error
}

func (r *UserAccessLogGormRepository) List(ctx context.Context, f repo.AccessLogFilter) ([]model.UserAccessLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.UserAccessLog{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("login_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("login_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.UserAccessLog{}, 0, err
	}

	logs := []model.UserAccessLog{}
	if err := q.Order("login_at desc").Order("id desc").Scopes(paginate(f.Page, f.Limit)).Find(&logs).Error; err != nil {
		return []model.UserAccessLog{}, 0, err
	}
	return logs, total, nil
}
