package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) FindByCode(ctx context.Context, code string, f repo.StatusFilter) (model.Coupon, error) {
	var c model.Coupon
	if err := r.db.WithContext(ctx).Scopes(withStatus(f)).Where("code = ?", code).First(&c).Error; err != nil {
		return model.Coupon{}, mapErr(err)
	}
	return c, nil
}

func (r *CouponGormRepository) FindByID(ctx context.Context, id int64, f repo.StatusFilter) (model.Coupon, error) {
	var c model.Coupon
	if err := r.db.WithContext(ctx).Scopes(withStatus(f)).First(&c, id).Error; err != nil {
		return model.Coupon{}, mapErr(err)
	}
	return c, nil
}

func (r *CouponGormRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Coupon, error) {
	var c model.Coupon
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, id).Error; err != nil {
		return model.Coupon{}, mapErr(err)
	}
	return c, nil
}

// 上限未満のときだけ+1。上限に達していたらErrConflict
func (r *CouponGormRepository) IncrementUsed(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ? AND used_count < usage_limit", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

func (r *CouponGormRepository) List(ctx context.Context, page int, limit int) ([]model.Coupon, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Coupon{}).Count(&total).Error; err != nil {
		return []model.Coupon{}, 0, err
	}

	var list []model.Coupon
	if err := r.db.WithContext(ctx).Order("id desc").Scopes(paginate(page, limit)).Find(&list).Error; err != nil {
		return []model.Coupon{}, 0, err
	}
	return list, total, nil
}

func (r *CouponGormRepository) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Coupon{}, mapErr(err)
	}
	return c, nil
}

// used_countは管理画面からは変えない
func (r *CouponGormRepository) Update(ctx context.Context, c model.Coupon) error {
	return affected(r.db.WithContext(ctx).Model(&model.Coupon{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"code":           c.Code,
		"discount_type":  c.DiscountType,
		"discount_value": c.DiscountValue,
		"valid_from":     c.ValidFrom,
		"valid_to":       c.ValidTo,
		"usage_limit":    c.UsageLimit,
	}))
}

func (r *CouponGormRepository) SetStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.Coupon{}).Where("id = ?", id).Update("status", status))
}
