package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type BrandGormRepository struct {
	db *gorm.DB
}

func NewBrandGormRepository(db *gorm.DB) repo.BrandRepository {
	return &BrandGormRepository{db: db}
}

func (r *BrandGormRepository) List(ctx context.Context, f repo.StatusFilter) ([]model.Brand, error) {
	var brands []model.Brand
	if err := r.db.WithContext(ctx).Scopes(withStatus(f)).Order("name asc").Find(&brands).Error; err != nil {
		return []model.Brand{}, err
	}
	return brands, nil
}

func (r *BrandGormRepository) FindByID(ctx context.Context, id int64, f repo.StatusFilter) (model.Brand, error) {
	var b model.Brand
	if err := r.db.WithContext(ctx).Scopes(withStatus(f)).First(&b, id).Error; err != nil {
		return model.Brand{}, mapErr(err)
	}
	return b, nil
}

func (r *BrandGormRepository) Create(ctx context.Context, b model.Brand) (model.Brand, error) {
	if err := r.db.WithContext(ctx).Create(&b).Error; err != nil {
		return model.Brand{}, mapErr(err)
	}
	return b, nil
}

func (r *BrandGormRepository) Update(ctx context.Context, b model.Brand) error {
	return affected(r.db.WithContext(ctx).Model(&model.Brand{}).Where("id = ?", b.ID).Updates(map[string]interface{}{
		"name":        b.Name,
		"slug":        b.Slug,
		"image_url":   b.ImageURL,
		"description": b.Description,
	}))
}

func (r *BrandGormRepository) SetStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.Brand{}).Where("id = ?", id).Update("status", status))
}

func (r *BrandGormRepository) SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	return slugExists(ctx, r.db, &model.Brand{}, slug, exceptID)
}

type CategoryGormRepository struct {
	db *gorm.DB
}

func NewCategoryGormRepository(db *gorm.DB) repo.CategoryRepository {
	return &CategoryGormRepository{db: db}
}

func (r *CategoryGormRepository) ListMain(ctx context.Context, f repo.StatusFilter) ([]model.MainCategory, error) {
	var list []model.MainCategory
	if err := r.db.WithContext(ctx).Scopes(withStatus(f)).Order("ordering asc, id asc").Find(&list).Error; err != nil {
		return []model.MainCategory{}, err
	}
	return list, nil
}

func (r *CategoryGormRepository) FindMainByID(ctx context.Context, id int64, f repo.StatusFilter) (model.MainCategory, error) {
	var c model.MainCategory
	if err := r.db.WithContext(ctx).Scopes(withStatus(f)).First(&c, id).Error; err != nil {
		return model.MainCategory{}, mapErr(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) CreateMain(ctx context.Context, c model.MainCategory) (model.MainCategory, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.MainCategory{}, mapErr(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) UpdateMain(ctx context.Context, c model.MainCategory) error {
	return affected(r.db.WithContext(ctx).Model(&model.MainCategory{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":        c.Name,
		"slug":        c.Slug,
		"image_url":   c.ImageURL,
		"description": c.Description,
		"ordering":    c.Ordering,
	}))
}

func (r *CategoryGormRepository) SetMainStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.MainCategory{}).Where("id = ?", id).Update("status", status))
}

func (r *CategoryGormRepository) MainSlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	return slugExists(ctx, r.db, &model.MainCategory{}, slug, exceptID)
}

func (r *CategoryGormRepository) ListSub(ctx context.Context, mainID *int64, f repo.StatusFilter) ([]model.SubCategory, error) {
	q := r.db.WithContext(ctx).Scopes(withStatus(f))
	if mainID != nil {
		q = q.Where("main_category_id = ?", *mainID)
	}

	var list []model.SubCategory
	if err := q.Order("ordering asc, id asc").Find(&list).Error; err != nil {
		return []model.SubCategory{}, err
	}
	return list, nil
}

func (r *CategoryGormRepository) FindSubByID(ctx context.Context, id int64, f repo.StatusFilter) (model.SubCategory, error) {
	var c model.SubCategory
	if err := r.db.WithContext(ctx).Scopes(withStatus(f)).First(&c, id).Error; err != nil {
		return model.SubCategory{}, mapErr(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) CreateSub(ctx context.Context, c model.SubCategory) (model.SubCategory, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.SubCategory{}, mapErr(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) UpdateSub(ctx context.Context, c model.SubCategory) error {
	return affected(r.db.WithContext(ctx).Model(&model.SubCategory{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"main_category_id": c.MainCategoryID,
		"name":             c.Name,
		"slug":             c.Slug,
		"image_url":        c.ImageURL,
		"description":      c.Description,
		"ordering":         c.Ordering,
	}))
}

func (r *CategoryGormRepository) SetSubStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.SubCategory{}).Where("id = ?", id).Update("status", status))
}

func (r *CategoryGormRepository) SubSlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	return slugExists(ctx, r.db, &model.SubCategory{}, slug, exceptID)
}

// 自分以外で同じslugがあるか
func slugExists(ctx context.Context, db *gorm.DB, table interface{}, slug string, exceptID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(table).
		Where("slug = ? AND id <> ?", slug, exceptID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
