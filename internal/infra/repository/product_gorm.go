package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 実効価格（セール価格があればそれ）
const effectivePriceSQL = "COALESCE(sale_price, price)"

// 検索/カテゴリ/価格帯/ソート/ページング付きで返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(withStatus(q.Status))

	// q name/description/skuを対象
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ? OR sku ILIKE ?", like, like, like)
	}

	if q.MainCategoryID != nil {
		tx = tx.Where("main_category_id = ?", *q.MainCategoryID)
	}
	if q.SubCategoryID != nil {
		tx = tx.Where("sub_category_id = ?", *q.SubCategoryID)
	}
	if q.BrandID != nil {
		tx = tx.Where("brand_id = ?", *q.BrandID)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where(effectivePriceSQL+" >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where(effectivePriceSQL+" <= ?", *q.MaxPrice)
	}
	if q.OnSale {
		tx = tx.Where("sale_price IS NOT NULL")
	}
	if q.InStock {
		tx = tx.Where("stock > 0")
	}
	if q.FeaturedOnly {
		tx = tx.Where("is_featured = ?", true)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order(effectivePriceSQL + " asc").Order("id asc")
	case "price_desc":
		tx = tx.Order(effectivePriceSQL + " desc").Order("id desc")
	case "name":
		tx = tx.Order("name asc").Order("id asc")
	case "popular":
		tx = tx.Order("total_views desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	if err := tx.Scopes(paginate(q.Page, q.Limit)).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64, f repo.StatusFilter) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Scopes(withStatus(f)).First(&p, id).Error; err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

func (r *ProductGormRepository) FindBySlug(ctx context.Context, slug string, f repo.StatusFilter) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Scopes(withStatus(f)).Where("slug = ?", slug).First(&p).Error; err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

// まとめて取得（カート表示用）。statusは問わない
func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	out := make(map[int64]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, mapErr(err)
	}
	return p, nil
}

// 商品の更新（在庫は在庫ログ経由でしか変えない）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":             p.Name,
		"slug":             p.Slug,
		"description":      p.Description,
		"main_category_id": p.MainCategoryID,
		"sub_category_id":  p.SubCategoryID,
		"brand_id":         p.BrandID,
		"price":            p.Price,
		"sale_price":       p.SalePrice,
		"sku":              p.SKU,
	})
	return affected(res)
}

func (r *ProductGormRepository) SetStatus(ctx context.Context, id int64, status model.RecordStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("status", status))
}

func (r *ProductGormRepository) SetFeatured(ctx context.Context, id int64, featured bool) error {
	return affected(r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("is_featured", featured))
}

func (r *ProductGormRepository) SetSKU(ctx context.Context, id int64, sku string) error {
	return affected(r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("sku", sku))
}

func (r *ProductGormRepository) SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	return slugExists(ctx, r.db, &model.Product{}, slug, exceptID)
}
