package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 一覧検索
type ProductListQuery struct {
	Page           int
	Limit          int
	Q              string
	MainCategoryID *int64
	SubCategoryID  *int64
	BrandID        *int64
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	OnSale         bool
	InStock        bool
	FeaturedOnly   bool
	Sort           string
	Status         StatusFilter
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64, f StatusFilter) (model.Product, error)
	FindBySlug(ctx context.Context, slug string, f StatusFilter) (model.Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SetStatus(ctx context.Context, id int64, status model.RecordStatus) error
	SetFeatured(ctx context.Context, id int64, featured bool) error
	SetSKU(ctx context.Context, id int64, sku string) error
	SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)
}

type ProductImageRepository interface {
	ListByProduct(ctx context.Context, productID int64) ([]model.ProductImage, error)
	FindByID(ctx context.Context, id int64) (model.ProductImage, error)
	// 最初の1枚は必ずprimaryになる
	Add(ctx context.Context, img model.ProductImage) (model.ProductImage, error)
	SetPrimary(ctx context.Context, productID int64, imageID int64) error
	Delete(ctx context.Context, id int64) error
	// 商品ごとのprimary画像URL
	PrimaryURLs(ctx context.Context, productIDs []int64) (map[int64]string, error)
}

type ProductVariantRepository interface {
	ListByProduct(ctx context.Context, productID int64) ([]model.ProductVariant, error)
	FindByID(ctx context.Context, id int64) (model.ProductVariant, error)
	Create(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error)
	Update(ctx context.Context, v model.ProductVariant) error
	Delete(ctx context.Context, id int64) error
}

// 在庫の増減と履歴保存をまとめた約束。
type InventoryRepository interface {
	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)
	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
	// 履歴だけ保存
	CreateLog(ctx context.Context, log model.InventoryLog) error
	// 在庫を増減して履歴も残す（マイナスになるならfalse）
	ApplyLog(ctx context.Context, log model.InventoryLog) (bool, error)
	ListLogs(ctx context.Context, productID *int64, page int, limit int) ([]model.InventoryLog, int64, error)
}

type ProductViewRepository interface {
	// 初回閲覧ならtrue（total_viewsも+1）
	Record(ctx context.Context, v model.ProductView) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
