package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 画像が無い商品の表示用
const DefaultImageURL = "/static/defaults/default-image.jpg"

type Product struct {
	ID             int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string              `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug           string              `gorm:"type:varchar(150);not null;uniqueIndex" json:"slug"`
	Description    string              `gorm:"type:text" json:"description"`
	MainCategoryID int64               `gorm:"not null;index" json:"main_category_id"`
	SubCategoryID  *int64              `gorm:"index" json:"sub_category_id"`
	BrandID        *int64              `gorm:"index" json:"brand_id"`
	Price          decimal.Decimal     `gorm:"type:numeric(20,2);not null" json:"price"`
	SalePrice      decimal.NullDecimal `gorm:"type:numeric(20,2)" json:"sale_price"`
	Stock          int64               `gorm:"not null;default:0" json:"stock"`
	SKU            string              `gorm:"column:sku;type:varchar(50);index" json:"sku"`
	IsFeatured     bool                `gorm:"not null;default:false" json:"is_featured"`
	TotalViews     int64               `gorm:"not null;default:0;index" json:"total_views"`
	Status         RecordStatus        `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt      time.Time           `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// セール価格があればそれ、無ければ通常価格
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

func (p Product) OnSale() bool {
	return p.SalePrice.Valid
}

func (p Product) IsActive() bool {
	return p.Status == RecordStatusActive
}

// SKUは {カテゴリ3文字}-{ブランド4文字|GEN}-{ID}
func BuildSKU(categoryName string, brandName string, productID int64) string {
	cat := "XXX"
	if categoryName != "" {
		cat = strings.ToUpper(truncateRunes(categoryName, 3))
	}
	brand := "GEN"
	if brandName != "" {
		brand = strings.ToUpper(truncateRunes(brandName, 4))
	}
	return fmt.Sprintf("%s-%s-%d", cat, brand, productID)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
