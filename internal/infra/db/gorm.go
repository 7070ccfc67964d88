package db

import (
	"context"
	"fmt"
	"os"

	"storefront/internal/domain/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(dsn string) (*gorm.DB, error) {
	// DATABASE_URL があれば最優先で使う
	if v := os.Getenv("DATABASE_URL"); v != "" {
		dsn = v
	}
	if dsn == "" {
		return nil, fmt.Errorf("dsn is empty")
	}

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

// AllModels はマイグレーション対象
func AllModels() []interface{} {
	return []interface{}{
		&model.User{},
		&model.RefreshToken{},
		&model.UserActivity{},
		&model.UserAccessLog{},
		&model.Menu{},
		&model.UserPermission{},
		&model.Brand{},
		&model.MainCategory{},
		&model.SubCategory{},
		&model.Product{},
		&model.ProductImage{},
		&model.ProductVariant{},
		&model.InventoryLog{},
		&model.ProductView{},
		&model.Cart{},
		&model.CartItem{},
		&model.Coupon{},
		&model.Address{},
		&model.OrderAddress{},
		&model.Order{},
		&model.OrderDetail{},
		&model.OrderPayment{},
		&model.OrderSequence{},
		&model.AuditLog{},
	}
}

// Migrate はテーブル作成と、AutoMigrateで表現できない制約を追加する
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	log.Info("migration start")

	if err := db.WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}

	stmts := []struct {
		name string
		sql  string
	}{
		// 同じオーナーのACTIVEカートは1つ
		{"ux carts active user", `CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_active_user ON carts (user_id) WHERE status = 'active' AND user_id IS NOT NULL`},
		{"ux carts active session", `CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_active_session ON carts (session_token) WHERE status = 'active' AND session_token <> ''`},
		{"chk cart_items.quantity", `DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cart_items_quantity') THEN
    ALTER TABLE cart_items ADD CONSTRAINT chk_cart_items_quantity CHECK (quantity >= 0);
  END IF;
END $$;`},
		{"chk coupons.used_count", `DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_coupons_used_count') THEN
    ALTER TABLE coupons ADD CONSTRAINT chk_coupons_used_count CHECK (used_count >= 0 AND used_count <= usage_limit);
  END IF;
END $$;`},
		{"chk products.stock", `DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_stock') THEN
    ALTER TABLE products ADD CONSTRAINT chk_products_stock CHECK (stock >= 0);
  END IF;
END $$;`},
		// ユーザーごとにデフォルト住所は1つまで
		{"ux addresses default", `CREATE UNIQUE INDEX IF NOT EXISTS ux_addresses_default ON addresses (user_id) WHERE is_default`},
		// 商品ごとにprimary画像は1枚まで
		{"ux product_images primary", `CREATE UNIQUE INDEX IF NOT EXISTS ux_product_images_primary ON product_images (product_id) WHERE is_primary`},
	}

	for _, s := range stmts {
		if err := db.WithContext(ctx).Exec(s.sql).Error; err != nil {
			log.Error(s.name, zap.Error(err))
			return err
		}
	}

	log.Info("migration done")
	return nil
}
