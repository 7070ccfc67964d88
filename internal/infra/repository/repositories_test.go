package repository_test

import (
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
)

// GORM実装はすべて公開型で、対応するインターフェースを満たす
var (
	_ repo.UserRepository           = (*infraRepo.UserGormRepository)(nil)
	_ repo.RefreshTokenRepository   = (*infraRepo.RefreshTokenGormRepository)(nil)
	_ repo.UserActivityRepository   = (*infraRepo.UserActivityGormRepository)(nil)
	_ repo.UserAccessLogRepository  = (*infraRepo.UserAccessLogGormRepository)(nil)
	_ repo.MenuRepository           = (*infraRepo.MenuGormRepository)(nil)
	_ repo.UserPermissionRepository = (*infraRepo.UserPermissionGormRepository)(nil)
	_ repo.AuditLogRepository       = (*infraRepo.AuditLogGormRepository)(nil)
	_ repo.AddressRepository        = (*infraRepo.AddressGormRepository)(nil)
	_ repo.BrandRepository          = (*infraRepo.BrandGormRepository)(nil)
	_ repo.CategoryRepository       = (*infraRepo.CategoryGormRepository)(nil)
	_ repo.ProductRepository        = (*infraRepo.ProductGormRepository)(nil)
	_ repo.ProductImageRepository   = (*infraRepo.ProductImageGormRepository)(nil)
	_ repo.ProductVariantRepository = (*infraRepo.ProductVariantGormRepository)(nil)
	_ repo.ProductViewRepository    = (*infraRepo.ProductViewGormRepository)(nil)
	_ repo.InventoryRepository      = (*infraRepo.InventoryGormRepository)(nil)
	_ repo.CartRepository           = (*infraRepo.CartGormRepository)(nil)
	_ repo.CartItemRepository       = (*infraRepo.CartItemGormRepository)(nil)
	_ repo.CouponRepository         = (*infraRepo.CouponGormRepository)(nil)
	_ repo.OrderRepository          = (*infraRepo.OrderGormRepository)(nil)
	_ repo.OrderDetailRepository    = (*infraRepo.OrderDetailGormRepository)(nil)
	_ repo.OrderPaymentRepository   = (*infraRepo.OrderPaymentGormRepository)(nil)
	_ repo.OrderSequenceRepository  = (*infraRepo.OrderSequenceGormRepository)(nil)
	_ repo.OrderAddressRepository   = (*infraRepo.OrderAddressGormRepository)(nil)
)
