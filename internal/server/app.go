package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/housekeeping"
	"storefront/internal/infra/export"
	"storefront/internal/infra/invoice"
	"storefront/internal/infra/notify"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 任意の外部サービス。nilなら無効
type Externals struct {
	Cache  usecase.ProductCache
	Mailer notify.MailSender
	Events notify.EventPublisher
}

// 組み立て済みのアプリ
type App struct {
	Echo    *echo.Echo
	Users   repository.UserRepository
	Cleanup *housekeeping.CleanupService
}

// GORMのrepositoryからhandlerまでを配線する
func Build(cfg config.Config, gormDB *gorm.DB, log *zap.Logger, ext Externals) *App {
	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	activityRepo := infraRepo.NewUserActivityGormRepository(gormDB)
	accessRepo := infraRepo.NewUserAccessLogGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	menuRepo := infraRepo.NewMenuGormRepository(gormDB)
	grantRepo := infraRepo.NewUserPermissionGormRepository(gormDB)
	brandRepo := infraRepo.NewBrandGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	imageRepo := infraRepo.NewProductImageGormRepository(gormDB)
	variantRepo := infraRepo.NewProductVariantGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	viewRepo := infraRepo.NewProductViewGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	notifier := notify.NewDispatcher(ext.Mailer, ext.Events, log)
	renderer := invoice.NewPDFRenderer("Storefront")

	//Usecase
	couponValidator := usecase.NewCouponValidator(nil)
	catalogUC := usecase.NewCatalogUsecase(brandRepo, categoryRepo)
	productUC := usecase.NewProductUsecase(usecase.ProductRepos{
		Products:   productRepo,
		Images:     imageRepo,
		Variants:   variantRepo,
		Inventory:  inventoryRepo,
		Views:      viewRepo,
		Categories: categoryRepo,
		Brands:     brandRepo,
		AuditLogs:  auditRepo,
	}, ext.Cache, export.NewProductExcel())
	cartUC := usecase.NewCartUsecase(txm, cartRepo, cartItemRepo, productRepo, imageRepo, couponRepo, couponValidator)
	couponUC := usecase.NewCouponUsecase(couponRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	orderUC := usecase.NewOrderUsecase(txm, addressRepo, userRepo, couponValidator, cfg.ShippingCharge, notifier, renderer)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, userRepo, notifier, renderer)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, activityRepo, accessRepo, cartUC, validator.NewAuthValidator(userRepo))
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, activityRepo, accessRepo, auditRepo)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	permissionUC := usecase.NewPermissionUsecase(menuRepo, grantRepo, userRepo, auditRepo)
	resolver := usecase.NewPermissionResolver(userRepo, grantRepo)
	tracker := usecase.NewActivityTracker(activityRepo, 0)

	//Handler
	h := Handlers{
		Auth:            handler.NewAuthHandler(authUC, usecase.RefreshTokenTTL, cfg.IsProd()),
		Product:         handler.NewProductHandler(productUC, catalogUC),
		Cart:            handler.NewCartHandler(cartUC),
		Order:           handler.NewOrderHandler(orderUC),
		Address:         handler.NewAddressHandler(addressUC),
		AdminProduct:    handler.NewAdminProductHandler(productUC),
		AdminCatalog:    handler.NewAdminCatalogHandler(catalogUC),
		AdminCoupon:     handler.NewAdminCouponHandler(couponUC),
		AdminOrder:      handler.NewAdminOrderHandler(adminOrderUC),
		AdminUser:       handler.NewAdminUserHandler(authUC, adminUserUC, auditUC),
		AdminPermission: handler.NewAdminPermissionHandler(permissionUC),
	}

	e := New(log, tracker)
	RegisterRoutes(e, cfg, userRepo, resolver, h)

	return &App{
		Echo:    e,
		Users:   userRepo,
		Cleanup: housekeeping.NewCleanupService(activityRepo, viewRepo, rtRepo, log),
	}
}
