package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders         repo.OrderRepository
	orderDetails   repo.OrderDetailRepository
	orderPayments  repo.OrderPaymentRepository
	orderSequences repo.OrderSequenceRepository
	orderAddresses repo.OrderAddressRepository
	carts          repo.CartRepository
	cartItems      repo.CartItemRepository
	coupons        repo.CouponRepository
	inventory      repo.InventoryRepository
	products       repo.ProductRepository
	auditLogs      repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                 { return r.orders }
func (r *txReposGorm) OrderDetails() repo.OrderDetailRepository     { return r.orderDetails }
func (r *txReposGorm) OrderPayments() repo.OrderPaymentRepository   { return r.orderPayments }
func (r *txReposGorm) OrderSequences() repo.OrderSequenceRepository { return r.orderSequences }
func (r *txReposGorm) OrderAddresses() repo.OrderAddressRepository  { return r.orderAddresses }
func (r *txReposGorm) Carts() repo.CartRepository                   { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository           { return r.cartItems }
func (r *txReposGorm) Coupons() repo.CouponRepository               { return r.coupons }
func (r *txReposGorm) Inventory() repo.InventoryRepository          { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository             { return r.products }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository           { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:         NewOrderGormRepository(tx),
			orderDetails:   NewOrderDetailGormRepository(tx),
			orderPayments:  NewOrderPaymentGormRepository(tx),
			orderSequences: NewOrderSequenceGormRepository(tx),
			orderAddresses: NewOrderAddressGormRepository(tx),
			carts:          NewCartGormRepository(tx),
			cartItems:      NewCartItemGormRepository(tx),
			coupons:        NewCouponGormRepository(tx),
			inventory:      NewInventoryGormRepository(tx),
			products:       NewProductGormRepository(tx),
			auditLogs:      NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}

// 実装がインターフェースを満たしているか
var (
	_ repo.OrderRepository         = (*OrderGormRepository)(nil)
	_ repo.OrderDetailRepository   = (*OrderDetailGormRepository)(nil)
	_ repo.OrderPaymentRepository  = (*OrderPaymentGormRepository)(nil)
	_ repo.OrderSequenceRepository = (*OrderSequenceGormRepository)(nil)
	_ repo.OrderAddressRepository  = (*OrderAddressGormRepository)(nil)
	_ repo.CartRepository          = (*CartGormRepository)(nil)
	_ repo.CartItemRepository      = (*CartItemGormRepository)(nil)
	_ repo.CouponRepository        = (*CouponGormRepository)(nil)
	_ repo.InventoryRepository     = (*InventoryGormRepository)(nil)
	_ repo.ProductRepository       = (*ProductGormRepository)(nil)
	_ repo.TransactionManager      = (*TxManagerGorm)(nil)
)
