package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderDetails() OrderDetailRepository
	OrderPayments() OrderPaymentRepository
	OrderSequences() OrderSequenceRepository
	OrderAddresses() OrderAddressRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Coupons() CouponRepository
	Inventory() InventoryRepository
	Products() ProductRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
