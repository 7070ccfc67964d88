package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page       int
	Limit      int
	Status     model.OrderStatus
	CustomerID *int64
	From       *time.Time
	To         *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	ListByCustomerID(ctx context.Context, customerID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	// 金額・支払状態を上書き保存
	UpdateTotals(ctx context.Context, order model.Order) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, customerID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}

type OrderDetailRepository interface {
	CreateBulk(ctx context.Context, orderID int64, details []model.OrderDetail) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderDetail, error)
	DeleteByOrderID(ctx context.Context, orderID int64) error
}

type OrderPaymentRepository interface {
	Create(ctx context.Context, p model.OrderPayment) (model.OrderPayment, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderPayment, error)
}

// 年月ごとの連番を払い出す
type OrderSequenceRepository interface {
	Next(ctx context.Context, period string) (int64, error)
}

type OrderAddressRepository interface {
	Create(ctx context.Context, a model.OrderAddress) (model.OrderAddress, error)
	FindByID(ctx context.Context, id int64) (model.OrderAddress, error)
}
