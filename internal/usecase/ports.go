package usecase

import (
	"context"
	"io"

	"storefront/internal/domain/model"
)

// 商品詳細の読み取りキャッシュ（無効なら常にミス）
type ProductCache interface {
	GetProduct(ctx context.Context, slug string, dst *ProductDetailOutput) bool
	SetProduct(ctx context.Context, slug string, v ProductDetailOutput)
	InvalidateProduct(ctx context.Context, slug string)
}

// 注文確定後の通知（メール・イベント）。失敗しても注文は巻き戻さない
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, o OrderOutput, email string)
	OrderStatusChanged(ctx context.Context, o OrderOutput, email string)
	PaymentCompleted(ctx context.Context, o OrderOutput, email string)
}

// 請求書PDF
type InvoiceRenderer interface {
	Render(w io.Writer, o OrderOutput) error
}

// 商品一覧のExcel出力
type ProductExporter interface {
	Export(w io.Writer, products []model.Product) error
}

type noopCache struct{}

func (noopCache) GetProduct(context.Context, string, *ProductDetailOutput) bool { return false }
func (noopCache) SetProduct(context.Context, string, ProductDetailOutput)       {}
func (noopCache) InvalidateProduct(context.Context, string)                     {}

type noopNotifier struct{}

func (noopNotifier) OrderPlaced(context.Context, OrderOutput, string)        {}
func (noopNotifier) OrderStatusChanged(context.Context, OrderOutput, string) {}
func (noopNotifier) PaymentCompleted(context.Context, OrderOutput, string)   {}
