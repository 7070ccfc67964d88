package export

import (
	"fmt"
	"io"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/tealeg/xlsx"
)

const productSheet = "Products"

var productHeader = []string{
	"ID", "Name", "Slug", "SKU", "Main category", "Sub category", "Brand",
	"Price", "Sale price", "Stock", "Featured", "Views", "Status", "Created at",
}

// 商品一覧を1シートのxlsxで書き出す
type ProductExcel struct{}

var _ usecase.ProductExporter = ProductExcel{}

func NewProductExcel() ProductExcel {
	return ProductExcel{}
}

func (ProductExcel) Export(w io.Writer, products []model.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(productSheet)
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range productHeader {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt64(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Slug)
		row.AddCell().SetValue(p.SKU)
		row.AddCell().SetInt64(p.MainCategoryID)
		row.AddCell().SetValue(optionalID(p.SubCategoryID))
		row.AddCell().SetValue(optionalID(p.BrandID))
		row.AddCell().SetValue(p.Price.StringFixed(2))
		sale := ""
		if p.SalePrice.Valid {
			sale = p.SalePrice.Decimal.StringFixed(2)
		}
		row.AddCell().SetValue(sale)
		row.AddCell().SetInt64(p.Stock)
		row.AddCell().SetBool(p.IsFeatured)
		row.AddCell().SetInt64(p.TotalViews)
		row.AddCell().SetValue(string(p.Status))
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return file.Write(w)
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}
