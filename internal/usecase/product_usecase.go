package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	products   repo.ProductRepository
	images     repo.ProductImageRepository
	variants   repo.ProductVariantRepository
	inventory  repo.InventoryRepository
	views      repo.ProductViewRepository
	categories repo.CategoryRepository
	brands     repo.BrandRepository
	auditRepo  repo.AuditLogRepository
	cache      ProductCache
	exporter   ProductExporter
}

// 商品まわりのrepository
type ProductRepos struct {
	Products   repo.ProductRepository
	Images     repo.ProductImageRepository
	Variants   repo.ProductVariantRepository
	Inventory  repo.InventoryRepository
	Views      repo.ProductViewRepository
	Categories repo.CategoryRepository
	Brands     repo.BrandRepository
	AuditLogs  repo.AuditLogRepository
}

// DI
func NewProductUsecase(r ProductRepos, cache ProductCache, exporter ProductExporter) *ProductUsecase {
	if cache == nil {
		cache = noopCache{}
	}
	return &ProductUsecase{
		products:   r.Products,
		images:     r.Images,
		variants:   r.Variants,
		inventory:  r.Inventory,
		views:      r.Views,
		categories: r.Categories,
		brands:     r.Brands,
		auditRepo:  r.AuditLogs,
		cache:      cache,
		exporter:   exporter,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
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
}

// 一覧の1件（表示用の価格と画像つき）
type ProductCardOutput struct {
	model.Product
	EffectivePrice decimal.Decimal `json:"effective_price"`
	IsOnSale       bool            `json:"on_sale"`
	ImageURL       string          `json:"image_url"`
}

type ProductListOutput struct {
	Items []ProductCardOutput `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

type ProductDetailOutput struct {
	Product        model.Product          `json:"product"`
	EffectivePrice decimal.Decimal        `json:"effective_price"`
	IsOnSale       bool                   `json:"on_sale"`
	ImageURL       string                 `json:"image_url"`
	Images         []model.ProductImage   `json:"images"`
	Variants       []model.ProductVariant `json:"variants"`
	CategoryName   string                 `json:"category_name"`
	BrandName      string                 `json:"brand_name"`
}

// 閲覧者（同じセッションの閲覧は1回だけ数える）
type ProductViewer struct {
	UserID     *int64
	SessionKey string
	IP         string
	UserAgent  string
}

type ProductInput struct {
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	MainCategoryID int64            `json:"main_category_id"`
	SubCategoryID  *int64           `json:"sub_category_id"`
	BrandID        *int64           `json:"brand_id"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price"`
	Stock          int64            `json:"stock"`
	SKU            string           `json:"sku"`
	IsFeatured     bool             `json:"is_featured"`
}

type InventoryLogInput struct {
	ProductID  int64  `json:"product_id"`
	ChangeType string `json:"change_type"`
	Quantity   int64  `json:"quantity"`
	Remarks    string `json:"remarks"`
}

type InventoryLogListOutput struct {
	Items []model.InventoryLog `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	return u.list(ctx, in, repo.OnlyActive)
}

func (u *ProductUsecase) AdminListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	return u.list(ctx, in, repo.AnyStatus)
}

func (u *ProductUsecase) list(ctx context.Context, in ListProductsInput, f repo.StatusFilter) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "name", "popular":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Page:           in.Page,
		Limit:          in.Limit,
		Q:              strings.TrimSpace(in.Q),
		MainCategoryID: in.MainCategoryID,
		SubCategoryID:  in.SubCategoryID,
		BrandID:        in.BrandID,
		MinPrice:       in.MinPrice,
		MaxPrice:       in.MaxPrice,
		OnSale:         in.OnSale,
		InStock:        in.InStock,
		FeaturedOnly:   in.FeaturedOnly,
		Sort:           in.Sort,
		Status:         f,
	})
	if err != nil {
		return ProductListOutput{}, repoError(err)
	}

	ids := make([]int64, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	urls, err := u.images.PrimaryURLs(ctx, ids)
	if err != nil {
		return ProductListOutput{}, repoError(err)
	}

	cards := make([]ProductCardOutput, 0, len(items))
	for _, p := range items {
		cards = append(cards, ProductCardOutput{
			Product:        p,
			EffectivePrice: p.EffectivePrice(),
			IsOnSale:       p.OnSale(),
			ImageURL:       imageOrDefault(urls, p.ID),
		})
	}

	return ProductListOutput{
		Items: cards,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// 商品詳細（閲覧を記録）
func (u *ProductUsecase) GetProductDetail(ctx context.Context, slug string, viewer ProductViewer) (ProductDetailOutput, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}

	var out ProductDetailOutput
	if !u.cache.GetProduct(ctx, slug, &out) {
		p, err := u.products.FindBySlug(ctx, slug, repo.OnlyActive)
		if err != nil {
			return ProductDetailOutput{}, repoError(err)
		}
		out, err = u.detail(ctx, p)
		if err != nil {
			return ProductDetailOutput{}, err
		}
		u.cache.SetProduct(ctx, slug, out)
	}

	if strings.TrimSpace(viewer.SessionKey) != "" {
		//閲覧記録の失敗で詳細表示は止めない
		_, _ = u.views.Record(ctx, model.ProductView{
			ProductID:  out.Product.ID,
			SessionKey: viewer.SessionKey,
			UserID:     viewer.UserID,
			IPAddress:  viewer.IP,
			UserAgent:  truncate(viewer.UserAgent, 255),
		})
	}
	return out, nil
}

func (u *ProductUsecase) AdminGetProduct(ctx context.Context, id int64) (ProductDetailOutput, error) {
	p, err := u.products.FindByID(ctx, id, repo.AnyStatus)
	if err != nil {
		return ProductDetailOutput{}, repoError(err)
	}
	return u.detail(ctx, p)
}

func (u *ProductUsecase) detail(ctx context.Context, p model.Product) (ProductDetailOutput, error) {
	images, err := u.images.ListByProduct(ctx, p.ID)
	if err != nil {
		return ProductDetailOutput{}, repoError(err)
	}
	variants, err := u.variants.ListByProduct(ctx, p.ID)
	if err != nil {
		return ProductDetailOutput{}, repoError(err)
	}

	out := ProductDetailOutput{
		Product:        p,
		EffectivePrice: p.EffectivePrice(),
		IsOnSale:       p.OnSale(),
		ImageURL:       model.DefaultImageURL,
		Images:         images,
		Variants:       variants,
	}
	for _, img := range images {
		if img.IsPrimary {
			out.ImageURL = img.ImageURL
		}
	}

	if c, err := u.categories.FindMainByID(ctx, p.MainCategoryID, repo.AnyStatus); err == nil {
		out.CategoryName = c.Name
	}
	if p.BrandID != nil {
		if b, err := u.brands.FindByID(ctx, *p.BrandID, repo.AnyStatus); err == nil {
			out.BrandName = b.Name
		}
	}
	return out, nil
}

// 入力チェックとカテゴリ・ブランドの存在確認
func (u *ProductUsecase) validateProduct(ctx context.Context, in ProductInput) (model.Product, string, string, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return model.Product{}, "", "", err
	}
	if in.Price.IsNegative() {
		return model.Product{}, "", "", NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	sale := decimal.NullDecimal{}
	if in.SalePrice != nil {
		if in.SalePrice.IsNegative() || in.SalePrice.GreaterThan(in.Price) {
			return model.Product{}, "", "", NewHTTPError(http.StatusBadRequest, "sale_price must be between 0 and price")
		}
		sale = decimal.NewNullDecimal(in.SalePrice.Round(2))
	}

	cat, err := u.categories.FindMainByID(ctx, in.MainCategoryID, repo.OnlyActive)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, "", "", NewHTTPError(http.StatusBadRequest, "invalid main_category_id")
	}
	if err != nil {
		return model.Product{}, "", "", repoError(err)
	}
	if in.SubCategoryID != nil {
		sub, err := u.categories.FindSubByID(ctx, *in.SubCategoryID, repo.OnlyActive)
		if err != nil || sub.MainCategoryID != cat.ID {
			return model.Product{}, "", "", NewHTTPError(http.StatusBadRequest, "invalid sub_category_id")
		}
	}
	brandName := ""
	if in.BrandID != nil {
		b, err := u.brands.FindByID(ctx, *in.BrandID, repo.OnlyActive)
		if err != nil {
			return model.Product{}, "", "", NewHTTPError(http.StatusBadRequest, "invalid brand_id")
		}
		brandName = b.Name
	}

	return model.Product{
		Name:           name,
		Description:    in.Description,
		MainCategoryID: cat.ID,
		SubCategoryID:  in.SubCategoryID,
		BrandID:        in.BrandID,
		Price:          in.Price.Round(2),
		SalePrice:      sale,
		SKU:            strings.TrimSpace(in.SKU),
		IsFeatured:     in.IsFeatured,
	}, cat.Name, brandName, nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in ProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	p, catName, brandName, err := u.validateProduct(ctx, in)
	if err != nil {
		return model.Product{}, err
	}

	if p.Slug, err = uniqueSlug(ctx, p.Name, 0, u.products.SlugExists); err != nil {
		return model.Product{}, repoError(err)
	}
	p.Status = model.RecordStatusActive

	created, err := u.products.Create(ctx, p)
	if err != nil {
		return model.Product{}, conflictOr(err, "product already exists")
	}

	// SKUはIDが決まってから
	if created.SKU == "" {
		created.SKU = model.BuildSKU(catName, brandName, created.ID)
		if err := u.products.SetSKU(ctx, created.ID, created.SKU); err != nil {
			return model.Product{}, repoError(err)
		}
	}

	//初期在庫も在庫ログ経由で入れる
	if in.Stock > 0 {
		if _, err := u.CreateInventoryLog(ctx, adminUserID, InventoryLogInput{
			ProductID:  created.ID,
			ChangeType: string(model.InventoryIn),
			Quantity:   in.Stock,
			Remarks:    "initial stock",
		}); err != nil {
			return model.Product{}, err
		}
		created.Stock = in.Stock
	}
	return created, nil
}

// 在庫は変えない（在庫ログを使う）
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in ProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	current, err := u.products.FindByID(ctx, productID, repo.AnyStatus)
	if err != nil {
		return model.Product{}, repoError(err)
	}
	p, catName, brandName, err := u.validateProduct(ctx, in)
	if err != nil {
		return model.Product{}, err
	}

	p.ID = productID
	p.Slug = current.Slug
	if p.Name != current.Name {
		if p.Slug, err = uniqueSlug(ctx, p.Name, productID, u.products.SlugExists); err != nil {
			return model.Product{}, repoError(err)
		}
	}
	if p.SKU == "" {
		p.SKU = model.BuildSKU(catName, brandName, productID)
	}

	if err := u.products.Update(ctx, p); err != nil {
		return model.Product{}, conflictOr(err, "product already exists")
	}
	if err := u.products.SetFeatured(ctx, productID, p.IsFeatured); err != nil {
		return model.Product{}, repoError(err)
	}
	u.cache.InvalidateProduct(ctx, current.Slug)

	updated, err := u.products.FindByID(ctx, productID, repo.AnyStatus)
	if err != nil {
		return model.Product{}, repoError(err)
	}
	return updated, nil
}

// 削除はarchivedにする（注文明細から参照されるため）
func (u *ProductUsecase) AdminSetStatus(ctx context.Context, productID int64, status model.RecordStatus) error {
	if !status.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return u.mutate(ctx, productID, func() error {
		return u.products.SetStatus(ctx, productID, status)
	})
}

func (u *ProductUsecase) AdminSetFeatured(ctx context.Context, productID int64, featured bool) error {
	return u.mutate(ctx, productID, func() error {
		return u.products.SetFeatured(ctx, productID, featured)
	})
}

// 更新してキャッシュを消す
func (u *ProductUsecase) mutate(ctx context.Context, productID int64, fn func() error) error {
	p, err := u.products.FindByID(ctx, productID, repo.AnyStatus)
	if err != nil {
		return repoError(err)
	}
	if err := fn(); err != nil {
		return repoError(err)
	}
	u.cache.InvalidateProduct(ctx, p.Slug)
	return nil
}

func (u *ProductUsecase) AddImage(ctx context.Context, productID int64, imageURL string, primary bool) (model.ProductImage, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" || len(imageURL) > 500 {
		return model.ProductImage{}, NewHTTPError(http.StatusBadRequest, "invalid image_url")
	}

	var img model.ProductImage
	err := u.mutate(ctx, productID, func() error {
		var err error
		img, err = u.images.Add(ctx, model.ProductImage{ProductID: productID, ImageURL: imageURL, IsPrimary: primary})
		return err
	})
	return img, err
}

func (u *ProductUsecase) SetPrimaryImage(ctx context.Context, productID int64, imageID int64) error {
	return u.mutate(ctx, productID, func() error {
		return u.images.SetPrimary(ctx, productID, imageID)
	})
}

func (u *ProductUsecase) DeleteImage(ctx context.Context, productID int64, imageID int64) error {
	img, err := u.images.FindByID(ctx, imageID)
	if err != nil {
		return repoError(err)
	}
	if img.ProductID != productID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	return u.mutate(ctx, productID, func() error {
		return u.images.Delete(ctx, imageID)
	})
}

type VariantInput struct {
	VariantName     string          `json:"variant_name"`
	Value           string          `json:"value"`
	PriceDifference decimal.Decimal `json:"price_difference"`
}

func validateVariant(in VariantInput) (model.ProductVariant, error) {
	name := strings.TrimSpace(in.VariantName)
	value := strings.TrimSpace(in.Value)
	if name == "" || value == "" || len(name) > 100 || len(value) > 100 {
		return model.ProductVariant{}, NewHTTPError(http.StatusBadRequest, "variant_name and value required")
	}
	return model.ProductVariant{VariantName: name, Value: value, PriceDifference: in.PriceDifference.Round(2)}, nil
}

func (u *ProductUsecase) CreateVariant(ctx context.Context, productID int64, in VariantInput) (model.ProductVariant, error) {
	v, err := validateVariant(in)
	if err != nil {
		return model.ProductVariant{}, err
	}
	v.ProductID = productID

	var created model.ProductVariant
	err = u.mutate(ctx, productID, func() error {
		var err error
		created, err = u.variants.Create(ctx, v)
		return err
	})
	if errors.Is(err, ErrConflict) {
		return model.ProductVariant{}, NewHTTPError(http.StatusConflict, "variant already exists")
	}
	return created, err
}

func (u *ProductUsecase) UpdateVariant(ctx context.Context, productID int64, variantID int64, in VariantInput) (model.ProductVariant, error) {
	v, err := validateVariant(in)
	if err != nil {
		return model.ProductVariant{}, err
	}
	current, err := u.variants.FindByID(ctx, variantID)
	if err != nil {
		return model.ProductVariant{}, repoError(err)
	}
	if current.ProductID != productID {
		return model.ProductVariant{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	v.ID = variantID
	v.ProductID = productID
	if err := u.mutate(ctx, productID, func() error { return u.variants.Update(ctx, v) }); err != nil {
		if errors.Is(err, ErrConflict) {
			return model.ProductVariant{}, NewHTTPError(http.StatusConflict, "variant already exists")
		}
		return model.ProductVariant{}, err
	}
	updated, err := u.variants.FindByID(ctx, variantID)
	if err != nil {
		return model.ProductVariant{}, repoError(err)
	}
	return updated, nil
}

func (u *ProductUsecase) DeleteVariant(ctx context.Context, productID int64, variantID int64) error {
	current, err := u.variants.FindByID(ctx, variantID)
	if err != nil {
		return repoError(err)
	}
	if current.ProductID != productID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	return u.mutate(ctx, productID, func() error { return u.variants.Delete(ctx, variantID) })
}

// 在庫ログを作り、在庫を増減する（マイナスにはしない）
func (u *ProductUsecase) CreateInventoryLog(ctx context.Context, adminUserID int64, in InventoryLogInput) (model.InventoryLog, error) {
	if adminUserID <= 0 {
		return model.InventoryLog{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return model.InventoryLog{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	kind := model.InventoryChange(in.ChangeType)
	if kind != model.InventoryIn && kind != model.InventoryOut {
		return model.InventoryLog{}, NewHTTPError(http.StatusBadRequest, "change_type must be in or out")
	}
	if in.Quantity <= 0 {
		return model.InventoryLog{}, NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
	}

	//変更前の在庫（before）
	p, err := u.products.FindByID(ctx, in.ProductID, repo.AnyStatus)
	if err != nil {
		return model.InventoryLog{}, repoError(err)
	}

	actor := adminUserID
	log := model.InventoryLog{
		ProductID:   in.ProductID,
		ChangeType:  kind,
		Quantity:    in.Quantity,
		Remarks:     strings.TrimSpace(in.Remarks),
		ActorUserID: &actor,
	}
	ok, err := u.inventory.ApplyLog(ctx, log)
	if err != nil {
		return model.InventoryLog{}, repoError(err)
	}
	if !ok {
		return model.InventoryLog{}, NewHTTPError(http.StatusBadRequest, "insufficient stock")
	}

	//監査ログを作成（在庫更新）
	entry := model.NewAuditLog(adminUserID, model.AuditActionUpdateStock, model.AuditResourceProduct, in.ProductID,
		map[string]any{"stock": p.Stock}, map[string]any{"stock": p.Stock + log.Delta()})
	if err := u.auditRepo.Create(ctx, entry); err != nil {
		return model.InventoryLog{}, repoError(err)
	}

	u.cache.InvalidateProduct(ctx, p.Slug)
	return log, nil
}

func (u *ProductUsecase) ListInventoryLogs(ctx context.Context, productID *int64, page int, limit int) (InventoryLogListOutput, error) {
	logs, total, err := u.inventory.ListLogs(ctx, productID, page, limit)
	if err != nil {
		return InventoryLogListOutput{}, repoError(err)
	}
	return InventoryLogListOutput{Items: logs, Total: total, Page: page, Limit: limit}, nil
}

// 全商品をExcelで書き出す
func (u *ProductUsecase) ExportProducts(ctx context.Context, w io.Writer) error {
	const pageSize = 100

	all := []model.Product{}
	for page := 1; ; page++ {
		items, total, err := u.products.List(ctx, repo.ProductListQuery{Page: page, Limit: pageSize, Sort: "name", Status: repo.AnyStatus})
		if err != nil {
			return repoError(err)
		}
		all = append(all, items...)
		if len(items) < pageSize || int64(len(all)) >= total {
			break
		}
	}

	if err := u.exporter.Export(w, all); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "export error")
	}
	return nil
}

func imageOrDefault(urls map[int64]string, productID int64) string {
	if u, ok := urls[productID]; ok && u != "" {
		return u
	}
	return model.DefaultImageURL
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
