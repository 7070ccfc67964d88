package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== Fake: categories / brands =====
type fakeCatalog struct {
	mains  map[int64]model.MainCategory
	subs   map[int64]model.SubCategory
	brands map[int64]model.Brand
}

func (f *fakeCatalog) nextID() int64 {
	return int64(len(f.mains)+len(f.subs)+len(f.brands)) + 100
}

func (f *fakeCatalog) ListMain(_ context.Context, st repo.StatusFilter) ([]model.MainCategory, error) {
	out := []model.MainCategory{}
	for _, c := range f.mains {
		if matchStatus(c.Status, st) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (f *fakeCatalog) FindMainByID(_ context.Context, id int64, st repo.StatusFilter) (model.MainCategory, error) {
	c, ok := f.mains[id]
	if !ok || !matchStatus(c.Status, st) {
		return model.MainCategory{}, repo.ErrNotFound
	}
	return c, nil
}
func (f *fakeCatalog) CreateMain(_ context.Context, c model.MainCategory) (model.MainCategory, error) {
	for _, x := range f.mains {
		if x.Name == c.Name {
			return model.MainCategory{}, repo.ErrConflict
		}
	}
	c.ID = f.nextID()
	f.mains[c.ID] = c
	return c, nil
}
func (f *fakeCatalog) UpdateMain(_ context.Context, c model.MainCategory) error {
	f.mains[c.ID] = c
	return nil
}
func (f *fakeCatalog) SetMainStatus(_ context.Context, id int64, st model.RecordStatus) error {
	c, ok := f.mains[id]
	if !ok {
		return repo.ErrNotFound
	}
	c.Status = st
	f.mains[id] = c
	return nil
}
func (f *fakeCatalog) MainSlugExists(_ context.Context, slug string, exceptID int64) (bool, error) {
	for id, c := range f.mains {
		if c.Slug == slug && id != exceptID {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeCatalog) ListSub(_ context.Context, mainID *int64, st repo.StatusFilter) ([]model.SubCategory, error) {
	out := []model.SubCategory{}
	for _, c := range f.subs {
		if matchStatus(c.Status, st) && (mainID == nil || c.MainCategoryID == *mainID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (f *fakeCatalog) FindSubByID(_ context.Context, id int64, st repo.StatusFilter) (model.SubCategory, error) {
	c, ok := f.subs[id]
	if !ok || !matchStatus(c.Status, st) {
		return model.SubCategory{}, repo.ErrNotFound
	}
	return c, nil
}
func (f *fakeCatalog) CreateSub(_ context.Context, c model.SubCategory) (model.SubCategory, error) {
	c.ID = f.nextID()
	f.subs[c.ID] = c
	return c, nil
}
func (f *fakeCatalog) UpdateSub(_ context.Context, c model.SubCategory) error {
	f.subs[c.ID] = c
	return nil
}
func (f *fakeCatalog) SetSubStatus(context.Context, int64, model.RecordStatus) error {
	return nil
}
func (f *fakeCatalog) SubSlugExists(_ context.Context, slug string, exceptID int64) (bool, error) {
	for id, c := range f.subs {
		if c.Slug == slug && id != exceptID {
			return true, nil
		}
	}
	return false, nil
}

type fakeBrands struct{ c *fakeCatalog }

func (f fakeBrands) List(_ context.Context, st repo.StatusFilter) ([]model.Brand, error) {
	out := []model.Brand{}
	for _, b := range f.c.brands {
		if matchStatus(b.Status, st) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (f fakeBrands) FindByID(_ context.Context, id int64, st repo.StatusFilter) (model.Brand, error) {
	b, ok := f.c.brands[id]
	if !ok || !matchStatus(b.Status, st) {
		return model.Brand{}, repo.ErrNotFound
	}
	return b, nil
}
func (f fakeBrands) Create(_ context.Context, b model.Brand) (model.Brand, error) {
	for _, x := range f.c.brands {
		if x.Name == b.Name {
			return model.Brand{}, repo.ErrConflict
		}
	}
	b.ID = f.c.nextID()
	f.c.brands[b.ID] = b
	return b, nil
}
func (f fakeBrands) Update(_ context.Context, b model.Brand) error {
	f.c.brands[b.ID] = b
	return nil
}
func (f fakeBrands) SetStatus(_ context.Context, id int64, st model.RecordStatus) error {
	b, ok := f.c.brands[id]
	if !ok {
		return repo.ErrNotFound
	}
	b.Status = st
	f.c.brands[id] = b
	return nil
}
func (f fakeBrands) SlugExists(_ context.Context, slug string, exceptID int64) (bool, error) {
	for id, b := range f.c.brands {
		if b.Slug == slug && id != exceptID {
			return true, nil
		}
	}
	return false, nil
}

// ===== Fake: variants / views =====
type fakeVariants struct{}

func (fakeVariants) ListByProduct(context.Context, int64) ([]model.ProductVariant, error) {
	return []model.ProductVariant{}, nil
}
func (fakeVariants) FindByID(context.Context, int64) (model.ProductVariant, error) {
	return model.ProductVariant{}, repo.ErrNotFound
}
func (fakeVariants) Create(_ context.Context, v model.ProductVariant) (model.ProductVariant, error) {
	return v, nil
}
func (fakeVariants) Update(context.Context, model.ProductVariant) error { return nil }
func (fakeVariants) Delete(context.Context, int64) error                { return nil }

type fakeViews struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (f *fakeViews) Record(_ context.Context, v model.ProductView) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	key := v.SessionKey
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}
func (f *fakeViews) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

// ===== Fake: cache / exporter =====
type mapCache struct {
	m           map[string]ProductDetailOutput
	gets        int
	invalidated []string
}

func (c *mapCache) GetProduct(_ context.Context, slug string, dst *ProductDetailOutput) bool {
	c.gets++
	v, ok := c.m[slug]
	if ok {
		*dst = v
	}
	return ok
}
func (c *mapCache) SetProduct(_ context.Context, slug string, v ProductDetailOutput) {
	c.m[slug] = v
}
func (c *mapCache) InvalidateProduct(_ context.Context, slug string) {
	delete(c.m, slug)
	c.invalidated = append(c.invalidated, slug)
}

type countingExporter struct {
	got []model.Product
	err error
}

func (e *countingExporter) Export(w io.Writer, products []model.Product) error {
	e.got = products
	if e.err != nil {
		return e.err
	}
	_, err := w.Write([]byte("ok"))
	return err
}

type productFixture struct {
	store    *memStore
	catalog  *fakeCatalog
	views    *fakeViews
	cache    *mapCache
	exporter *countingExporter
	uc       *ProductUsecase
}

func newProductFixture() *productFixture {
	s := newMemStore()
	cat := &fakeCatalog{
		mains: map[int64]model.MainCategory{
			1: {ID: 1, Name: "Kitchen", Status: model.RecordStatusActive},
			2: {ID: 2, Name: "Garden", Status: model.RecordStatusArchived},
		},
		subs: map[int64]model.SubCategory{
			10: {ID: 10, MainCategoryID: 1, Name: "Cups", Status: model.RecordStatusActive},
			20: {ID: 20, MainCategoryID: 3, Name: "Other", Status: model.RecordStatusActive},
		},
		brands: map[int64]model.Brand{
			5: {ID: 5, Name: "Acme", Status: model.RecordStatusActive},
		},
	}
	f := &productFixture{
		store:    s,
		catalog:  cat,
		views:    &fakeViews{},
		cache:    &mapCache{m: map[string]ProductDetailOutput{}},
		exporter: &countingExporter{},
	}
	f.uc = NewProductUsecase(ProductRepos{
		Products:   memProducts{s},
		Images:     memImages{s},
		Variants:   fakeVariants{},
		Inventory:  memInventory{s},
		Views:      f.views,
		Categories: cat,
		Brands:     fakeBrands{cat},
		AuditLogs:  memAudit{s},
	}, f.cache, f.exporter)
	return f
}

func ptr[T any](v T) *T { return &v }

func TestProduct_AdminCreate(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()

	p, err := f.uc.AdminCreateProduct(ctx, 1, ProductInput{
		Name:           "  Blue Mug ",
		MainCategoryID: 1,
		SubCategoryID:  ptr(int64(10)),
		BrandID:        ptr(int64(5)),
		Price:          dec("12.345"),
		Stock:          7,
	})
	require.NoError(t, err)

	assert.Equal(t, "Blue Mug", p.Name)
	assert.Equal(t, "blue-mug", p.Slug)
	assert.Equal(t, "12.35", p.Price.StringFixed(2))
	assert.Equal(t, model.BuildSKU("Kitchen", "Acme", p.ID), p.SKU)
	assert.Equal(t, int64(7), f.store.product(p.ID).Stock)

	// 初期在庫は在庫ログとして残る
	logs, err := f.uc.ListInventoryLogs(ctx, &p.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs.Items, 1)
	assert.Equal(t, model.InventoryIn, logs.Items[0].ChangeType)
	assert.Equal(t, "initial stock", logs.Items[0].Remarks)
	assert.Contains(t, f.store.auditActions(), model.AuditActionUpdateStock)
}

func TestProduct_AdminCreateUniqueSlug(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.store.addProduct(model.Product{Name: "Old Lamp", Slug: "lamp"})

	p, err := f.uc.AdminCreateProduct(ctx, 1, ProductInput{Name: "Lamp", MainCategoryID: 1, Price: dec("5")})
	require.NoError(t, err)
	assert.Equal(t, "lamp-1", p.Slug)
	assert.Equal(t, "KIT-GEN-"+strconv.FormatInt(p.ID, 10), p.SKU)
}

func TestProduct_AdminCreateValidation(t *testing.T) {
	f := newProductFixture()

	cases := []struct {
		name  string
		admin int64
		in    ProductInput
		want  error
	}{
		{"no admin", 0, ProductInput{Name: "A", MainCategoryID: 1}, ErrUnauthorized},
		{"negative stock", 1, ProductInput{Name: "A", MainCategoryID: 1, Stock: -1}, ErrValidation},
		{"blank name", 1, ProductInput{Name: "  ", MainCategoryID: 1}, ErrValidation},
		{"negative price", 1, ProductInput{Name: "A", MainCategoryID: 1, Price: dec("-1")}, ErrValidation},
		{"sale above price", 1, ProductInput{Name: "A", MainCategoryID: 1, Price: dec("5"), SalePrice: ptr(dec("6"))}, ErrValidation},
		{"archived category", 1, ProductInput{Name: "A", MainCategoryID: 2}, ErrValidation},
		{"unknown category", 1, ProductInput{Name: "A", MainCategoryID: 99}, ErrValidation},
		{"sub of other main", 1, ProductInput{Name: "A", MainCategoryID: 1, SubCategoryID: ptr(int64(20))}, ErrValidation},
		{"unknown brand", 1, ProductInput{Name: "A", MainCategoryID: 1, BrandID: ptr(int64(9))}, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.AdminCreateProduct(context.Background(), tc.admin, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestProduct_DetailCacheAndViews(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	p := f.store.addProduct(model.Product{Name: "Teapot", Price: dec("30"), MainCategoryID: 1, BrandID: ptr(int64(5))})

	viewer := ProductViewer{SessionKey: "s1", UserAgent: string(bytes.Repeat([]byte("a"), 400))}
	out, err := f.uc.GetProductDetail(ctx, p.Slug, viewer)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", out.CategoryName)
	assert.Equal(t, "Acme", out.BrandName)
	assert.Equal(t, model.DefaultImageURL, out.ImageURL)
	assert.Contains(t, f.cache.m, p.Slug)

	// 2回目はキャッシュから（DBの変更は見えない）
	require.NoError(t, memProducts{f.store}.SetFeatured(ctx, p.ID, true))
	out, err = f.uc.GetProductDetail(ctx, p.Slug, viewer)
	require.NoError(t, err)
	assert.False(t, out.Product.IsFeatured)
	assert.True(t, f.views.seen["s1"])

	// 更新でキャッシュが消える
	require.NoError(t, f.uc.AdminSetFeatured(ctx, p.ID, true))
	assert.Equal(t, []string{p.Slug}, f.cache.invalidated)
	out, err = f.uc.GetProductDetail(ctx, p.Slug, ProductViewer{})
	require.NoError(t, err)
	assert.True(t, out.Product.IsFeatured)
}

func TestProduct_DetailIgnoresViewFailure(t *testing.T) {
	f := newProductFixture()
	p := f.store.addProduct(model.Product{Name: "Bowl", Price: dec("3"), MainCategoryID: 1})
	f.views.err = errors.New("db down")

	_, err := f.uc.GetProductDetail(context.Background(), p.Slug, ProductViewer{SessionKey: "s"})
	assert.NoError(t, err)
}

func TestProduct_DetailHidesArchived(t *testing.T) {
	f := newProductFixture()
	p := f.store.addProduct(model.Product{Name: "Gone", Price: dec("3"), MainCategoryID: 1})
	require.NoError(t, f.uc.AdminSetStatus(context.Background(), p.ID, model.RecordStatusArchived))

	_, err := f.uc.GetProductDetail(context.Background(), p.Slug, ProductViewer{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.uc.GetProductDetail(context.Background(), " ", ProductViewer{})
	assert.ErrorIs(t, err, ErrValidation)

	admin, err := f.uc.AdminGetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusArchived, admin.Product.Status)

	err = f.uc.AdminSetStatus(context.Background(), p.ID, model.RecordStatus("deleted"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProduct_ListValidation(t *testing.T) {
	f := newProductFixture()
	f.store.addProduct(model.Product{Name: "A", Price: dec("1")})
	f.store.addProduct(model.Product{Name: "B", Price: dec("1"), Status: model.RecordStatusArchived})

	bad := []ListProductsInput{
		{Page: 0, Limit: 10},
		{Page: 1, Limit: 101},
		{Page: 1, Limit: 10, Sort: "random"},
		{Page: 1, Limit: 10, MinPrice: ptr(dec("-1"))},
		{Page: 1, Limit: 10, MinPrice: ptr(dec("10")), MaxPrice: ptr(dec("5"))},
	}
	for _, in := range bad {
		_, err := f.uc.ListPublicProducts(context.Background(), in)
		assert.ErrorIs(t, err, ErrValidation)
	}

	pub, err := f.uc.ListPublicProducts(context.Background(), ListProductsInput{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pub.Total)

	all, err := f.uc.AdminListProducts(context.Background(), ListProductsInput{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func TestProduct_InventoryLog(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	p := f.store.addProduct(model.Product{Name: "Chair", Price: dec("20"), Stock: 3})

	_, err := f.uc.CreateInventoryLog(ctx, 1, InventoryLogInput{ProductID: p.ID, ChangeType: "out", Quantity: 4})
	assert.EqualError(t, err, "400: insufficient stock")
	assert.Equal(t, int64(3), f.store.product(p.ID).Stock)

	_, err = f.uc.CreateInventoryLog(ctx, 1, InventoryLogInput{ProductID: p.ID, ChangeType: "move", Quantity: 1})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.uc.CreateInventoryLog(ctx, 1, InventoryLogInput{ProductID: p.ID, ChangeType: "in", Quantity: 0})
	assert.ErrorIs(t, err, ErrValidation)

	log, err := f.uc.CreateInventoryLog(ctx, 1, InventoryLogInput{ProductID: p.ID, ChangeType: "out", Quantity: 3, Remarks: " damaged "})
	require.NoError(t, err)
	assert.Equal(t, "damaged", log.Remarks)
	require.NotNil(t, log.ActorUserID)
	assert.Equal(t, int64(1), *log.ActorUserID)
	assert.Equal(t, int64(0), f.store.product(p.ID).Stock)
}

func TestProduct_Export(t *testing.T) {
	f := newProductFixture()
	for i := 0; i < 150; i++ {
		f.store.addProduct(model.Product{Name: "P" + strconv.Itoa(i), Price: dec("1")})
	}

	var buf bytes.Buffer
	require.NoError(t, f.uc.ExportProducts(context.Background(), &buf))
	assert.Len(t, f.exporter.got, 150)
	assert.Equal(t, "ok", buf.String())

	f.exporter.err = errors.New("disk full")
	assert.ErrorIs(t, f.uc.ExportProducts(context.Background(), &buf), ErrInternal)
}
