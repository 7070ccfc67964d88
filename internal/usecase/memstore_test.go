package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// =====================
// インメモリのリポジトリ一式（WithinTxは失敗時にスナップショットへ戻す）
// =====================

type memData struct {
	nextID     int64
	users      map[int64]model.User
	products   map[int64]model.Product
	images     map[int64]model.ProductImage
	carts      map[int64]model.Cart
	cartItems  map[int64]model.CartItem
	coupons    map[int64]model.Coupon
	addresses  map[int64]model.Address
	orders     map[int64]model.Order
	details    map[int64][]model.OrderDetail
	payments   map[int64][]model.OrderPayment
	orderAddrs map[int64]model.OrderAddress
	seq        map[string]int64
	invLogs    []model.InventoryLog
	audits     []model.AuditLog
}

type memStore struct {
	mu sync.Mutex
	d  memData
	// ロールバックされない呼び出し順の記録
	calls []string
}

func newMemStore() *memStore {
	return &memStore{d: memData{
		users:      map[int64]model.User{},
		products:   map[int64]model.Product{},
		images:     map[int64]model.ProductImage{},
		carts:      map[int64]model.Cart{},
		cartItems:  map[int64]model.CartItem{},
		coupons:    map[int64]model.Coupon{},
		addresses:  map[int64]model.Address{},
		orders:     map[int64]model.Order{},
		details:    map[int64][]model.OrderDetail{},
		payments:   map[int64][]model.OrderPayment{},
		orderAddrs: map[int64]model.OrderAddress{},
		seq:        map[string]int64{},
	}}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d memData) clone() memData {
	c := d
	c.users = copyMap(d.users)
	c.products = copyMap(d.products)
	c.images = copyMap(d.images)
	c.carts = copyMap(d.carts)
	c.cartItems = copyMap(d.cartItems)
	c.coupons = copyMap(d.coupons)
	c.addresses = copyMap(d.addresses)
	c.orders = copyMap(d.orders)
	c.details = map[int64][]model.OrderDetail{}
	for k, v := range d.details {
		c.details[k] = append([]model.OrderDetail(nil), v...)
	}
	c.payments = map[int64][]model.OrderPayment{}
	for k, v := range d.payments {
		c.payments[k] = append([]model.OrderPayment(nil), v...)
	}
	c.orderAddrs = copyMap(d.orderAddrs)
	c.seq = copyMap(d.seq)
	c.invLogs = append([]model.InventoryLog(nil), d.invLogs...)
	c.audits = append([]model.AuditLog(nil), d.audits...)
	return c
}

func (s *memStore) id() int64 {
	s.d.nextID++
	return s.d.nextID
}

// テスト用の投入ヘルパー
func (s *memStore) addUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	s.d.users[u.ID] = u
	return u
}

func (s *memStore) addProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	if p.Status == "" {
		p.Status = model.RecordStatusActive
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	s.d.products[p.ID] = p
	return p
}

func (s *memStore) addCoupon(c model.Coupon) model.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	if c.Status == "" {
		c.Status = model.RecordStatusActive
	}
	s.d.coupons[c.ID] = c
	return c
}

func (s *memStore) addAddress(a model.Address) model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.d.addresses[a.ID] = a
	return a
}

func (s *memStore) product(id int64) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.products[id]
}

func (s *memStore) coupon(id int64) model.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.coupons[id]
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.orders)
}

func (s *memStore) auditActions() []model.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.AuditAction{}
	for _, a := range s.d.audits {
		out = append(out, a.Action)
	}
	return out
}

func matchStatus(st model.RecordStatus, f repo.StatusFilter) bool {
	return f == repo.AnyStatus || st == model.RecordStatusActive
}

func pageOf[T any](all []T, page int, limit int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// ---------- tx ----------

type memTx struct{ s *memStore }

func (t memTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	t.s.mu.Lock()
	snap := t.s.d.clone()
	t.s.mu.Unlock()

	if err := fn(memRepos{t.s}); err != nil {
		t.s.mu.Lock()
		t.s.d = snap
		t.s.mu.Unlock()
		return err
	}
	return nil
}

type memRepos struct{ s *memStore }

func (r memRepos) Orders() repo.OrderRepository                 { return memOrders{r.s} }
func (r memRepos) OrderDetails() repo.OrderDetailRepository     { return memDetails{r.s} }
func (r memRepos) OrderPayments() repo.OrderPaymentRepository   { return memPayments{r.s} }
func (r memRepos) OrderSequences() repo.OrderSequenceRepository { return memSeq{r.s} }
func (r memRepos) OrderAddresses() repo.OrderAddressRepository  { return memOrderAddrs{r.s} }
func (r memRepos) Carts() repo.CartRepository                   { return memCarts{r.s} }
func (r memRepos) CartItems() repo.CartItemRepository           { return memCartItems{r.s} }
func (r memRepos) Coupons() repo.CouponRepository               { return memCoupons{r.s} }
func (r memRepos) Inventory() repo.InventoryRepository          { return memInventory{r.s} }
func (r memRepos) Products() repo.ProductRepository             { return memProducts{r.s} }
func (r memRepos) AuditLogs() repo.AuditLogRepository           { return memAudit{r.s} }

// ---------- users ----------

type memUsers struct{ s *memStore }

func (m memUsers) Create(_ context.Context, u *model.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, x := range m.s.d.users {
		if x.Email == u.Email {
			return repo.ErrConflict
		}
	}
	u.ID = m.s.id()
	m.s.d.users[u.ID] = *u
	return nil
}

func (m memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.d.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m memUsers) Update(_ context.Context, u *model.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.d.users[u.ID] = *u
	return nil
}

func (m memUsers) IncrementTokenVersion(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u := m.s.d.users[id]
	u.TokenVersion++
	m.s.d.users[id] = u
	return nil
}

func (m memUsers) List(_ context.Context, page int, limit int) ([]model.User, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := []model.User{}
	for _, u := range m.s.d.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, page, limit), int64(len(all)), nil
}

// ---------- products ----------

type memProducts struct{ s *memStore }

func (m memProducts) List(_ context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := []model.Product{}
	for _, p := range m.s.d.products {
		if matchStatus(p.Status, q.Status) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, q.Page, q.Limit), int64(len(all)), nil
}

func (m memProducts) FindByID(_ context.Context, id int64, f repo.StatusFilter) (model.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.d.products[id]
	if !ok || !matchStatus(p.Status, f) {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m memProducts) FindBySlug(_ context.Context, slug string, f repo.StatusFilter) (model.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.d.products {
		if p.Slug == slug && matchStatus(p.Status, f) {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (m memProducts) FindByIDs(_ context.Context, ids []int64) (map[int64]model.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := map[int64]model.Product{}
	for _, id := range ids {
		if p, ok := m.s.d.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m memProducts) Create(_ context.Context, p model.Product) (model.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, x := range m.s.d.products {
		if x.Name == p.Name || x.Slug == p.Slug {
			return model.Product{}, repo.ErrConflict
		}
	}
	p.ID = m.s.id()
	p.CreatedAt = time.Now()
	m.s.d.products[p.ID] = p
	return p, nil
}

func (m memProducts) Update(_ context.Context, p model.Product) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.d.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	m.s.d.products[p.ID] = p
	return nil
}

func (m memProducts) modify(id int64, fn func(p *model.Product)) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.d.products[id]
	if !ok {
		return repo.ErrNotFound
	}
	fn(&p)
	m.s.d.products[id] = p
	return nil
}

func (m memProducts) SetStatus(_ context.Context, id int64, st model.RecordStatus) error {
	return m.modify(id, func(p *model.Product) { p.Status = st })
}

func (m memProducts) SetFeatured(_ context.Context, id int64, featured bool) error {
	return m.modify(id, func(p *model.Product) { p.IsFeatured = featured })
}

func (m memProducts) SetSKU(_ context.Context, id int64, sku string) error {
	return m.modify(id, func(p *model.Product) { p.SKU = sku })
}

func (m memProducts) SlugExists(_ context.Context, slug string, exceptID int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.d.products {
		if p.Slug == slug && p.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

// ---------- images ----------

type memImages struct{ s *memStore }

func (m memImages) ListByProduct(_ context.Context, productID int64) ([]model.ProductImage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []model.ProductImage{}
	for _, img := range m.s.d.images {
		if img.ProductID == productID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memImages) FindByID(_ context.Context, id int64) (model.ProductImage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	img, ok := m.s.d.images[id]
	if !ok {
		return model.ProductImage{}, repo.ErrNotFound
	}
	return img, nil
}

func (m memImages) Add(_ context.Context, img model.ProductImage) (model.ProductImage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	hasPrimary := false
	for _, x := range m.s.d.images {
		if x.ProductID == img.ProductID && x.IsPrimary {
			hasPrimary = true
		}
	}
	if !hasPrimary {
		img.IsPrimary = true
	} else if img.IsPrimary {
		for id, x := range m.s.d.images {
			if x.ProductID == img.ProductID {
				x.IsPrimary = false
				m.s.d.images[id] = x
			}
		}
	}
	img.ID = m.s.id()
	m.s.d.images[img.ID] = img
	return img, nil
}

func (m memImages) SetPrimary(_ context.Context, productID int64, imageID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if img, ok := m.s.d.images[imageID]; !ok || img.ProductID != productID {
		return repo.ErrNotFound
	}
	for id, x := range m.s.d.images {
		if x.ProductID == productID {
			x.IsPrimary = id == imageID
			m.s.d.images[id] = x
		}
	}
	return nil
}

func (m memImages) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.d.images, id)
	return nil
}

func (m memImages) PrimaryURLs(_ context.Context, productIDs []int64) (map[int64]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := map[int64]string{}
	for _, img := range m.s.d.images {
		if img.IsPrimary {
			out[img.ProductID] = img.ImageURL
		}
	}
	return out, nil
}

// ---------- inventory ----------

type memInventory struct{ s *memStore }

func (m memInventory) DecreaseStockIfEnough(_ context.Context, productID int64, qty int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.calls = append(m.s.calls, "stock")
	p, ok := m.s.d.products[productID]
	if !ok {
		return false, repo.ErrNotFound
	}
	if p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	m.s.d.products[productID] = p
	return true, nil
}

func (m memInventory) IncreaseStock(_ context.Context, productID int64, qty int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p := m.s.d.products[productID]
	p.Stock += qty
	m.s.d.products[productID] = p
	return nil
}

func (m memInventory) CreateLog(_ context.Context, l model.InventoryLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	l.ID = m.s.id()
	m.s.d.invLogs = append(m.s.d.invLogs, l)
	return nil
}

func (m memInventory) ApplyLog(_ context.Context, l model.InventoryLog) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.d.products[l.ProductID]
	if !ok {
		return false, repo.ErrNotFound
	}
	if p.Stock+l.Delta() < 0 {
		return false, nil
	}
	p.Stock += l.Delta()
	m.s.d.products[l.ProductID] = p
	l.ID = m.s.id()
	m.s.d.invLogs = append(m.s.d.invLogs, l)
	return true, nil
}

func (m memInventory) ListLogs(_ context.Context, productID *int64, page int, limit int) ([]model.InventoryLog, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := []model.InventoryLog{}
	for _, l := range m.s.d.invLogs {
		if productID == nil || l.ProductID == *productID {
			all = append(all, l)
		}
	}
	return pageOf(all, page, limit), int64(len(all)), nil
}

// ---------- carts ----------

type memCarts struct{ s *memStore }

func (m memCarts) find(owner model.CartOwner) (model.Cart, bool) {
	for _, c := range m.s.d.carts {
		if c.Status == model.RecordStatusActive && c.Owner() == owner {
			return c, true
		}
	}
	return model.Cart{}, false
}

func (m memCarts) GetOrCreateActive(_ context.Context, owner model.CartOwner) (model.Cart, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.find(owner); ok {
		return c, nil
	}
	c := model.Cart{ID: m.s.id(), SessionToken: owner.SessionToken, Status: model.RecordStatusActive}
	if owner.IsUser() {
		uid := owner.UserID
		c.UserID = &uid
	}
	m.s.d.carts[c.ID] = c
	return c, nil
}

func (m memCarts) FindActive(_ context.Context, owner model.CartOwner) (model.Cart, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c, ok := m.find(owner); ok {
		return c, nil
	}
	return model.Cart{}, repo.ErrNotFound
}

func (m memCarts) FindActiveForUpdate(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	return m.FindActive(ctx, owner)
}

func (m memCarts) SetCoupon(_ context.Context, cartID int64, couponID *int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := m.s.d.carts[cartID]
	c.CouponID = couponID
	m.s.d.carts[cartID] = c
	return nil
}

func (m memCarts) UpdateStatus(_ context.Context, cartID int64, st model.RecordStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := m.s.d.carts[cartID]
	c.Status = st
	m.s.d.carts[cartID] = c
	return nil
}

type memCartItems struct{ s *memStore }

func (m memCartItems) ListActiveByCartID(_ context.Context, cartID int64) ([]model.CartItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []model.CartItem{}
	for _, it := range m.s.d.cartItems {
		if it.CartID == cartID && it.Status == model.RecordStatusActive {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memCartItems) FindActive(_ context.Context, cartID int64, productID int64) (model.CartItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, it := range m.s.d.cartItems {
		if it.CartID == cartID && it.ProductID == productID && it.Status == model.RecordStatusActive {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (m memCartItems) UpsertAdd(_ context.Context, cartID int64, productID int64, addQty int64, unitPrice decimal.Decimal) (model.CartItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, it := range m.s.d.cartItems {
		if it.CartID != cartID || it.ProductID != productID {
			continue
		}
		if it.Status == model.RecordStatusActive {
			it.Quantity += addQty
		} else {
			it.Status = model.RecordStatusActive
			it.Quantity = addQty
			it.UnitPrice = unitPrice
		}
		m.s.d.cartItems[id] = it
		return it, nil
	}
	it := model.CartItem{ID: m.s.id(), CartID: cartID, ProductID: productID, Quantity: addQty, UnitPrice: unitPrice, Status: model.RecordStatusActive}
	m.s.d.cartItems[it.ID] = it
	return it, nil
}

func (m memCartItems) SetQuantity(_ context.Context, itemID int64, qty int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	it, ok := m.s.d.cartItems[itemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	m.s.d.cartItems[itemID] = it
	return nil
}

func (m memCartItems) Archive(_ context.Context, itemID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	it, ok := m.s.d.cartItems[itemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Status = model.RecordStatusArchived
	m.s.d.cartItems[itemID] = it
	return nil
}

func (m memCartItems) ArchiveAllByCartID(_ context.Context, cartID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, it := range m.s.d.cartItems {
		if it.CartID == cartID {
			it.Status = model.RecordStatusArchived
			m.s.d.cartItems[id] = it
		}
	}
	return nil
}

// ---------- coupons ----------

type memCoupons struct{ s *memStore }

func (m memCoupons) FindByCode(_ context.Context, code string, f repo.StatusFilter) (model.Coupon, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.d.coupons {
		if c.Code == code && matchStatus(c.Status, f) {
			return c, nil
		}
	}
	return model.Coupon{}, repo.ErrNotFound
}

func (m memCoupons) FindByID(_ context.Context, id int64, f repo.StatusFilter) (model.Coupon, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.d.coupons[id]
	if !ok || !matchStatus(c.Status, f) {
		return model.Coupon{}, repo.ErrNotFound
	}
	return c, nil
}

func (m memCoupons) FindByIDForUpdate(ctx context.Context, id int64) (model.Coupon, error) {
	return m.FindByID(ctx, id, repo.AnyStatus)
}

func (m memCoupons) IncrementUsed(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := m.s.d.coupons[id]
	if c.UsedCount+1 > c.UsageLimit {
		return repo.ErrConflict
	}
	c.UsedCount++
	m.s.d.coupons[id] = c
	return nil
}

func (m memCoupons) List(_ context.Context, page int, limit int) ([]model.Coupon, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := []model.Coupon{}
	for _, c := range m.s.d.coupons {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (m memCoupons) Create(_ context.Context, c model.Coupon) (model.Coupon, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, x := range m.s.d.coupons {
		if x.Code == c.Code {
			return model.Coupon{}, repo.ErrConflict
		}
	}
	c.ID = m.s.id()
	m.s.d.coupons[c.ID] = c
	return c, nil
}

func (m memCoupons) Update(_ context.Context, c model.Coupon) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.d.coupons[c.ID]; !ok {
		return repo.ErrNotFound
	}
	m.s.d.coupons[c.ID] = c
	return nil
}

func (m memCoupons) SetStatus(_ context.Context, id int64, st model.RecordStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.d.coupons[id]
	if !ok {
		return repo.ErrNotFound
	}
	c.Status = st
	m.s.d.coupons[id] = c
	return nil
}

// ---------- addresses ----------

type memAddresses struct{ s *memStore }

func (m memAddresses) Create(_ context.Context, a model.Address) (model.Address, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a.ID = m.s.id()
	m.s.d.addresses[a.ID] = a
	return a, nil
}

func (m memAddresses) ListByUserID(_ context.Context, userID int64) ([]model.Address, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := []model.Address{}
	for _, a := range m.s.d.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memAddresses) FindByID(_ context.Context, id int64) (model.Address, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.d.addresses[id]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

func (m memAddresses) Update(_ context.Context, a model.Address) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.d.addresses[a.ID] = a
	return nil
}

func (m memAddresses) FindDefault(_ context.Context, userID int64) (model.Address, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.d.addresses {
		if a.UserID == userID && a.IsDefault {
			return a, nil
		}
	}
	return model.Address{}, repo.ErrNotFound
}

func (m memAddresses) Delete(_ context.Context, userID int64, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	gone, ok := m.s.d.addresses[id]
	if !ok || gone.UserID != userID {
		return repo.ErrNotFound
	}
	delete(m.s.d.addresses, id)
	if !gone.IsDefault {
		return nil
	}
	var next int64
	for aid, a := range m.s.d.addresses {
		if a.UserID == userID && (next == 0 || aid < next) {
			next = aid
		}
	}
	if next != 0 {
		a := m.s.d.addresses[next]
		a.IsDefault = true
		m.s.d.addresses[next] = a
	}
	return nil
}

func (m memAddresses) SetDefault(_ context.Context, userID, addressID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, a := range m.s.d.addresses {
		if a.UserID == userID {
			a.IsDefault = id == addressID
			m.s.d.addresses[id] = a
		}
	}
	return nil
}

// ---------- orders ----------

type memOrders struct{ s *memStore }

func (m memOrders) FindByID(_ context.Context, id int64) (model.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.d.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m memOrders) FindByIDForUpdate(ctx context.Context, id int64) (model.Order, error) {
	return m.FindByID(ctx, id)
}

func (m memOrders) ListByCustomerID(_ context.Context, customerID int64, page int, limit int) ([]model.Order, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := []model.Order{}
	for _, o := range m.s.d.orders {
		if o.CustomerID == customerID {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (m memOrders) Create(_ context.Context, o model.Order) (model.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, x := range m.s.d.orders {
		if x.OrderNumber == o.OrderNumber || (x.CustomerID == o.CustomerID && x.IdempotencyKey == o.IdempotencyKey) {
			return model.Order{}, repo.ErrConflict
		}
	}
	o.ID = m.s.id()
	o.CreatedAt = time.Now()
	m.s.d.orders[o.ID] = o
	return o, nil
}

func (m memOrders) UpdateStatus(_ context.Context, id int64, st model.OrderStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o := m.s.d.orders[id]
	o.Status = st
	m.s.d.orders[id] = o
	return nil
}

func (m memOrders) UpdateTotals(_ context.Context, o model.Order) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.d.orders[o.ID] = o
	return nil
}

func (m memOrders) FindByIdempotencyKey(_ context.Context, customerID int64, key string) (model.Order, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, o := range m.s.d.orders {
		if o.CustomerID == customerID && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (m memOrders) ListAdmin(_ context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := []model.Order{}
	for _, o := range m.s.d.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return pageOf(all, f.Page, f.Limit), int64(len(all)), nil
}

type memDetails struct{ s *memStore }

func (m memDetails) CreateBulk(_ context.Context, orderID int64, details []model.OrderDetail) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, d := range details {
		d.ID = m.s.id()
		d.OrderID = orderID
		m.s.d.details[orderID] = append(m.s.d.details[orderID], d)
	}
	return nil
}

func (m memDetails) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderDetail, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return append([]model.OrderDetail{}, m.s.d.details[orderID]...), nil
}

func (m memDetails) DeleteByOrderID(_ context.Context, orderID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.d.details, orderID)
	return nil
}

type memPayments struct{ s *memStore }

func (m memPayments) Create(_ context.Context, p model.OrderPayment) (model.OrderPayment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p.ID = m.s.id()
	m.s.d.payments[p.OrderID] = append(m.s.d.payments[p.OrderID], p)
	return p, nil
}

func (m memPayments) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderPayment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return append([]model.OrderPayment{}, m.s.d.payments[orderID]...), nil
}

type memSeq struct{ s *memStore }

func (m memSeq) Next(_ context.Context, period string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.calls = append(m.s.calls, "seq")
	m.s.d.seq[period]++
	return m.s.d.seq[period], nil
}

type memOrderAddrs struct{ s *memStore }

func (m memOrderAddrs) Create(_ context.Context, a model.OrderAddress) (model.OrderAddress, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a.ID = m.s.id()
	m.s.d.orderAddrs[a.ID] = a
	return a, nil
}

func (m memOrderAddrs) FindByID(_ context.Context, id int64) (model.OrderAddress, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	a, ok := m.s.d.orderAddrs[id]
	if !ok {
		return model.OrderAddress{}, repo.ErrNotFound
	}
	return a, nil
}

// ---------- audit ----------

type memAudit struct{ s *memStore }

func (m memAudit) Create(_ context.Context, l model.AuditLog) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	l.ID = m.s.id()
	m.s.d.audits = append(m.s.d.audits, l)
	return nil
}

func (m memAudit) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	all := []model.AuditLog{}
	for _, l := range m.s.d.audits {
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		all = append(all, l)
	}
	return pageOf(all, f.Page, f.Limit), int64(len(all)), nil
}

// ---------- 組み立て ----------

type recordingNotifier struct {
	mu      sync.Mutex
	placed  []string
	changed []string
	paid    []string
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, o OrderOutput, email string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, o.OrderNumber+" "+email)
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, o OrderOutput, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, string(o.Status))
}

func (n *recordingNotifier) PaymentCompleted(_ context.Context, o OrderOutput, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, o.OrderNumber)
}

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

type shop struct {
	store      *memStore
	notifier   *recordingNotifier
	cart       *CartUsecase
	orders     *OrderUsecase
	adminOrder *AdminOrderUsecase
	addresses  *AddressUsecase
}

func newShop(shipping decimal.Decimal) *shop {
	s := newMemStore()
	n := &recordingNotifier{}
	v := NewCouponValidator(func() time.Time { return fixedNow })
	tx := memTx{s}
	return &shop{
		store:      s,
		notifier:   n,
		cart:       NewCartUsecase(tx, memCarts{s}, memCartItems{s}, memProducts{s}, memImages{s}, memCoupons{s}, v),
		orders:     NewOrderUsecase(tx, memAddresses{s}, memUsers{s}, v, shipping, n, nil),
		adminOrder: NewAdminOrderUsecase(tx, memUsers{s}, n, nil),
		addresses:  NewAddressUsecase(memAddresses{s}),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
